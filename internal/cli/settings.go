package cli

import (
	"context"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/rig"
)

var (
	setResolution    string
	setFrameRate     string
	setLens          string
	setAutoPowerDown string
	setProfile       bool
)

var modeCmd = &cobra.Command{
	Use:       "mode video|photo|timelapse",
	Short:     "Switch the capture mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"video", "photo", "timelapse"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := gopro.ParseMode(args[0])
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		results := s.rig.Sequential(cmd.Context(), "mode", s.cfg.ConfigureDelay, func(ctx context.Context, cam rig.Camera) error {
			return cam.Client.SetMode(ctx, mode)
		})
		return reportResults(cmd.OutOrStdout(), "mode", results)
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change video settings",
	Long: `Change resolution, frame rate, lens and auto power down. Cameras are
configured one after another, waiting configure_delay in between.

With --profile every camera gets video mode, 4K, 120 fps and the linear lens.`,
	Example: `  goprousb set --resolution 4K --fps 60 --lens linear
  goprousb set --profile --camera left`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		changes, err := settingChanges()
		if err != nil {
			return err
		}
		if len(changes) == 0 && !setProfile {
			return errors.New("nothing to change, pass at least one setting flag or --profile")
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var results []rig.Result
		if setProfile {
			results = s.rig.ConfigureAll(cmd.Context(), rig.DefaultProfile, s.cfg.ConfigureDelay)
			if err := reportResults(cmd.OutOrStdout(), "configure", results); err != nil || len(changes) == 0 {
				return err
			}
		}

		results = s.rig.Sequential(cmd.Context(), "set", s.cfg.ConfigureDelay, func(ctx context.Context, cam rig.Camera) error {
			return cam.Client.ApplySettings(ctx, changes)
		})
		return reportResults(cmd.OutOrStdout(), "set", results)
	},
}

// settingChanges turns the set flags into change requests
func settingChanges() ([]gopro.SettingChangeRequest, error) {
	var changes []gopro.SettingChangeRequest

	if setResolution != "" {
		res, err := gopro.ParseResolution(setResolution)
		if err != nil {
			return nil, err
		}
		changes = append(changes, gopro.SettingChangeRequest{Setting: gopro.SettingResolution, Option: int(res)})
	}
	if setFrameRate != "" {
		fps, err := gopro.ParseFrameRate(setFrameRate)
		if err != nil {
			return nil, err
		}
		changes = append(changes, gopro.SettingChangeRequest{Setting: gopro.SettingFrameRate, Option: int(fps)})
	}
	if setLens != "" {
		lens, err := gopro.ParseLens(setLens)
		if err != nil {
			return nil, err
		}
		changes = append(changes, gopro.SettingChangeRequest{Setting: gopro.SettingLens, Option: int(lens)})
	}
	switch setAutoPowerDown {
	case "":
	case "never":
		changes = append(changes, gopro.SettingChangeRequest{Setting: gopro.SettingAutoPowerDown, Option: int(gopro.AutoPowerDownNever)})
	case "5min":
		changes = append(changes, gopro.SettingChangeRequest{Setting: gopro.SettingAutoPowerDown, Option: int(gopro.AutoPowerDown5Min)})
	default:
		return nil, errors.NotValidf("auto power down %q", setAutoPowerDown)
	}

	return changes, nil
}

func init() {
	rootCmd.AddCommand(modeCmd, setCmd)

	setCmd.Flags().StringVar(&setResolution, "resolution", "", "Resolution (1080p, 1440p, 2.7K, 4K, 5K, 5.3K, ...)")
	setCmd.Flags().StringVar(&setFrameRate, "fps", "", "Frame rate (24, 30, 60, 120, 240, ...)")
	setCmd.Flags().StringVar(&setLens, "lens", "", `Lens (wide, narrow, superview, linear, "max superview", "linear + horizon")`)
	setCmd.Flags().StringVar(&setAutoPowerDown, "auto-power-down", "", "Auto power down (never, 5min)")
	setCmd.Flags().BoolVar(&setProfile, "profile", false, "Apply the default recording profile first")
}
