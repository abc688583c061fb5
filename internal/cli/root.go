// Package cli implements the goprousb command tree
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/internal/config"
	"github.com/use-go/gopro/internal/logging"
	"github.com/use-go/gopro/rig"
)

var (
	cfgFile     string
	jsonOutput  bool
	cameraNames []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "goprousb",
	Short: "Control GoPro cameras connected over USB",
	Long: `Power, configure, record, stream and monitor one or more GoPro cameras
reachable over their USB network interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Init(viper.GetViper(), cfgFile)
	},
}

// Execute runs the command tree until it completes or the process is
// interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.goprousb.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringSliceVarP(&cameraNames, "camera", "c", nil, "Camera names to act on (default all)")
}

// session is what every camera command needs
type session struct {
	cfg *config.Config
	log zerolog.Logger
	rig *rig.Rig
}

func (s *session) Close() {
	s.rig.Close()
}

// openSession loads the configuration and builds a rig over the selected
// cameras
func openSession() (*session, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Annotate(err, "invalid config")
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)

	selected, err := cfg.Select(cameraNames)
	if err != nil {
		return nil, err
	}

	members := make([]rig.Camera, 0, len(selected))
	for _, cam := range selected {
		opts := []gopro.Option{
			gopro.WithTimeout(cfg.RequestTimeout),
			gopro.WithLogger(logger.With().Str("camera", cam.Name).Logger()),
		}
		if cam.URL != "" {
			opts = append(opts, gopro.WithBaseURL(cam.URL))
		}
		client, err := gopro.NewClient(cam.Serial, opts...)
		if err != nil {
			return nil, errors.Annotatef(err, "camera %q", cam.Name)
		}
		members = append(members, rig.Camera{Name: cam.Name, Client: client})
	}

	r, err := rig.New(logger, members...)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: logger, rig: r}, nil
}

// single returns the only selected camera
func (s *session) single() (rig.Camera, error) {
	cameras := s.rig.Cameras()
	if len(cameras) != 1 {
		return rig.Camera{}, errors.Errorf("this command needs exactly one camera, select it with --camera (%d selected)", len(cameras))
	}
	return cameras[0], nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Trace(enc.Encode(v))
}

// reportResults prints one line per camera and fails when any camera did
func reportResults(w io.Writer, op string, results []rig.Result) error {
	if jsonOutput {
		type entry struct {
			Camera string `json:"camera"`
			OK     bool   `json:"ok"`
			Error  string `json:"error,omitempty"`
		}
		entries := make([]entry, 0, len(results))
		for _, res := range results {
			e := entry{Camera: res.Name, OK: res.Err == nil}
			if res.Err != nil {
				e.Error = res.Err.Error()
			}
			entries = append(entries, e)
		}
		if err := printJSON(w, entries); err != nil {
			return err
		}
	} else {
		tw := newTable(w)
		fmt.Fprintln(tw, "CAMERA\tRESULT")
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(tw, "%s\tFAILED: %v\n", res.Name, res.Err)
				continue
			}
			fmt.Fprintf(tw, "%s\tOK\n", res.Name)
		}
		tw.Flush()
	}

	if failed := rig.Failed(results); len(failed) > 0 {
		return errors.Errorf("%s failed on %d of %d cameras", op, len(failed), len(results))
	}
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}
