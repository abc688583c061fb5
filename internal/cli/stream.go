package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/rig"
)

var (
	streamTarget     string
	streamResolution string
	streamFOV        string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Start or stop the UDP preview stream",
}

var previewStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start webcam mode and print the preview URL of each camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var mu sync.Mutex
		urls := make(map[string]string)
		results := s.rig.Parallel(cmd.Context(), "preview-start", func(ctx context.Context, cam rig.Camera) error {
			url, err := cam.Client.StartPreview(ctx)
			if err == nil {
				mu.Lock()
				urls[cam.Name] = url
				mu.Unlock()
			}
			return err
		})

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), urls); err != nil {
				return err
			}
		} else {
			for _, res := range results {
				if url, ok := urls[res.Name]; ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Name, url)
				}
			}
		}
		if failed := rig.Failed(results); len(failed) > 0 {
			return reportResults(cmd.ErrOrStderr(), "preview start", failed)
		}
		return nil
	},
}

var previewStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop webcam mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		results := s.rig.Parallel(cmd.Context(), "preview-stop", func(ctx context.Context, cam rig.Camera) error {
			return cam.Client.StopPreview(ctx)
		})
		return reportResults(cmd.OutOrStdout(), "preview stop", results)
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Livestream one camera to an RTMP server",
}

var streamStartCmd = &cobra.Command{
	Use:     "start",
	Short:   "Start livestreaming to --url",
	Example: `  goprousb stream start --camera left --url rtmp://live.example.com/app/key --resolution 1080p --fov linear`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, ok := gopro.ParseStreamResolution(streamResolution)
		if !ok {
			return errors.NotValidf("stream resolution %q", streamResolution)
		}
		fov, ok := gopro.ParseStreamFOV(streamFOV)
		if !ok {
			return errors.NotValidf("stream field of view %q", streamFOV)
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		cam, err := s.single()
		if err != nil {
			return err
		}

		target, err := cam.Client.StartLivestream(cmd.Context(), streamTarget, res, fov)
		if err != nil {
			return errors.Annotatef(err, "camera %q", cam.Name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: streaming %s %s to %s\n", cam.Name, res, fov, target)
		return nil
	},
}

var streamStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop livestreaming",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		results := s.rig.Parallel(cmd.Context(), "stream-stop", func(ctx context.Context, cam rig.Camera) error {
			return cam.Client.StopLivestream(ctx)
		})
		return reportResults(cmd.OutOrStdout(), "stream stop", results)
	},
}

var streamStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the webcam status of each camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var mu sync.Mutex
		statuses := make(map[string]gopro.LivestreamStatus)
		results := s.rig.Parallel(cmd.Context(), "stream-status", func(ctx context.Context, cam rig.Camera) error {
			st, err := cam.Client.GetLivestreamStatus(ctx)
			if err == nil {
				mu.Lock()
				statuses[cam.Name] = st
				mu.Unlock()
			}
			return err
		})

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), statuses); err != nil {
				return err
			}
		} else {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CAMERA\tACTIVE\tRESOLUTION\tFOV\tSTATUS\tERROR")
			for _, res := range results {
				st, ok := statuses[res.Name]
				if !ok {
					fmt.Fprintf(tw, "%s\tFAILED: %v\t\t\t\t\n", res.Name, res.Err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%d\t%d\n",
					res.Name, st.Active, st.Resolution, st.FOV, st.StatusCode, st.Error)
			}
			tw.Flush()
		}

		if failed := rig.Failed(results); len(failed) > 0 {
			return errors.Errorf("stream status failed on %d of %d cameras", len(failed), len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd, streamCmd)
	previewCmd.AddCommand(previewStartCmd, previewStopCmd)
	streamCmd.AddCommand(streamStartCmd, streamStopCmd, streamStatusCmd)

	streamStartCmd.Flags().StringVar(&streamTarget, "url", "", "RTMP target (rtmp:// or rtmps://)")
	streamStartCmd.Flags().StringVar(&streamResolution, "resolution", "1080p", "Stream resolution (480p, 720p, 1080p)")
	streamStartCmd.Flags().StringVar(&streamFOV, "fov", "wide", "Field of view (wide, narrow, superview, linear)")
	_ = streamStartCmd.MarkFlagRequired("url")
}
