package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/rig"
)

var (
	recordDuration time.Duration
	readyTimeout   time.Duration
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Start or stop recording",
}

var recordStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start recording on every selected camera",
	Long: `Start recording and confirm the camera reports encoding. With --duration
the recording is stopped again once the duration has elapsed.`,
	Example: `  goprousb record start
  goprousb record start --duration 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := cmd.Context()

		if readyTimeout > 0 {
			results := s.rig.Parallel(ctx, "wait-ready", func(ctx context.Context, cam rig.Camera) error {
				ready, err := cam.Client.WaitUntilReady(ctx, readyTimeout)
				if err == nil && !ready {
					s.log.Warn().Str("camera", cam.Name).Msg("camera still busy, starting anyway")
				}
				return err
			})
			if err := reportResults(cmd.OutOrStdout(), "wait ready", results); err != nil {
				return err
			}
		}

		if err := reportResults(cmd.OutOrStdout(), "record start", s.rig.StartRecordingAll(ctx)); err != nil {
			return err
		}
		if recordDuration <= 0 {
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Recording for %s...\n", recordDuration)
		select {
		case <-time.After(recordDuration):
		case <-ctx.Done():
			// still stop the cameras on interrupt
			ctx = context.WithoutCancel(ctx)
		}
		return stopAll(ctx, cmd.OutOrStdout(), s)
	},
}

var recordStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop recording on every selected camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		return stopAll(cmd.Context(), cmd.OutOrStdout(), s)
	},
}

// stopAll stops every camera and notes the ones that did not confirm
func stopAll(ctx context.Context, out io.Writer, s *session) error {
	var mu sync.Mutex
	unconfirmed := make(map[string]bool)

	results := s.rig.Parallel(ctx, "record-stop", func(ctx context.Context, cam rig.Camera) error {
		result, err := cam.Client.StopRecording(ctx)
		if err == nil && result == gopro.StopUnconfirmed {
			mu.Lock()
			unconfirmed[cam.Name] = true
			mu.Unlock()
		}
		return err
	})

	err := reportResults(out, "record stop", results)
	if !jsonOutput {
		for _, res := range results {
			if unconfirmed[res.Name] {
				fmt.Fprintf(out, "%s: camera did not confirm the stop yet, it may still be finalizing\n", res.Name)
			}
		}
	}
	return err
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.AddCommand(recordStartCmd, recordStopCmd)

	recordStartCmd.Flags().DurationVar(&recordDuration, "duration", 0, "Stop after this long (0 keeps recording)")
	recordStartCmd.Flags().DurationVar(&readyTimeout, "wait-ready", gopro.DefaultReadyTimeout, "Wait up to this long for busy cameras first (0 skips)")
}
