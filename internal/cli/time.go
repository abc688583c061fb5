package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/use-go/gopro/rig"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Read or set the camera clocks",
}

var timeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print each camera's clock and its offset from local time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var mu sync.Mutex
		clocks := make(map[string]time.Time)
		results := s.rig.Parallel(cmd.Context(), "time-get", func(ctx context.Context, cam rig.Camera) error {
			t, err := cam.Client.GetDateTime(ctx)
			if err == nil {
				mu.Lock()
				clocks[cam.Name] = t
				mu.Unlock()
			}
			return err
		})

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), clocks); err != nil {
				return err
			}
		} else {
			now := time.Now()
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CAMERA\tCLOCK\tOFFSET")
			for _, res := range results {
				t, ok := clocks[res.Name]
				if !ok {
					fmt.Fprintf(tw, "%s\tFAILED: %v\t\n", res.Name, res.Err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Name, t.Format("2006-01-02 15:04:05"), t.Sub(now).Round(time.Second))
			}
			tw.Flush()
		}

		if failed := rig.Failed(results); len(failed) > 0 {
			return errors.Errorf("time get failed on %d of %d cameras", len(failed), len(results))
		}
		return nil
	},
}

var timeSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Set every camera's clock to local time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		results := s.rig.Parallel(cmd.Context(), "time-sync", func(ctx context.Context, cam rig.Camera) error {
			return cam.Client.SyncDateTime(ctx)
		})
		return reportResults(cmd.OutOrStdout(), "time sync", results)
	},
}

func init() {
	rootCmd.AddCommand(timeCmd)
	timeCmd.AddCommand(timeGetCmd, timeSyncCmd)
}
