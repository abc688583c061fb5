package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/rig"
)

var pullDir string

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "List and download recordings",
}

var mediaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files on each camera's SD card",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var mu sync.Mutex
		lists := make(map[string]*gopro.MediaList)
		results := s.rig.Parallel(cmd.Context(), "media-list", func(ctx context.Context, cam rig.Camera) error {
			list, err := cam.Client.ListMedia(ctx)
			if err == nil {
				mu.Lock()
				lists[cam.Name] = list
				mu.Unlock()
			}
			return err
		})

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), lists); err != nil {
				return err
			}
		} else {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CAMERA\tFILE\tSIZE\tCREATED")
			for _, res := range results {
				list, ok := lists[res.Name]
				if !ok {
					fmt.Fprintf(tw, "%s\tFAILED: %v\t\t\n", res.Name, res.Err)
					continue
				}
				for _, dir := range list.Media {
					for _, f := range dir.Files {
						fmt.Fprintf(tw, "%s\t%s/%s\t%s\t%s\n", res.Name, dir.Directory, f.Name, f.Size, created(f.Created))
					}
				}
			}
			tw.Flush()
		}

		if failed := rig.Failed(results); len(failed) > 0 {
			return errors.Errorf("media list failed on %d of %d cameras", len(failed), len(results))
		}
		return nil
	},
}

// created formats the camera's epoch seconds string
func created(epoch string) string {
	var secs int64
	if _, err := fmt.Sscan(epoch, &secs); err != nil || secs == 0 {
		return epoch
	}
	return time.Unix(secs, 0).Format("2006-01-02 15:04:05")
}

var mediaPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the most recent recording of each camera",
	Long: `Wait until each camera has finished encoding, then download its most
recent file to <dir>/<camera>.<ext>.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(pullDir, 0o755); err != nil {
			return errors.Annotatef(err, "failed to create %s", pullDir)
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var mu sync.Mutex
		paths := make(map[string]string)
		results := s.rig.Parallel(cmd.Context(), "media-pull", func(ctx context.Context, cam rig.Camera) error {
			path, err := cam.Client.DownloadLastMedia(ctx, filepath.Join(pullDir, cam.Name))
			if err == nil {
				mu.Lock()
				paths[cam.Name] = path
				mu.Unlock()
			}
			return err
		})

		if !jsonOutput {
			for _, res := range results {
				if path, ok := paths[res.Name]; ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: saved %s\n", res.Name, path)
				}
			}
		}
		return reportResults(cmd.OutOrStdout(), "media pull", results)
	},
}

func init() {
	rootCmd.AddCommand(mediaCmd)
	mediaCmd.AddCommand(mediaListCmd, mediaPullCmd)

	mediaPullCmd.Flags().StringVarP(&pullDir, "dir", "d", ".", "Directory to save recordings in")
}
