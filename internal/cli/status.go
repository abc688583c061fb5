package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/internal/publish"
	"github.com/use-go/gopro/rig"
)

var (
	watchInterval time.Duration
	watchDuration time.Duration
	watchChanges  bool
	watchMQTT     bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show battery, recording and video settings of every camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		statuses := s.rig.StatusAll(cmd.Context())
		if err := printStatuses(cmd.OutOrStdout(), statuses); err != nil {
			return err
		}

		failed := 0
		for _, st := range statuses {
			if st.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			return errors.Errorf("status failed on %d of %d cameras", failed, len(statuses))
		}
		return nil
	},
}

func printStatuses(w io.Writer, statuses []rig.CameraStatus) error {
	if jsonOutput {
		type entry struct {
			Camera string              `json:"camera"`
			Status *gopro.StatusReport `json:"status,omitempty"`
			Error  string              `json:"error,omitempty"`
		}
		entries := make([]entry, 0, len(statuses))
		for i := range statuses {
			e := entry{Camera: statuses[i].Name}
			if statuses[i].Err != nil {
				e.Error = statuses[i].Err.Error()
			} else {
				e.Status = &statuses[i].Report
			}
			entries = append(entries, e)
		}
		return printJSON(w, entries)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "CAMERA\tBATTERY\tRECORDING\tBUSY\tMODE\tRESOLUTION\tFPS\tLENS\tSD FREE")
	for _, st := range statuses {
		if st.Err != nil {
			fmt.Fprintf(tw, "%s\tERROR: %v\t\t\t\t\t\t\t\n", st.Name, st.Err)
			continue
		}
		r := st.Report
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\t%s\t%s\t%s\t%s\n",
			st.Name, intOrNA(r.Battery, "%"), r.Recording, r.Busy, r.Mode,
			r.Resolution, r.FrameRate, r.Lens, intOrNA(r.SDFreeMB, " MB"))
	}
	return tw.Flush()
}

func intOrNA(v *int, suffix string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d%s", *v, suffix)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll camera status until interrupted",
	Long: `Poll every selected camera at a fixed interval and print each sample.
With --changes only fields that changed since the previous sample are
printed. With --mqtt every sample is also published as JSON to
<mqtt.topic>/<camera>.`,
	Example: `  goprousb watch --interval 2s
  goprousb watch --changes --duration 10m
  goprousb watch --mqtt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var pub *publish.Publisher
		if watchMQTT {
			if s.cfg.MQTT.Broker == "" {
				return errors.New("--mqtt needs mqtt.broker in the config")
			}
			pub, err = publish.Connect(s.cfg.MQTT.Broker, s.cfg.MQTT.ClientID, s.cfg.MQTT.Topic)
			if err != nil {
				return err
			}
			defer pub.Close()
		}

		interval := watchInterval
		if interval <= 0 {
			interval = s.cfg.PollInterval
		}

		w := &watcher{out: cmd.OutOrStdout(), pub: pub, log: s.log}
		results := s.rig.Parallel(cmd.Context(), "watch", func(ctx context.Context, cam rig.Camera) error {
			var prev *gopro.StatusReport
			return cam.Client.PollStatusStream(ctx, interval, watchDuration, func(report gopro.StatusReport) {
				w.emit(cam.Name, prev, report)
				prev = &report
			})
		})
		return errors.Trace(firstError(results))
	},
}

// watcher serializes output of the per-camera polling loops
type watcher struct {
	mu  sync.Mutex
	out io.Writer
	pub *publish.Publisher
	log zerolog.Logger
}

func (w *watcher) emit(camera string, prev *gopro.StatusReport, report gopro.StatusReport) {
	if w.pub != nil {
		if err := w.pub.Publish(camera, report); err != nil {
			w.log.Warn().Str("camera", camera).Err(err).Msg("publish failed")
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if jsonOutput {
		err := printJSON(w.out, struct {
			Camera string `json:"camera"`
			gopro.StatusReport
		}{camera, report})
		if err != nil {
			w.log.Warn().Str("camera", camera).Err(err).Msg("write failed")
		}
		return
	}

	if !watchChanges || prev == nil {
		fmt.Fprintf(w.out, "[%s]\n%s\n", camera, report)
		return
	}

	changes, err := report.Changes(*prev)
	if err != nil {
		w.log.Warn().Str("camera", camera).Err(err).Msg("diff failed")
		return
	}
	for _, change := range changes {
		fmt.Fprintf(w.out, "%s [%s] %s: %v -> %v\n",
			report.Time.Format("15:04:05"), camera, strings.Join(change.Path, "."), change.From, change.To)
	}
}

func firstError(results []rig.Result) error {
	for _, res := range results {
		if res.Err != nil {
			return errors.Annotatef(res.Err, "camera %q", res.Name)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd, watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Poll interval (default poll_interval from config)")
	watchCmd.Flags().DurationVar(&watchDuration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	watchCmd.Flags().BoolVar(&watchChanges, "changes", false, "Only print fields that changed")
	watchCmd.Flags().BoolVar(&watchMQTT, "mqtt", false, "Publish samples to the configured MQTT broker")
}
