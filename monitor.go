package gopro

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/r3labs/diff"
)

// StatusReport is one formatted sample taken by PollStatusStream
type StatusReport struct {
	Time       time.Time `json:"time" diff:"-"`
	Serial     string    `json:"serial" diff:"-"`
	Battery    *int      `json:"battery,omitempty" diff:"battery"`
	Recording  bool      `json:"recording" diff:"recording"`
	Mode       string    `json:"mode" diff:"mode"`
	Busy       bool      `json:"busy" diff:"busy"`
	SDFreeMB   *int      `json:"sd_free_mb,omitempty" diff:"sd_free_mb"`
	Resolution string    `json:"resolution" diff:"resolution"`
	FrameRate  string    `json:"frame_rate" diff:"frame_rate"`
	Lens       string    `json:"lens" diff:"lens"`
	Err        string    `json:"error,omitempty" diff:"error"`
}

// NewStatusReport summarizes a state snapshot
func NewStatusReport(serial string, state *StateSnapshot, at time.Time) StatusReport {
	report := StatusReport{
		Time:       at,
		Serial:     serial,
		Recording:  state.StatusFlag(StatusEncoding),
		Mode:       state.ModeName(),
		Busy:       state.StatusFlag(StatusBusy),
		Resolution: state.ResolutionName(),
		FrameRate:  state.FrameRateName(),
		Lens:       state.LensName(),
	}
	if v, ok := state.StatusInt(StatusBattery); ok {
		report.Battery = &v
	}
	if v, ok := state.StatusInt(StatusSDFreeMB); ok {
		report.SDFreeMB = &v
	}
	return report
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func optInt(v *int, suffix string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d%s", *v, suffix)
}

func (r StatusReport) String() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "%s  %s\n", r.Time.Format("15:04:05"), r.Serial)
	if r.Err != "" {
		fmt.Fprintf(&b, "Error:      %s\n", r.Err)
		b.WriteString(strings.Repeat("=", 50))
		return b.String()
	}
	fmt.Fprintf(&b, "Battery:    %s\n", optInt(r.Battery, "%"))
	fmt.Fprintf(&b, "Recording:  %s\n", yesNo(r.Recording))
	fmt.Fprintf(&b, "Mode:       %s\n", r.Mode)
	fmt.Fprintf(&b, "Busy:       %s\n", yesNo(r.Busy))
	fmt.Fprintf(&b, "SD free:    %s\n", optInt(r.SDFreeMB, " MB"))
	fmt.Fprintf(&b, "Resolution: %s\n", r.Resolution)
	fmt.Fprintf(&b, "FPS:        %s\n", r.FrameRate)
	fmt.Fprintf(&b, "Lens:       %s\n", r.Lens)
	b.WriteString(strings.Repeat("=", 50))
	return b.String()
}

// Changes lists the fields that differ from prev
func (r StatusReport) Changes(prev StatusReport) (diff.Changelog, error) {
	return diff.Diff(prev, r)
}

// PollStatusStream fetches the state every interval and hands a report to
// emit, on the calling goroutine, until duration elapses (0 means no limit)
// or ctx is cancelled. Polling never changes camera state, so cancellation
// at any point is clean and returns nil. Fetch failures are reported in
// StatusReport.Err and polling carries on.
func (c *Client) PollStatusStream(ctx context.Context, interval, duration time.Duration, emit func(StatusReport)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var deadline time.Time
	if duration > 0 {
		deadline = time.Now().Add(duration)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil
		}

		now := time.Now()
		state, err := c.GetState(ctx)
		if ctx.Err() != nil {
			return nil
		}

		var report StatusReport
		if err != nil {
			report = StatusReport{Time: now, Serial: c.serial, Err: err.Error()}
		} else {
			report = NewStatusReport(c.serial, state, now)
		}
		emit(report)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
