package rig

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/juju/errors"

	"github.com/use-go/gopro"
)

// Profile is a recording configuration applied to every camera
type Profile struct {
	Mode       gopro.Mode
	Resolution gopro.Resolution
	FrameRate  gopro.FrameRate
	Lens       gopro.Lens
	// Settle is the pause after each individual change
	Settle time.Duration
}

// DefaultProfile is 4K at 120 fps with the linear lens
var DefaultProfile = Profile{
	Mode:       gopro.ModeVideo,
	Resolution: gopro.Resolution4K,
	FrameRate:  gopro.FrameRate120,
	Lens:       gopro.LensLinear,
	Settle:     1 * time.Second,
}

// PowerOnAll powers every camera on in parallel
func (r *Rig) PowerOnAll(ctx context.Context) []Result {
	return r.Parallel(ctx, "power-on", func(ctx context.Context, cam Camera) error {
		return cam.Client.PowerOn(ctx)
	})
}

// PowerOffAll puts every camera to sleep in parallel
func (r *Rig) PowerOffAll(ctx context.Context) []Result {
	return r.Parallel(ctx, "power-off", func(ctx context.Context, cam Camera) error {
		return cam.Client.PowerOff(ctx)
	})
}

// StartRecordingAll starts recording on every camera in parallel
func (r *Rig) StartRecordingAll(ctx context.Context) []Result {
	return r.Parallel(ctx, "record-start", func(ctx context.Context, cam Camera) error {
		return cam.Client.StartRecording(ctx)
	})
}

// StopRecordingAll stops recording on every camera in parallel. An
// unconfirmed stop is not a failure.
func (r *Rig) StopRecordingAll(ctx context.Context) []Result {
	return r.Parallel(ctx, "record-stop", func(ctx context.Context, cam Camera) error {
		_, err := cam.Client.StopRecording(ctx)
		return err
	})
}

// ConfigureAll applies the profile to one camera at a time, waiting delay
// between cameras
func (r *Rig) ConfigureAll(ctx context.Context, profile Profile, delay time.Duration) []Result {
	return r.Sequential(ctx, "configure", delay, func(ctx context.Context, cam Camera) error {
		return Configure(ctx, cam.Client, profile)
	})
}

// Configure selects the mode then changes resolution, frame rate and lens,
// in that order
func Configure(ctx context.Context, client *gopro.Client, profile Profile) error {
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return client.SetMode(ctx, profile.Mode) },
		func(ctx context.Context) error { return client.SetResolution(ctx, profile.Resolution) },
		func(ctx context.Context) error { return client.SetFrameRate(ctx, profile.FrameRate) },
		func(ctx context.Context) error { return client.SetLens(ctx, profile.Lens) },
	}

	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
		if err := pause(ctx, profile.Settle); err != nil {
			return err
		}
	}

	state, err := client.GetState(ctx)
	if err != nil {
		return errors.Annotate(err, "failed to verify configuration")
	}
	if v, ok := state.SettingInt(gopro.SettingResolution); ok && gopro.Resolution(v) != profile.Resolution {
		return errors.Errorf("resolution is %s, wanted %s", gopro.Resolution(v), profile.Resolution)
	}
	if v, ok := state.SettingInt(gopro.SettingFrameRate); ok && gopro.FrameRate(v) != profile.FrameRate {
		return errors.Errorf("frame rate is %s, wanted %s", gopro.FrameRate(v), profile.FrameRate)
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// CameraStatus is one camera's entry in StatusAll
type CameraStatus struct {
	Name   string
	Report gopro.StatusReport
	Err    error
}

// StatusAll fetches every camera's state in parallel
func (r *Rig) StatusAll(ctx context.Context) []CameraStatus {
	var mu sync.Mutex
	statuses := make([]CameraStatus, 0, len(r.cameras))

	r.Parallel(ctx, "status", func(ctx context.Context, cam Camera) error {
		state, err := cam.Client.GetState(ctx)
		entry := CameraStatus{Name: cam.Name, Err: err}
		if err == nil {
			entry.Report = gopro.NewStatusReport(cam.Client.Serial(), state, time.Now())
		}
		mu.Lock()
		statuses = append(statuses, entry)
		mu.Unlock()
		return err
	})

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}
