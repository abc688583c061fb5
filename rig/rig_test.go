package rig

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/internal/fakecam"
)

func fastTiming() gopro.Timing {
	return gopro.Timing{
		StopFirstPoll: time.Millisecond,
		StopPoll:      time.Millisecond,
		StopAttempts:  5,
		ReadyPoll:     time.Millisecond,
		EncodingPoll:  time.Millisecond,
	}
}

// newTestRig builds a rig of fake cameras named after names
func newTestRig(t *testing.T, names ...string) (*Rig, map[string]*fakecam.Camera) {
	t.Helper()

	fakes := make(map[string]*fakecam.Camera)
	var cameras []Camera
	for i, name := range names {
		fake := fakecam.New()
		t.Cleanup(fake.Close)

		client, err := gopro.NewClient("C35042246821"+string(rune('0'+i))+"9",
			gopro.WithBaseURL(fake.URL()),
			gopro.WithTiming(fastTiming()),
		)
		require.NoError(t, err)

		fakes[name] = fake
		cameras = append(cameras, Camera{Name: name, Client: client})
	}

	r, err := New(zerolog.Nop(), cameras...)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, fakes
}

func TestNewValidation(t *testing.T) {
	client, err := gopro.NewClient("C3504224682139")
	require.NoError(t, err)

	_, err = New(zerolog.Nop(), Camera{Name: "a", Client: client}, Camera{Name: "a", Client: client})
	assert.True(t, errors.Is(err, errors.AlreadyExists))

	_, err = New(zerolog.Nop(), Camera{Name: "a"})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCameraLookup(t *testing.T) {
	r, _ := newTestRig(t, "left", "right")

	cam, ok := r.Camera("right")
	assert.True(t, ok)
	assert.Equal(t, "right", cam.Name)

	_, ok = r.Camera("center")
	assert.False(t, ok)

	names := []string{}
	for _, cam := range r.Cameras() {
		names = append(names, cam.Name)
	}
	assert.Equal(t, []string{"left", "right"}, names)
}

func TestParallelIsolatesFailures(t *testing.T) {
	r, _ := newTestRig(t, "c", "a", "b")

	var mu sync.Mutex
	seen := make(map[string]bool)
	results := r.Parallel(context.Background(), "test", func(ctx context.Context, cam Camera) error {
		mu.Lock()
		seen[cam.Name] = true
		mu.Unlock()
		if cam.Name == "a" {
			return errors.New("boom")
		}
		return nil
	})

	assert.Len(t, seen, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Name)
	assert.Error(t, results[0].Err)
	assert.Equal(t, "b", results[1].Name)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "c", results[2].Name)

	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "a", failed[0].Name)
}

func TestParallelRunsConcurrently(t *testing.T) {
	r, _ := newTestRig(t, "a", "b", "c")

	var wg sync.WaitGroup
	wg.Add(3)
	done := make(chan struct{})
	go func() {
		r.Parallel(context.Background(), "barrier", func(ctx context.Context, cam Camera) error {
			wg.Done()
			wg.Wait()
			return nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cameras did not run at the same time")
	}
}

func TestSequentialOrderAndDelay(t *testing.T) {
	r, _ := newTestRig(t, "b", "a")

	var order []string
	var stamps []time.Time
	results := r.Sequential(context.Background(), "test", 20*time.Millisecond, func(ctx context.Context, cam Camera) error {
		order = append(order, cam.Name)
		stamps = append(stamps, time.Now())
		return nil
	})

	assert.Equal(t, []string{"b", "a"}, order)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
}

func TestSequentialCancelled(t *testing.T) {
	r, _ := newTestRig(t, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())

	results := r.Sequential(ctx, "test", time.Hour, func(ctx context.Context, cam Camera) error {
		cancel()
		return nil
	})
	assert.Len(t, results, 1)
}

func TestPowerAndRecording(t *testing.T) {
	r, fakes := newTestRig(t, "left", "right")
	fakes["right"].ClearEncodingAfter(-1)
	ctx := context.Background()

	for _, res := range r.PowerOnAll(ctx) {
		assert.NoError(t, res.Err, res.Name)
	}
	for _, res := range r.StartRecordingAll(ctx) {
		assert.NoError(t, res.Err, res.Name)
	}
	for _, fake := range fakes {
		v, _ := fake.Status(fakecam.StatusEncoding)
		assert.Equal(t, 1, v)
	}

	// an unconfirmed stop is not a failure
	for _, res := range r.StopRecordingAll(ctx) {
		assert.NoError(t, res.Err, res.Name)
	}
	v, _ := fakes["left"].Status(fakecam.StatusEncoding)
	assert.Equal(t, 0, v)

	for _, res := range r.PowerOffAll(ctx) {
		assert.NoError(t, res.Err, res.Name)
	}
}

func TestStartRecordingAllReportsCamera(t *testing.T) {
	r, fakes := newTestRig(t, "left", "right")
	fakes["left"].IgnoreShutter()

	results := r.StartRecordingAll(context.Background())
	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "left", failed[0].Name)
	assert.True(t, errors.Is(failed[0].Err, gopro.ErrNotRecording))
}

func TestConfigureAll(t *testing.T) {
	r, fakes := newTestRig(t, "a", "b")
	fakes["a"].SetStatus(fakecam.StatusMode, 1)

	profile := Profile{
		Mode:       gopro.ModeVideo,
		Resolution: gopro.Resolution5_3K,
		FrameRate:  gopro.FrameRate60,
		Lens:       gopro.LensSuperview,
	}
	results := r.ConfigureAll(context.Background(), profile, time.Millisecond)
	require.Len(t, results, 2)
	assert.Empty(t, Failed(results))

	for name, fake := range fakes {
		mode, _ := fake.Status(fakecam.StatusMode)
		assert.Equal(t, 0, mode, name)
		res, _ := fake.Setting(fakecam.SettingResolution)
		assert.Equal(t, 100, res, name)
		fps, _ := fake.Setting(fakecam.SettingFrameRate)
		assert.Equal(t, 5, fps, name)
		lens, _ := fake.Setting(fakecam.SettingLens)
		assert.Equal(t, 3, lens, name)
	}
}

func TestConfigureStopsOnRejection(t *testing.T) {
	r, fakes := newTestRig(t, "a")
	fakes["a"].RejectSetting(fakecam.SettingFrameRate)

	results := r.ConfigureAll(context.Background(), Profile{
		Mode:       gopro.ModeVideo,
		Resolution: gopro.Resolution1080,
		FrameRate:  gopro.FrameRate240,
		Lens:       gopro.LensWide,
	}, 0)

	require.Len(t, results, 1)
	assert.True(t, gopro.IsRejected(results[0].Err))
	assert.Equal(t, 0, fakes["a"].Count("/gopro/camera/state"), "no verification after a failed step")
}

func TestStatusAll(t *testing.T) {
	r, fakes := newTestRig(t, "b", "a")
	fakes["b"].FailState(503)

	statuses := r.StatusAll(context.Background())
	require.Len(t, statuses, 2)

	assert.Equal(t, "a", statuses[0].Name)
	require.NoError(t, statuses[0].Err)
	require.NotNil(t, statuses[0].Report.Battery)
	assert.Equal(t, 85, *statuses[0].Report.Battery)

	assert.Equal(t, "b", statuses[1].Name)
	assert.Error(t, statuses[1].Err)
}
