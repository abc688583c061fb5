// Package rig drives several cameras at once. Power and recording commands
// fan out to every camera in parallel; configuration runs one camera at a
// time with a pause in between, since concurrent setting changes over the
// shared USB network get dropped.
package rig

import (
	"context"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/use-go/gopro"
)

// Camera is a named camera in the rig
type Camera struct {
	Name   string
	Client *gopro.Client
}

// Result is the outcome of one camera's part in a rig operation
type Result struct {
	Name string
	Err  error
}

// Rig is an ordered set of named cameras
type Rig struct {
	cameras []Camera
	log     zerolog.Logger
}

// New creates a rig. Names must be unique.
func New(logger zerolog.Logger, cameras ...Camera) (*Rig, error) {
	seen := make(map[string]bool, len(cameras))
	for _, cam := range cameras {
		if cam.Client == nil {
			return nil, errors.NotValidf("camera %q without client", cam.Name)
		}
		if seen[cam.Name] {
			return nil, errors.AlreadyExistsf("camera %q", cam.Name)
		}
		seen[cam.Name] = true
	}
	return &Rig{cameras: cameras, log: logger}, nil
}

// Cameras returns the cameras in declaration order
func (r *Rig) Cameras() []Camera {
	out := make([]Camera, len(r.cameras))
	copy(out, r.cameras)
	return out
}

// Camera looks a camera up by name
func (r *Rig) Camera(name string) (Camera, bool) {
	for _, cam := range r.cameras {
		if cam.Name == name {
			return cam, true
		}
	}
	return Camera{}, false
}

// Close releases every client's idle connections
func (r *Rig) Close() {
	for _, cam := range r.cameras {
		cam.Client.Close()
	}
}

// runLogger tags one orchestration run so interleaved camera logs can be
// grouped
func (r *Rig) runLogger(op string) zerolog.Logger {
	id, err := uuid.NewV4()
	ctx := r.log.With().Str("op", op)
	if err == nil {
		ctx = ctx.Str("run", id.String())
	}
	return ctx.Logger()
}

// Parallel runs fn on every camera at once. A failing camera does not stop
// the others. Results are sorted by camera name.
func (r *Rig) Parallel(ctx context.Context, op string, fn func(context.Context, Camera) error) []Result {
	logger := r.runLogger(op)
	results := make([]Result, len(r.cameras))

	var g errgroup.Group
	g.SetLimit(max(len(r.cameras), 1))
	for i, cam := range r.cameras {
		i, cam := i, cam
		g.Go(func() error {
			err := fn(ctx, cam)
			logResult(logger, cam.Name, err)
			results[i] = Result{Name: cam.Name, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// Sequential runs fn on one camera after another, waiting delay between
// cameras. It stops early only if ctx is cancelled.
func (r *Rig) Sequential(ctx context.Context, op string, delay time.Duration, fn func(context.Context, Camera) error) []Result {
	logger := r.runLogger(op)
	results := make([]Result, 0, len(r.cameras))

	for i, cam := range r.cameras {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(delay):
			}
		}
		err := fn(ctx, cam)
		logResult(logger, cam.Name, err)
		results = append(results, Result{Name: cam.Name, Err: err})
	}

	return results
}

func logResult(logger zerolog.Logger, name string, err error) {
	if err != nil {
		logger.Error().Str("camera", name).Err(err).Msg("failed")
		return
	}
	logger.Info().Str("camera", name).Msg("done")
}

// Failed returns the results carrying an error
func Failed(results []Result) []Result {
	var failed []Result
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}
