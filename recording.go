package gopro

import (
	"context"
	"time"

	"github.com/juju/errors"
)

// StartRecording presses the shutter and then checks the camera actually
// reports recording. A 200 from the shutter only means the command was
// accepted; recording counts as started only once status 10 reads set, so
// a camera in the wrong mode returns ErrNotRecording.
func (c *Client) StartRecording(ctx context.Context) error {
	if _, err := c.get(ctx, "/gopro/camera/shutter/start", nil); err != nil {
		return errors.Annotate(err, "failed to start recording")
	}

	if err := sleep(ctx, c.Timing.StartConfirmDelay); err != nil {
		return err
	}

	state, err := c.GetState(ctx)
	if err != nil {
		return errors.Annotate(err, "failed to confirm recording")
	}
	if encoding, err := state.RequireStatus(StatusEncoding); err != nil || encoding == 0 {
		c.log.Warn().Str("mode", state.ModeName()).Msg("recording did not start, check mode")
		return errors.Trace(ErrNotRecording)
	}

	c.log.Info().Msg("recording started")
	return nil
}

// StopRecording presses the shutter stop and polls until the recording
// flag clears. Stopping is lenient on purpose, unlike StartRecording: the
// camera keeps finalizing the file in the background, so running out of
// polls returns StopUnconfirmed with a nil error rather than a failure.
// Only a rejected or unreachable shutter command is an error.
func (c *Client) StopRecording(ctx context.Context) (RecordingStopResult, error) {
	if _, err := c.get(ctx, "/gopro/camera/shutter/stop", nil); err != nil {
		return StopUnconfirmed, errors.Annotate(err, "failed to stop recording")
	}
	c.log.Info().Msg("recording stop requested")

	attempts := c.Timing.StopAttempts
	for attempt := 0; attempt < attempts; attempt++ {
		delay := c.Timing.StopPoll
		if attempt == 0 {
			delay = c.Timing.StopFirstPoll
		}
		if err := sleep(ctx, delay); err != nil {
			return StopUnconfirmed, err
		}

		stopped, busy, err := c.recordingStopped(ctx)
		if err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt+1).Msg("status check failed while stopping")
			continue
		}
		if stopped {
			c.log.Info().Msg("recording stopped and file saved")
			return StopConfirmed, nil
		}

		event := c.log.Info().Int("attempt", attempt+1).Int("of", attempts)
		if busy {
			event.Msg("encoding file")
		} else {
			event.Msg("finalizing")
		}
	}

	if stopped, _, err := c.recordingStopped(ctx); err == nil && stopped {
		c.log.Info().Msg("recording stopped")
		return StopConfirmed, nil
	}

	c.log.Warn().Msg("recording stop may still be processing in background")
	return StopUnconfirmed, nil
}

// recordingStopped reports whether status 10 reads clear. An absent flag
// is an error, so the caller keeps polling instead of assuming a stop.
func (c *Client) recordingStopped(ctx context.Context) (stopped, busy bool, err error) {
	state, err := c.GetState(ctx)
	if err != nil {
		return false, false, err
	}
	encoding, err := state.RequireStatus(StatusEncoding)
	if err != nil {
		return false, false, err
	}
	return encoding == 0, state.StatusFlag(StatusBusy), nil
}

// WaitUntilReady polls until the camera reports both status 8 and status
// 10 clear. A state missing either flag does not count as ready. It
// returns false with a nil error when timeout elapses first.
func (c *Client) WaitUntilReady(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		ready, err := c.readyState(ctx)
		if ready {
			return true, nil
		}
		if err != nil {
			c.log.Debug().Err(err).Msg("status check failed while waiting")
		}

		if err := sleep(ctx, c.Timing.ReadyPoll); err != nil {
			return false, err
		}
	}

	return false, nil
}

func (c *Client) readyState(ctx context.Context) (bool, error) {
	state, err := c.GetState(ctx)
	if err != nil {
		return false, err
	}
	busy, err := state.RequireStatus(StatusBusy)
	if err != nil {
		return false, err
	}
	encoding, err := state.RequireStatus(StatusEncoding)
	if err != nil {
		return false, err
	}
	return busy == 0 && encoding == 0, nil
}
