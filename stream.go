package gopro

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/juju/errors"
)

// webcam status values reported by /gopro/webcam/status
const (
	webcamHighPowerPreview = 2
	webcamLowPowerPreview  = 3
)

// streamRequest remembers what the last StartPreview/StartLivestream asked
// for, since the camera does not report it back
type streamRequest struct {
	target     string
	resolution StreamResolution
	fov        StreamFOV
	set        bool
}

// StreamURL returns the UDP preview stream address
func (c *Client) StreamURL() string {
	return fmt.Sprintf("udp://%s:%d", c.host, PreviewPort)
}

// StartPreview starts webcam mode for a local preview stream and returns
// the UDP address to read it from
func (c *Client) StartPreview(ctx context.Context) (string, error) {
	c.log.Info().Msg("starting preview")

	if _, err := c.get(ctx, "/gopro/webcam/start", nil); err != nil {
		return "", errors.Annotate(err, "failed to start preview")
	}
	if err := sleep(ctx, c.Timing.StreamStartSettle); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.stream = streamRequest{set: true}
	c.mu.Unlock()

	streamURL := c.StreamURL()
	c.log.Info().Str("url", streamURL).Msg("preview started")
	return streamURL, nil
}

// StopPreview stops webcam mode
func (c *Client) StopPreview(ctx context.Context) error {
	return errors.Annotate(c.stopWebcam(ctx), "failed to stop preview")
}

// StartLivestream starts webcam mode pushing to target and returns the
// target unchanged. The target is passed to the camera as given.
func (c *Client) StartLivestream(ctx context.Context, target string, res StreamResolution, fov StreamFOV) (string, error) {
	c.log.Info().
		Str("target", redactTarget(target)).
		Stringer("resolution", res).
		Stringer("fov", fov).
		Msg("starting livestream")

	_, err := c.get(ctx, "/gopro/webcam/start", map[string]string{
		"res": strconv.Itoa(int(res)),
		"fov": strconv.Itoa(int(fov)),
		"url": target,
	})
	if err != nil {
		return "", errors.Annotate(err, "failed to start livestream")
	}
	if err := sleep(ctx, c.Timing.StreamStartSettle); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.stream = streamRequest{target: target, resolution: res, fov: fov, set: true}
	c.mu.Unlock()

	c.log.Info().Msg("livestream started")
	return target, nil
}

// StopLivestream stops webcam mode
func (c *Client) StopLivestream(ctx context.Context) error {
	return errors.Annotate(c.stopWebcam(ctx), "failed to stop livestream")
}

func (c *Client) stopWebcam(ctx context.Context) error {
	if _, err := c.get(ctx, "/gopro/webcam/stop", nil); err != nil {
		c.log.Warn().Err(err).Msg("webcam stop failed")
		return err
	}
	if err := sleep(ctx, c.Timing.StreamStopSettle); err != nil {
		return err
	}

	c.mu.Lock()
	c.stream = streamRequest{}
	c.mu.Unlock()

	c.log.Info().Msg("webcam stopped")
	return nil
}

// GetLivestreamStatus reports whether webcam streaming is active, along
// with the resolution and FOV last requested
func (c *Client) GetLivestreamStatus(ctx context.Context) (LivestreamStatus, error) {
	var ws struct {
		Status *int `json:"status"`
		Error  int  `json:"error"`
	}

	status := LivestreamStatus{Resolution: Unknown, FOV: Unknown}
	if err := c.getJSON(ctx, "/gopro/webcam/status", nil, &ws); err != nil {
		return status, errors.Annotate(err, "failed to get livestream status")
	}

	if ws.Status != nil {
		status.StatusCode = *ws.Status
		status.Active = ws.Error == 0 &&
			(*ws.Status == webcamHighPowerPreview || *ws.Status == webcamLowPowerPreview)
	}
	status.Error = ws.Error

	c.mu.RLock()
	req := c.stream
	c.mu.RUnlock()

	if req.set && req.target != "" {
		status.Resolution = req.resolution.String()
		status.FOV = req.fov.String()
	}

	return status, nil
}

// redactTarget hides credentials in target for logging
func redactTarget(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "<unparsed>"
	}
	return u.Redacted()
}
