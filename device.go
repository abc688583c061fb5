package gopro

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
)

// PowerOn wakes the camera for wired control: it enables wired USB control,
// switches the UI controller to external, then checks the camera answers a
// state request.
func (c *Client) PowerOn(ctx context.Context) error {
	c.log.Info().Msg("powering on")

	if err := c.EnableWiredControl(ctx); err != nil {
		return errors.Annotate(err, "power on")
	}
	if err := sleep(ctx, c.Timing.WiredControlSettle); err != nil {
		return err
	}

	// Settings changes are refused until the camera is under external control
	if err := c.SetControlExternal(ctx); err != nil {
		return errors.Annotate(err, "power on")
	}
	if err := sleep(ctx, c.Timing.ControlSettle); err != nil {
		return err
	}

	if _, err := c.GetState(ctx); err != nil {
		return errors.Annotate(err, "power on")
	}

	c.log.Info().Msg("camera powered on and connected")
	return nil
}

// PowerOff disables wired control, which puts the camera to sleep
func (c *Client) PowerOff(ctx context.Context) error {
	if err := c.DisableWiredControl(ctx); err != nil {
		return errors.Annotate(err, "power off")
	}
	c.log.Info().Msg("camera in sleep mode")
	return nil
}

// EnableWiredControl enables control over the USB link
func (c *Client) EnableWiredControl(ctx context.Context) error {
	_, err := c.get(ctx, "/gopro/camera/control/wired_usb", map[string]string{"p": "1"})
	return errors.Annotate(err, "failed to enable wired control")
}

// DisableWiredControl disables control over the USB link
func (c *Client) DisableWiredControl(ctx context.Context) error {
	_, err := c.get(ctx, "/gopro/camera/control/wired_usb", map[string]string{"p": "0"})
	return errors.Annotate(err, "failed to disable wired control")
}

// SetControlIdle hands the UI back to the camera
func (c *Client) SetControlIdle(ctx context.Context) error {
	_, err := c.get(ctx, "/gopro/camera/control/set_ui_controller", map[string]string{"p": "0"})
	return errors.Annotate(err, "failed to set idle control")
}

// SetControlExternal claims the UI for this client
func (c *Client) SetControlExternal(ctx context.Context) error {
	_, err := c.get(ctx, "/gopro/camera/control/set_ui_controller", map[string]string{"p": "2"})
	return errors.Annotate(err, "failed to set external control")
}

// KeepAlive resets the camera's auto power down timer
func (c *Client) KeepAlive(ctx context.Context) error {
	_, err := c.get(ctx, "/gopro/camera/keep_alive", nil)
	return errors.Annotate(err, "keep alive")
}

// GetDateTime reads the camera clock
func (c *Client) GetDateTime(ctx context.Context) (time.Time, error) {
	var dt struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := c.getJSON(ctx, "/gopro/camera/get_date_time", nil, &dt); err != nil {
		return time.Time{}, errors.Annotate(err, "failed to get date/time")
	}

	// Fields are underscore separated and not zero padded, e.g. 2024_3_9
	var year, month, day, hour, minute, second int
	if _, err := fmt.Sscanf(dt.Date, "%d_%d_%d", &year, &month, &day); err != nil {
		return time.Time{}, errors.Annotatef(err, "parse date %q", dt.Date)
	}
	if _, err := fmt.Sscanf(dt.Time, "%d_%d_%d", &hour, &minute, &second); err != nil {
		return time.Time{}, errors.Annotatef(err, "parse time %q", dt.Time)
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), nil
}

// SetDateTime sets the camera clock
func (c *Client) SetDateTime(ctx context.Context, t time.Time) error {
	_, err := c.get(ctx, "/gopro/camera/set_date_time", map[string]string{
		"date": t.Format("2006_01_02"),
		"time": t.Format("15_04_05"),
	})
	return errors.Annotate(err, "failed to set date/time")
}

// SyncDateTime sets the camera clock to the local time
func (c *Client) SyncDateTime(ctx context.Context) error {
	return c.SetDateTime(ctx, time.Now())
}
