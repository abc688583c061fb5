package gopro

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// SetMode selects the preset group for a mode. The camera is not asked
// whether the switch took effect; fetch the state if that matters.
func (c *Client) SetMode(ctx context.Context, mode Mode) error {
	group, ok := presetGroup[mode]
	if !ok {
		return errors.NotValidf("mode %d", int(mode))
	}

	_, err := c.get(ctx, "/gopro/camera/presets/set_group", map[string]string{
		"id": strconv.Itoa(group),
	})
	if err != nil {
		return errors.Annotatef(err, "failed to set %s mode", mode)
	}

	c.log.Info().Stringer("mode", mode).Msg("mode selected")
	return nil
}

// ChangeSetting sets one setting to one option. There is no retry. A 403
// means the option is not valid for the current configuration: the frame
// rate in particular must be changed after the resolution.
func (c *Client) ChangeSetting(ctx context.Context, setting SettingID, option int) error {
	_, err := c.get(ctx, "/gopro/camera/setting", map[string]string{
		"setting": strconv.Itoa(int(setting)),
		"option":  strconv.Itoa(option),
	})
	if err != nil {
		return errors.Annotatef(err, "failed to set %s to option %d", setting, option)
	}

	c.log.Debug().
		Int("setting", int(setting)).
		Int("option", option).
		Msg("setting changed")
	return nil
}

// ApplySettings sends each change in turn, resolution first and frame rate
// right after it, stopping at the first failure. Earlier changes are not
// rolled back.
func (c *Client) ApplySettings(ctx context.Context, changes []SettingChangeRequest) error {
	ordered := make([]SettingChangeRequest, len(changes))
	copy(ordered, changes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return settingRank(ordered[i].Setting) < settingRank(ordered[j].Setting)
	})

	for _, change := range ordered {
		if err := c.ChangeSetting(ctx, change.Setting, change.Option); err != nil {
			return err
		}
	}
	return nil
}

func settingRank(id SettingID) int {
	switch id {
	case SettingResolution:
		return 0
	case SettingFrameRate:
		return 1
	}
	return 2
}

// SetResolution changes the video resolution
func (c *Client) SetResolution(ctx context.Context, res Resolution) error {
	return c.ChangeSetting(ctx, SettingResolution, int(res))
}

// SetFrameRate changes the frame rate. Set the resolution first.
func (c *Client) SetFrameRate(ctx context.Context, fps FrameRate) error {
	return c.ChangeSetting(ctx, SettingFrameRate, int(fps))
}

// SetLens changes the lens (field of view)
func (c *Client) SetLens(ctx context.Context, lens Lens) error {
	return c.ChangeSetting(ctx, SettingLens, int(lens))
}

// SetAutoPowerDown changes the auto power down delay
func (c *Client) SetAutoPowerDown(ctx context.Context, apd AutoPowerDown) error {
	return c.ChangeSetting(ctx, SettingAutoPowerDown, int(apd))
}

// ParseMode accepts "video", "photo" or "timelapse"
func ParseMode(s string) (Mode, error) {
	for mode := range presetGroup {
		if strings.EqualFold(mode.String(), s) {
			return mode, nil
		}
	}
	return 0, errors.NotValidf("mode %q", s)
}

// ParseResolution accepts a resolution name such as "4K" or "1080p"
func ParseResolution(s string) (Resolution, error) {
	for res, name := range resolutionNames {
		if strings.EqualFold(name, s) {
			return res, nil
		}
	}
	return 0, errors.NotValidf("resolution %q", s)
}

// ParseFrameRate accepts a frame rate such as "120"
func ParseFrameRate(s string) (FrameRate, error) {
	s = strings.TrimSuffix(strings.ToLower(s), "fps")
	for fps, name := range frameRateNames {
		if name == s {
			return fps, nil
		}
	}
	return 0, errors.NotValidf("frame rate %q", s)
}

// ParseLens accepts a lens name such as "linear" or "superview"
func ParseLens(s string) (Lens, error) {
	for lens, name := range lensNames {
		// 19 shares the Wide name; 0 is the option to send
		if lens == LensWideHyperSmooth {
			continue
		}
		if strings.EqualFold(name, s) {
			return lens, nil
		}
	}
	return 0, errors.NotValidf("lens %q", s)
}
