package gopro

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"
)

// GetState fetches /gopro/camera/state and records it as the last observed
// state
func (c *Client) GetState(ctx context.Context) (*StateSnapshot, error) {
	var state StateSnapshot
	if err := c.getJSON(ctx, "/gopro/camera/state", nil, &state); err != nil {
		return nil, errors.Annotate(err, "failed to get camera state")
	}

	c.mu.Lock()
	c.last = &state
	c.mu.Unlock()

	return &state, nil
}

// LastState returns the most recently fetched state, or nil. It is
// informational only; fetch again before acting on it.
func (c *Client) LastState() *StateSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// IsBusy fetches the state and reports the busy flag (status 8). A state
// without the flag is an ErrStatusUnknown error, not idle.
func (c *Client) IsBusy(ctx context.Context) (bool, error) {
	return c.statusSet(ctx, StatusBusy)
}

// IsEncoding fetches the state and reports the encoding flag (status 10),
// which is set while recording. A state without the flag is an
// ErrStatusUnknown error.
func (c *Client) IsEncoding(ctx context.Context) (bool, error) {
	return c.statusSet(ctx, StatusEncoding)
}

func (c *Client) statusSet(ctx context.Context, id StatusID) (bool, error) {
	state, err := c.GetState(ctx)
	if err != nil {
		return false, err
	}
	v, err := state.RequireStatus(id)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// StatusInt returns the integer value of a status field
func (s *StateSnapshot) StatusInt(id StatusID) (int, bool) {
	if s == nil {
		return 0, false
	}
	raw, ok := s.Status[id]
	if !ok {
		return 0, false
	}
	return rawInt(raw)
}

// SettingInt returns the selected option of a setting
func (s *StateSnapshot) SettingInt(id SettingID) (int, bool) {
	if s == nil {
		return 0, false
	}
	raw, ok := s.Settings[id]
	if !ok {
		return 0, false
	}
	return rawInt(raw)
}

// RequireStatus returns the integer value of a status field, or
// ErrStatusUnknown when the field is absent or not a number
func (s *StateSnapshot) RequireStatus(id StatusID) (int, error) {
	v, ok := s.StatusInt(id)
	if !ok {
		return 0, errors.Annotatef(ErrStatusUnknown, "status %s", id)
	}
	return v, nil
}

// StatusFlag reports whether a status field is present and non-zero. It is
// meant for display: an absent field reads as unset, so decisions go
// through RequireStatus.
func (s *StateSnapshot) StatusFlag(id StatusID) bool {
	v, ok := s.StatusInt(id)
	return ok && v != 0
}

// ModeName returns the camera mode name
func (s *StateSnapshot) ModeName() string {
	v, ok := s.StatusInt(StatusMode)
	if !ok {
		return Unknown
	}
	return Mode(v).String()
}

// ResolutionName returns the resolution name
func (s *StateSnapshot) ResolutionName() string {
	v, ok := s.SettingInt(SettingResolution)
	if !ok {
		return Unknown
	}
	return Resolution(v).String()
}

// FrameRateName returns the frame rate name
func (s *StateSnapshot) FrameRateName() string {
	v, ok := s.SettingInt(SettingFrameRate)
	if !ok {
		return Unknown
	}
	return FrameRate(v).String()
}

// LensName returns the lens name
func (s *StateSnapshot) LensName() string {
	v, ok := s.SettingInt(SettingLens)
	if !ok {
		return Unknown
	}
	return Lens(v).String()
}

// rawInt reads a JSON number or boolean as an int. Strings and objects,
// which some status fields carry, are not integers.
func rawInt(raw json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return 1, true
		}
		return 0, true
	}

	return 0, false
}
