// Package gopro provides a Go client for controlling GoPro cameras over the
// USB network interface using the Open GoPro HTTP API
package gopro

import (
	"encoding/json"
	"fmt"
	"time"
)

// SettingID identifies a camera setting in the state response
type SettingID int

// Known setting IDs
const (
	SettingResolution    SettingID = 2
	SettingFrameRate     SettingID = 3
	SettingAutoPowerDown SettingID = 59
	SettingLens          SettingID = 121
)

var settingNames = map[SettingID]string{
	SettingResolution:    "resolution",
	SettingFrameRate:     "frame rate",
	SettingAutoPowerDown: "auto power down",
	SettingLens:          "lens",
}

func (id SettingID) String() string {
	if name, ok := settingNames[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown setting %d", int(id))
}

// StatusID identifies a camera status field in the state response
type StatusID int

// Known status IDs
const (
	StatusBusy     StatusID = 8
	StatusEncoding StatusID = 10
	StatusMode     StatusID = 43
	StatusSDFreeMB StatusID = 54
	StatusBattery  StatusID = 70
)

var statusNames = map[StatusID]string{
	StatusBusy:     "busy",
	StatusEncoding: "encoding",
	StatusMode:     "mode",
	StatusSDFreeMB: "sd free (MB)",
	StatusBattery:  "battery (%)",
}

func (id StatusID) String() string {
	if name, ok := statusNames[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown status %d", int(id))
}

// Unknown is returned by name lookups when the camera did not report the field
const Unknown = "Unknown"

func unknownOption(v int) string {
	return fmt.Sprintf("%s (%d)", Unknown, v)
}

// Mode is the camera mode reported in status 43
type Mode int

const (
	ModeVideo     Mode = 0
	ModePhoto     Mode = 1
	ModeTimelapse Mode = 2
)

// presetGroup maps a mode to the preset group selected by SetMode
var presetGroup = map[Mode]int{
	ModeVideo:     1000,
	ModePhoto:     1001,
	ModeTimelapse: 1002,
}

func (m Mode) String() string {
	switch m {
	case ModeVideo:
		return "Video"
	case ModePhoto:
		return "Photo"
	case ModeTimelapse:
		return "Timelapse"
	}
	return unknownOption(int(m))
}

// Resolution is an option of SettingResolution
type Resolution int

// Resolution options (Hero 12 Black option IDs)
const (
	Resolution4K      Resolution = 1
	Resolution2_7K    Resolution = 4
	Resolution2_7K4x3 Resolution = 6
	Resolution1440    Resolution = 7
	Resolution1080    Resolution = 9
	Resolution4K4x3   Resolution = 18
	Resolution5K      Resolution = 24
	Resolution5K4x3   Resolution = 25
	Resolution5_3K    Resolution = 100
)

var resolutionNames = map[Resolution]string{
	Resolution4K:      "4K",
	Resolution2_7K:    "2.7K",
	Resolution2_7K4x3: "2.7K 4:3",
	Resolution1440:    "1440p",
	Resolution1080:    "1080p",
	Resolution4K4x3:   "4K 4:3",
	Resolution5K:      "5K",
	Resolution5K4x3:   "5K 4:3",
	Resolution5_3K:    "5.3K",
}

func (r Resolution) String() string {
	if name, ok := resolutionNames[r]; ok {
		return name
	}
	return unknownOption(int(r))
}

// FrameRate is an option of SettingFrameRate
type FrameRate int

const (
	FrameRate240 FrameRate = 0
	FrameRate120 FrameRate = 1
	FrameRate100 FrameRate = 2
	FrameRate60  FrameRate = 5
	FrameRate50  FrameRate = 6
	FrameRate30  FrameRate = 8
	FrameRate25  FrameRate = 9
	FrameRate24  FrameRate = 10
	FrameRate200 FrameRate = 13
)

var frameRateNames = map[FrameRate]string{
	FrameRate240: "240",
	FrameRate120: "120",
	FrameRate100: "100",
	FrameRate60:  "60",
	FrameRate50:  "50",
	FrameRate30:  "30",
	FrameRate25:  "25",
	FrameRate24:  "24",
	FrameRate200: "200",
}

func (f FrameRate) String() string {
	if name, ok := frameRateNames[f]; ok {
		return name
	}
	return unknownOption(int(f))
}

// Lens is an option of SettingLens (field of view)
type Lens int

const (
	LensWide            Lens = 0
	LensNarrow          Lens = 2
	LensSuperview       Lens = 3
	LensLinear          Lens = 4
	LensMaxSuperview    Lens = 7
	LensLinearHorizon   Lens = 8
	LensWideHyperSmooth Lens = 19 // reported by some firmware for Wide
)

var lensNames = map[Lens]string{
	LensWide:            "Wide",
	LensNarrow:          "Narrow",
	LensSuperview:       "Superview",
	LensLinear:          "Linear",
	LensMaxSuperview:    "Max Superview",
	LensLinearHorizon:   "Linear + Horizon",
	LensWideHyperSmooth: "Wide",
}

func (l Lens) String() string {
	if name, ok := lensNames[l]; ok {
		return name
	}
	return unknownOption(int(l))
}

// AutoPowerDown is an option of SettingAutoPowerDown
type AutoPowerDown int

const (
	AutoPowerDownNever AutoPowerDown = 0
	AutoPowerDown5Min  AutoPowerDown = 4
)

func (a AutoPowerDown) String() string {
	switch a {
	case AutoPowerDownNever:
		return "Never"
	case AutoPowerDown5Min:
		return "5 min"
	}
	return unknownOption(int(a))
}

// SettingChangeRequest is one independent (setting, option) change
type SettingChangeRequest struct {
	Setting SettingID
	Option  int
}

// StateSnapshot is the response of /gopro/camera/state. Both maps may be
// sparse; absent keys mean "unknown", never zero.
type StateSnapshot struct {
	Status   map[StatusID]json.RawMessage  `json:"status"`
	Settings map[SettingID]json.RawMessage `json:"settings"`
}

// RecordingStopResult tells whether the camera was observed to stop recording
type RecordingStopResult int

const (
	// StopConfirmed means the recording flag was observed cleared
	StopConfirmed RecordingStopResult = iota
	// StopUnconfirmed means the stop command was accepted but the camera
	// still reported recording when the poll budget ran out
	StopUnconfirmed
)

func (r RecordingStopResult) String() string {
	if r == StopConfirmed {
		return "confirmed"
	}
	return "unconfirmed"
}

// StreamResolution is the webcam/livestream resolution option
type StreamResolution int

const (
	Stream480p  StreamResolution = 4
	Stream720p  StreamResolution = 7
	Stream1080p StreamResolution = 12
)

var streamResolutionNames = map[StreamResolution]string{
	Stream480p:  "480p",
	Stream720p:  "720p",
	Stream1080p: "1080p",
}

func (r StreamResolution) String() string {
	if name, ok := streamResolutionNames[r]; ok {
		return name
	}
	return unknownOption(int(r))
}

// ParseStreamResolution accepts "480p", "720p" or "1080p"
func ParseStreamResolution(s string) (StreamResolution, bool) {
	for res, name := range streamResolutionNames {
		if name == s {
			return res, true
		}
	}
	return 0, false
}

// StreamFOV is the webcam/livestream field of view option
type StreamFOV int

const (
	StreamFOVWide      StreamFOV = 0
	StreamFOVNarrow    StreamFOV = 2
	StreamFOVSuperview StreamFOV = 3
	StreamFOVLinear    StreamFOV = 4
)

var streamFOVNames = map[StreamFOV]string{
	StreamFOVWide:      "wide",
	StreamFOVNarrow:    "narrow",
	StreamFOVSuperview: "superview",
	StreamFOVLinear:    "linear",
}

func (f StreamFOV) String() string {
	if name, ok := streamFOVNames[f]; ok {
		return name
	}
	return unknownOption(int(f))
}

// ParseStreamFOV accepts "wide", "narrow", "superview" or "linear"
func ParseStreamFOV(s string) (StreamFOV, bool) {
	for fov, name := range streamFOVNames {
		if name == s {
			return fov, true
		}
	}
	return 0, false
}

// LivestreamStatus is a view of the webcam/livestream state
type LivestreamStatus struct {
	Active     bool   `json:"active"`
	Resolution string `json:"resolution"`
	FOV        string `json:"fov"`
	StatusCode int    `json:"status_code"`
	Error      int    `json:"error"`
}

// MediaList is the response of /gopro/media/list
type MediaList struct {
	ID    string           `json:"id"`
	Media []MediaDirectory `json:"media"`
}

// MediaDirectory is one DCIM directory and its files
type MediaDirectory struct {
	Directory string      `json:"d"`
	Files     []MediaFile `json:"fs"`
}

// MediaFile is one file entry in a media directory
type MediaFile struct {
	Name     string `json:"n"`
	Created  string `json:"cre,omitempty"`
	Modified string `json:"mod,omitempty"`
	Size     string `json:"s,omitempty"`
}

// Timing holds the fixed delays used by the polling operations
type Timing struct {
	WiredControlSettle time.Duration // after enabling wired control
	ControlSettle      time.Duration // after switching to external control
	StartConfirmDelay  time.Duration // shutter start to recording check
	StopFirstPoll      time.Duration // shutter stop to first check
	StopPoll           time.Duration // between later stop checks
	StopAttempts       int
	ReadyPoll          time.Duration // WaitUntilReady interval
	EncodingPoll       time.Duration // DownloadLastMedia wait interval
	StreamStartSettle  time.Duration
	StreamStopSettle   time.Duration
}

// DefaultTiming returns the delays the camera firmware is known to need
func DefaultTiming() Timing {
	return Timing{
		WiredControlSettle: 1 * time.Second,
		ControlSettle:      500 * time.Millisecond,
		StartConfirmDelay:  500 * time.Millisecond,
		StopFirstPoll:      1 * time.Second,
		StopPoll:           500 * time.Millisecond,
		StopAttempts:       5,
		ReadyPoll:          500 * time.Millisecond,
		EncodingPoll:       1 * time.Second,
		StreamStartSettle:  2 * time.Second,
		StreamStopSettle:   1 * time.Second,
	}
}

// Default configuration
const (
	PreviewPort         = 8554
	DownloadChunkSize   = 8192
	DefaultReadyTimeout = 30 * time.Second
	DefaultPollInterval = 1 * time.Second
)
