// Package fakecam serves an in-memory imitation of a camera's HTTP API for
// tests. It knows the state, setting, shutter, webcam, media and clock
// endpoints; anything else answers 200 with an empty JSON object.
package fakecam

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Status and setting keys the fake manipulates
const (
	StatusBusy     = 8
	StatusEncoding = 10
	StatusMode     = 43
	StatusSDFree   = 54
	StatusBattery  = 70

	SettingResolution = 2
	SettingFrameRate  = 3
	SettingLens       = 121
)

// Camera is a fake camera backed by an httptest.Server
type Camera struct {
	server *httptest.Server

	mu        sync.Mutex
	status    map[string]interface{}
	settings  map[string]interface{}
	requests  []*url.URL
	rejected  map[string]bool
	countdown map[string]int

	ignoreShutter bool
	stopPolls     int
	sinceStop     int
	stopping      bool
	stateFailure  int

	dirs   []string
	media  map[string][]string
	files  map[string][]byte
	webcam int
	camErr int
	date   string
	clock  string
}

// New starts a fake camera that is idle in video mode at 4K/120/Linear
func New() *Camera {
	c := &Camera{
		status: map[string]interface{}{
			"8":  0,
			"10": 0,
			"43": 0,
			"54": 64000,
			"70": 85,
		},
		settings: map[string]interface{}{
			"2":   1,
			"3":   1,
			"121": 4,
		},
		rejected:  make(map[string]bool),
		countdown: make(map[string]int),
		stopPolls: 1,
		media:     make(map[string][]string),
		files:     make(map[string][]byte),
		webcam:    1,
		date:      "2024_3_9",
		clock:     "14_5_7",
	}
	c.server = httptest.NewServer(http.HandlerFunc(c.serve))
	return c
}

// URL is the base URL to hand to the client
func (c *Camera) URL() string {
	return c.server.URL
}

// Close shuts the server down
func (c *Camera) Close() {
	c.server.Close()
}

// SetStatus sets a status field
func (c *Camera) SetStatus(id int, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[strconv.Itoa(id)] = v
}

// DeleteStatus removes a status field from state responses
func (c *Camera) DeleteStatus(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.status, strconv.Itoa(id))
}

// Status returns a status field
func (c *Camera) Status(id int) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.status[strconv.Itoa(id)]
	return v, ok
}

// SetSetting sets a setting field
func (c *Camera) SetSetting(id int, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings[strconv.Itoa(id)] = v
}

// DeleteSetting removes a setting field from state responses
func (c *Camera) DeleteSetting(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.settings, strconv.Itoa(id))
}

// Setting returns a setting field
func (c *Camera) Setting(id int) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.settings[strconv.Itoa(id)]
	return v, ok
}

// RejectSetting makes changes to the setting answer 403
func (c *Camera) RejectSetting(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected[strconv.Itoa(id)] = true
}

// FlagFor sets a status flag for the next polls state responses, then
// clears it
func (c *Camera) FlagFor(id, polls int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[strconv.Itoa(id)] = 1
	c.countdown[strconv.Itoa(id)] = polls
}

// IgnoreShutter makes shutter start leave the encoding flag unset
func (c *Camera) IgnoreShutter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ignoreShutter = true
}

// ClearEncodingAfter makes the encoding flag clear on the polls-th state
// response after shutter stop. A negative value never clears it.
func (c *Camera) ClearEncodingAfter(polls int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPolls = polls
}

// FailState makes state requests answer with code. Zero restores them.
func (c *Camera) FailState(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateFailure = code
}

// AddMedia adds a file to the media listing and the download endpoint
func (c *Camera) AddMedia(dir, file string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.media[dir]; !ok {
		c.dirs = append(c.dirs, dir)
	}
	c.media[dir] = append(c.media[dir], file)
	c.files[dir+"/"+file] = body
}

// SetClock sets the raw date and time strings returned by get_date_time
func (c *Camera) SetClock(date, clock string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.date, c.clock = date, clock
}

// SetWebcam sets the webcam status and error codes
func (c *Camera) SetWebcam(status, errCode int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.webcam, c.camErr = status, errCode
}

// Requests returns every request received, in order
func (c *Camera) Requests() []*url.URL {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*url.URL, len(c.requests))
	copy(out, c.requests)
	return out
}

// Queries returns the query of each request made to path
func (c *Camera) Queries(path string) []url.Values {
	var out []url.Values
	for _, u := range c.Requests() {
		if u.Path == path {
			out = append(out, u.Query())
		}
	}
	return out
}

// Count returns how many requests were made to path
func (c *Camera) Count(path string) int {
	return len(c.Queries(path))
}

// Paths returns the path of every request, in order
func (c *Camera) Paths() []string {
	var out []string
	for _, u := range c.Requests() {
		out = append(out, u.Path)
	}
	return out
}

func (c *Camera) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := *r.URL
	c.requests = append(c.requests, &u)
	q := r.URL.Query()

	switch {
	case r.URL.Path == "/gopro/camera/state":
		if c.stateFailure != 0 {
			http.Error(w, "unavailable", c.stateFailure)
			return
		}
		c.tick()
		writeJSON(w, map[string]interface{}{"status": c.status, "settings": c.settings})

	case r.URL.Path == "/gopro/camera/setting":
		id := q.Get("setting")
		if c.rejected[id] {
			http.Error(w, `{"error":"invalid option"}`, http.StatusForbidden)
			return
		}
		option, err := strconv.Atoi(q.Get("option"))
		if err != nil {
			http.Error(w, "bad option", http.StatusBadRequest)
			return
		}
		c.settings[id] = option
		writeJSON(w, struct{}{})

	case r.URL.Path == "/gopro/camera/presets/set_group":
		switch q.Get("id") {
		case "1000":
			c.status["43"] = 0
		case "1001":
			c.status["43"] = 1
		case "1002":
			c.status["43"] = 2
		}
		writeJSON(w, struct{}{})

	case r.URL.Path == "/gopro/camera/shutter/start":
		if !c.ignoreShutter {
			c.status["10"] = 1
		}
		c.stopping = false
		writeJSON(w, struct{}{})

	case r.URL.Path == "/gopro/camera/shutter/stop":
		c.stopping = true
		c.sinceStop = 0
		if c.stopPolls == 0 {
			c.status["10"] = 0
			c.stopping = false
		}
		writeJSON(w, struct{}{})

	case r.URL.Path == "/gopro/webcam/start":
		c.webcam = 2
		writeJSON(w, struct{}{})

	case r.URL.Path == "/gopro/webcam/stop":
		c.webcam = 1
		writeJSON(w, struct{}{})

	case r.URL.Path == "/gopro/webcam/status":
		writeJSON(w, map[string]int{"status": c.webcam, "error": c.camErr})

	case r.URL.Path == "/gopro/camera/get_date_time":
		writeJSON(w, map[string]string{"date": c.date, "time": c.clock})

	case r.URL.Path == "/gopro/media/list":
		writeJSON(w, c.mediaList())

	case strings.HasPrefix(r.URL.Path, "/videos/DCIM/"):
		body, ok := c.files[strings.TrimPrefix(r.URL.Path, "/videos/DCIM/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(body)

	default:
		writeJSON(w, struct{}{})
	}
}

// tick advances the countdowns by one state poll
func (c *Camera) tick() {
	for id, left := range c.countdown {
		if left <= 0 {
			c.status[id] = 0
			delete(c.countdown, id)
			continue
		}
		c.countdown[id] = left - 1
	}

	if c.stopping {
		c.sinceStop++
		if c.stopPolls >= 0 && c.sinceStop >= c.stopPolls {
			c.status["10"] = 0
			c.stopping = false
		}
	}
}

func (c *Camera) mediaList() map[string]interface{} {
	dirs := make([]map[string]interface{}, 0, len(c.dirs))
	for _, dir := range c.dirs {
		files := make([]map[string]string, 0, len(c.media[dir]))
		for i, name := range c.media[dir] {
			files = append(files, map[string]string{
				"n":   name,
				"cre": strconv.Itoa(1700000000 + i),
				"s":   strconv.Itoa(len(c.files[dir+"/"+name])),
			})
		}
		dirs = append(dirs, map[string]interface{}{"d": dir, "fs": files})
	}
	return map[string]interface{}{"id": "1", "media": dirs}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode: %v", err), http.StatusInternalServerError)
	}
}
