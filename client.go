package gopro

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
)

// Client controls one camera. Operations are meant to be called from a
// single goroutine per camera; separate Clients share nothing.
type Client struct {
	serial  string
	host    string
	baseURL string

	http *resty.Client
	log  zerolog.Logger

	// Timing holds the poll delays; tests shrink these
	Timing Timing

	mu     sync.RWMutex
	last   *StateSnapshot
	stream streamRequest
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	timeout    time.Duration
	logger     zerolog.Logger
	baseURL    string
	httpClient *http.Client
	timing     *Timing
}

// WithTimeout sets a per-request timeout. Zero leaves the transport default.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) { o.timeout = timeout }
}

// WithLogger sets the logger used for progress and debug output
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithBaseURL overrides the address derived from the serial number
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) { o.baseURL = baseURL }
}

// WithHTTPClient uses the given http.Client instead of a dedicated transport
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = httpClient }
}

// WithTiming replaces the default poll delays
func WithTiming(timing Timing) Option {
	return func(o *clientOptions) { o.timing = &timing }
}

// DeriveHost computes the camera's USB network address from its serial
// number: 172.2<sn[-3]>.1<sn[-2:]>.51
func DeriveHost(serial string) (string, error) {
	if len(serial) < 3 {
		return "", errors.Annotatef(ErrInvalidSerial, "serial %q", serial)
	}
	n := len(serial)
	return fmt.Sprintf("172.2%s.1%s.51", serial[n-3:n-2], serial[n-2:]), nil
}

// NewClient creates a client for the camera with the given serial number
func NewClient(serial string, opts ...Option) (*Client, error) {
	options := clientOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}

	host, err := DeriveHost(serial)
	if err != nil {
		return nil, err
	}
	baseURL := "http://" + host

	if options.baseURL != "" {
		u, err := url.Parse(options.baseURL)
		if err != nil || u.Host == "" {
			return nil, errors.Errorf("invalid base URL %q", options.baseURL)
		}
		baseURL = options.baseURL
		host = u.Hostname()
	}

	logger := options.logger.With().
		Str("serial", serial).
		Str("host", host).
		Logger()

	timing := DefaultTiming()
	if options.timing != nil {
		timing = *options.timing
	}

	return &Client{
		serial:  serial,
		host:    host,
		baseURL: baseURL,
		http:    newTransport(baseURL, options.timeout, options.httpClient, logger),
		log:     logger,
		Timing:  timing,
	}, nil
}

// Serial returns the camera serial number
func (c *Client) Serial() string {
	return c.serial
}

// Host returns the camera host address
func (c *Client) Host() string {
	return c.host
}

// BaseURL returns the base URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections held by the client
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// GetCameraInfo returns a formatted string with what the client last saw
func (c *Client) GetCameraInfo() string {
	info := fmt.Sprintf("Camera: %s\n", c.serial)
	info += fmt.Sprintf("  Address: %s\n", c.baseURL)

	state := c.LastState()
	if state == nil {
		return info + "  State: not fetched\n"
	}

	if battery, ok := state.StatusInt(StatusBattery); ok {
		info += fmt.Sprintf("  Battery: %d%%\n", battery)
	}
	info += fmt.Sprintf("  Mode: %s\n", state.ModeName())
	info += fmt.Sprintf("  Video: %s @ %s fps, %s\n",
		state.ResolutionName(), state.FrameRateName(), state.LensName())

	return info
}
