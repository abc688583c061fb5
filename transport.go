package gopro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
)

// Sentinel errors reported by client operations
const (
	ErrInvalidSerial = errors.ConstError("serial number needs at least 3 characters")
	ErrNotRecording  = errors.ConstError("camera did not report recording")
	ErrNoMedia       = errors.ConstError("no media found on the camera")
	ErrStatusUnknown = errors.ConstError("camera state does not report the status")
)

// HTTPError is returned when the camera answers with a non-2xx status
type HTTPError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d on %s", e.StatusCode, e.Path)
	}
	return fmt.Sprintf("HTTP %d on %s: %s", e.StatusCode, e.Path, e.Body)
}

// IsRejected reports whether err is the camera refusing a request, which
// for settings usually means the option is incompatible with the current
// configuration
func IsRejected(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusForbidden
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// newTransport builds the resty client. The camera's HTTP server is slow to
// accept connections, so a single kept-alive connection is reused.
func newTransport(baseURL string, timeout time.Duration, httpClient *http.Client, logger zerolog.Logger) *resty.Client {
	var r *resty.Client
	if httpClient != nil {
		r = resty.NewWithClient(httpClient)
	} else {
		r = resty.New()
		r.SetTransport(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		})
	}
	r.SetBaseURL(baseURL)
	r.SetHeader("Accept", "application/json")
	r.SetLogger(restyLogger{logger})
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	return r
}

// restyLogger routes resty's internal messages into zerolog
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }

// get issues a GET against the camera and turns non-2xx answers into *HTTPError
func (c *Client) get(ctx context.Context, path string, query map[string]string) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	start := time.Now()
	resp, err := req.Get(path)
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("request failed")
		return nil, errors.Annotatef(err, "GET %s", path)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("took", time.Since(start)).
		Msg("camera responded")

	// Some firmware answers errors with an empty body, some with JSON
	if resp.IsError() {
		return resp, &HTTPError{
			Path:       path,
			StatusCode: resp.StatusCode(),
			Body:       truncate(resp.String(), 200),
		}
	}

	return resp, nil
}

// getJSON issues a GET and decodes the JSON body into out
func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, out interface{}) error {
	resp, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Annotatef(err, "decode %s", path)
	}
	return nil
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
