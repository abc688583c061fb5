package gopro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/use-go/gopro/internal/fakecam"
)

const testSerial = "C3504224682139"

// fastTiming keeps the poll loops but drops the settle delays
func fastTiming() Timing {
	return Timing{
		StopFirstPoll: time.Millisecond,
		StopPoll:      time.Millisecond,
		StopAttempts:  5,
		ReadyPoll:     5 * time.Millisecond,
		EncodingPoll:  time.Millisecond,
	}
}

func newTestCamera(t *testing.T) (*fakecam.Camera, *Client) {
	t.Helper()

	cam := fakecam.New()
	t.Cleanup(cam.Close)

	client, err := NewClient(testSerial,
		WithBaseURL(cam.URL()),
		WithTimeout(2*time.Second),
		WithTiming(fastTiming()),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return cam, client
}
