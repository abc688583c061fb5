package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/internal/fakecam"
	"github.com/use-go/gopro/rig"
)

func newCollector(t *testing.T) (*Collector, map[string]*fakecam.Camera) {
	t.Helper()

	serials := map[string]string{"a": "C3504224696431", "b": "C3504224677229"}
	fakes := make(map[string]*fakecam.Camera)
	var cameras []rig.Camera
	for _, name := range []string{"a", "b"} {
		fake := fakecam.New()
		t.Cleanup(fake.Close)
		client, err := gopro.NewClient(serials[name], gopro.WithBaseURL(fake.URL()))
		require.NoError(t, err)
		fakes[name] = fake
		cameras = append(cameras, rig.Camera{Name: name, Client: client})
	}

	r, err := rig.New(zerolog.Nop(), cameras...)
	require.NoError(t, err)
	return NewCollector(r, time.Second, zerolog.Nop()), fakes
}

func TestCollect(t *testing.T) {
	c, fakes := newCollector(t)
	fakes["a"].SetStatus(fakecam.StatusEncoding, 1)
	fakes["b"].FailState(503)

	expected := `
# HELP gopro_battery_percent Battery level reported by the camera.
# TYPE gopro_battery_percent gauge
gopro_battery_percent{camera="a"} 85
# HELP gopro_recording Whether the camera is recording (status 10).
# TYPE gopro_recording gauge
gopro_recording{camera="a"} 1
# HELP gopro_setting_info Current video settings.
# TYPE gopro_setting_info gauge
gopro_setting_info{camera="a",frame_rate="120",lens="Linear",resolution="4K"} 1
# HELP gopro_up Whether the camera answered the last state request.
# TYPE gopro_up gauge
gopro_up{camera="a",serial="C3504224696431"} 1
gopro_up{camera="b",serial="C3504224677229"} 0
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"gopro_up", "gopro_battery_percent", "gopro_recording", "gopro_setting_info")
	assert.NoError(t, err)
}

func TestCollectSkipsMissingGauges(t *testing.T) {
	c, fakes := newCollector(t)
	fakes["a"].DeleteStatus(fakecam.StatusBattery)
	fakes["b"].DeleteStatus(fakecam.StatusBattery)

	assert.Equal(t, 0, testutil.CollectAndCount(c, "gopro_battery_percent"))
	assert.Equal(t, 2, testutil.CollectAndCount(c, "gopro_sd_free_megabytes"))
	assert.Equal(t, 1, testutil.CollectAndCount(c, "gopro_scrape_duration_seconds"))
}
