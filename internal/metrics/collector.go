// Package metrics exports camera status as Prometheus gauges
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/use-go/gopro/rig"
)

var (
	upDesc = prometheus.NewDesc(
		"gopro_up", "Whether the camera answered the last state request.", []string{"camera", "serial"}, nil,
	)
	batteryDesc = prometheus.NewDesc(
		"gopro_battery_percent", "Battery level reported by the camera.", []string{"camera"}, nil,
	)
	recordingDesc = prometheus.NewDesc(
		"gopro_recording", "Whether the camera is recording (status 10).", []string{"camera"}, nil,
	)
	busyDesc = prometheus.NewDesc(
		"gopro_busy", "Whether the camera is busy (status 8).", []string{"camera"}, nil,
	)
	sdFreeDesc = prometheus.NewDesc(
		"gopro_sd_free_megabytes", "Free space on the SD card.", []string{"camera"}, nil,
	)
	settingDesc = prometheus.NewDesc(
		"gopro_setting_info", "Current video settings.", []string{"camera", "resolution", "frame_rate", "lens"}, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"gopro_scrape_duration_seconds", "Time taken to poll every camera.", nil, nil,
	)
)

// DefaultScrapeTimeout bounds one scrape of the whole rig
const DefaultScrapeTimeout = 10 * time.Second

// Collector polls every camera of a rig on each scrape
type Collector struct {
	Rig     *rig.Rig
	Timeout time.Duration
	Log     zerolog.Logger

	mu sync.Mutex
}

// NewCollector creates a collector bounding each scrape by timeout
func NewCollector(r *rig.Rig, timeout time.Duration, logger zerolog.Logger) *Collector {
	return &Collector{Rig: r, Timeout: timeout, Log: logger}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- batteryDesc
	ch <- recordingDesc
	ch <- busyDesc
	ch <- sdFreeDesc
	ch <- settingDesc
	ch <- scrapeDurationDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()

	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	serials := make(map[string]string)
	for _, cam := range c.Rig.Cameras() {
		serials[cam.Name] = cam.Client.Serial()
	}

	for _, st := range c.Rig.StatusAll(ctx) {
		if st.Err != nil {
			c.Log.Warn().Str("camera", st.Name).Err(st.Err).Msg("scrape failed")
			ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 0, st.Name, serials[st.Name])
			continue
		}
		ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 1, st.Name, serials[st.Name])

		report := st.Report
		if report.Battery != nil {
			ch <- prometheus.MustNewConstMetric(batteryDesc, prometheus.GaugeValue, float64(*report.Battery), st.Name)
		}
		if report.SDFreeMB != nil {
			ch <- prometheus.MustNewConstMetric(sdFreeDesc, prometheus.GaugeValue, float64(*report.SDFreeMB), st.Name)
		}
		ch <- prometheus.MustNewConstMetric(recordingDesc, prometheus.GaugeValue, boolValue(report.Recording), st.Name)
		ch <- prometheus.MustNewConstMetric(busyDesc, prometheus.GaugeValue, boolValue(report.Busy), st.Name)
		ch <- prometheus.MustNewConstMetric(settingDesc, prometheus.GaugeValue, 1,
			st.Name, report.Resolution, report.FrameRate, report.Lens)
	}

	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
