package gopro

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerOn(t *testing.T) {
	cam, client := newTestCamera(t)

	require.NoError(t, client.PowerOn(context.Background()))
	assert.Equal(t, []string{
		"/gopro/camera/control/wired_usb",
		"/gopro/camera/control/set_ui_controller",
		"/gopro/camera/state",
	}, cam.Paths())

	assert.Equal(t, "1", cam.Queries("/gopro/camera/control/wired_usb")[0].Get("p"))
	assert.Equal(t, "2", cam.Queries("/gopro/camera/control/set_ui_controller")[0].Get("p"))
	assert.NotNil(t, client.LastState())
}

func TestPowerOnUnreachable(t *testing.T) {
	cam, client := newTestCamera(t)
	cam.FailState(503)

	err := client.PowerOn(context.Background())
	require.Error(t, err)
	assert.Equal(t, 503, StatusCode(err))
}

func TestPowerOffAndControl(t *testing.T) {
	cam, client := newTestCamera(t)
	ctx := context.Background()

	require.NoError(t, client.PowerOff(ctx))
	require.NoError(t, client.SetControlIdle(ctx))
	require.NoError(t, client.KeepAlive(ctx))

	assert.Equal(t, "0", cam.Queries("/gopro/camera/control/wired_usb")[0].Get("p"))
	assert.Equal(t, "0", cam.Queries("/gopro/camera/control/set_ui_controller")[0].Get("p"))
	assert.Equal(t, 1, cam.Count("/gopro/camera/keep_alive"))
}

func TestGetDateTime(t *testing.T) {
	cam, client := newTestCamera(t)
	cam.SetClock("2024_3_9", "14_5_7")

	got, err := client.GetDateTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 9, 14, 5, 7, 0, time.Local), got)

	cam.SetClock("garbage", "14_5_7")
	_, err = client.GetDateTime(context.Background())
	assert.Error(t, err)
}

func TestSetDateTime(t *testing.T) {
	cam, client := newTestCamera(t)

	at := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.Local)
	require.NoError(t, client.SetDateTime(context.Background(), at))

	q := cam.Queries("/gopro/camera/set_date_time")
	require.Len(t, q, 1)
	assert.Equal(t, "2025_01_02", q[0].Get("date"))
	assert.Equal(t, "03_04_05", q[0].Get("time"))
}
