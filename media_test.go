package gopro

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-go/gopro/internal/fakecam"
)

func TestLastMedia(t *testing.T) {
	testCases := []struct {
		name string
		list *MediaList
		dir  string
		file string
		ok   bool
	}{
		{"nil", nil, "", "", false},
		{"empty", &MediaList{}, "", "", false},
		{
			name: "last directory empty",
			list: &MediaList{Media: []MediaDirectory{
				{Directory: "100GOPRO", Files: []MediaFile{{Name: "GX010001.MP4"}}},
				{Directory: "101GOPRO"},
			}},
		},
		{
			name: "lexically last of each",
			list: &MediaList{Media: []MediaDirectory{
				{Directory: "101GOPRO", Files: []MediaFile{{Name: "GX010010.MP4"}, {Name: "GX010012.MP4"}, {Name: "GX010011.MP4"}}},
				{Directory: "100GOPRO", Files: []MediaFile{{Name: "GX010099.MP4"}}},
			}},
			dir:  "101GOPRO",
			file: "GX010012.MP4",
			ok:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir, file, ok := LastMedia(tc.list)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.dir, dir)
			assert.Equal(t, tc.file, file)
		})
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "out/clip.MP4", OutputName("out/clip.mp4", "GX010001.MP4"))
	assert.Equal(t, "out/clip.JPG", OutputName("out/clip", "GOPR0001.JPG"))
	assert.Equal(t, "clip", OutputName("clip.mov", "NOEXT"))
	assert.Equal(t, "/videos/DCIM/100GOPRO/GX010001.MP4", MediaPath("100GOPRO", "GX010001.MP4"))
}

func TestListMedia(t *testing.T) {
	cam, client := newTestCamera(t)
	cam.AddMedia("100GOPRO", "GX010001.MP4", []byte("abc"))

	list, err := client.ListMedia(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Media, 1)
	assert.Equal(t, "100GOPRO", list.Media[0].Directory)
	require.Len(t, list.Media[0].Files, 1)
	assert.Equal(t, "GX010001.MP4", list.Media[0].Files[0].Name)
	assert.Equal(t, "3", list.Media[0].Files[0].Size)
}

func TestDownloadLastMedia(t *testing.T) {
	cam, client := newTestCamera(t)
	cam.AddMedia("100GOPRO", "GX010001.MP4", []byte("old"))
	cam.AddMedia("101GOPRO", "GX010003.MP4", []byte("newest"))
	cam.AddMedia("101GOPRO", "GX010002.MP4", []byte("older"))
	cam.FlagFor(fakecam.StatusEncoding, 2)

	dir := t.TempDir()
	path, err := client.DownloadLastMedia(context.Background(), filepath.Join(dir, "take1.mov"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "take1.MP4"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "newest", string(data))

	// waited for encoding before listing
	assert.Equal(t, 3, cam.Count("/gopro/camera/state"))
	assert.Equal(t, []string{"/videos/DCIM/101GOPRO/GX010003.MP4"}, downloads(cam))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no partial files left behind")
}

func TestDownloadLastMediaLargeFile(t *testing.T) {
	cam, client := newTestCamera(t)
	body := make([]byte, 3*DownloadChunkSize+17)
	for i := range body {
		body[i] = byte(i % 251)
	}
	cam.AddMedia("100GOPRO", "GX010001.MP4", body)

	path, err := client.DownloadLastMedia(context.Background(), filepath.Join(t.TempDir(), "clip"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestDownloadLastMediaNoMedia(t *testing.T) {
	_, client := newTestCamera(t)

	_, err := client.DownloadLastMedia(context.Background(), filepath.Join(t.TempDir(), "clip.mp4"))
	assert.True(t, errors.Is(err, ErrNoMedia))
}

func TestDownloadLastMediaEncodingUnknown(t *testing.T) {
	cam, client := newTestCamera(t)
	cam.AddMedia("100GOPRO", "GX010001.MP4", []byte("clip"))
	cam.DeleteStatus(fakecam.StatusEncoding)
	dir := t.TempDir()

	_, err := client.DownloadLastMedia(context.Background(), filepath.Join(dir, "clip.mp4"))
	assert.True(t, errors.Is(err, ErrStatusUnknown))
	assert.Empty(t, downloads(cam))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadMediaMissingFile(t *testing.T) {
	_, client := newTestCamera(t)
	dir := t.TempDir()

	_, err := client.DownloadMedia(context.Background(), "100GOPRO", "GX019999.MP4", filepath.Join(dir, "clip.MP4"))
	require.Error(t, err)
	assert.Equal(t, 404, StatusCode(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func downloads(cam *fakecam.Camera) []string {
	var out []string
	for _, p := range cam.Paths() {
		if filepath.Dir(filepath.Dir(p)) == "/videos/DCIM" {
			out = append(out, p)
		}
	}
	return out
}
