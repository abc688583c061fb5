package gopro

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/elgs/gostrgen"
	"github.com/juju/errors"
)

// ListMedia returns the camera's media listing as reported
func (c *Client) ListMedia(ctx context.Context) (*MediaList, error) {
	var list MediaList
	if err := c.getJSON(ctx, "/gopro/media/list", nil, &list); err != nil {
		return nil, errors.Annotate(err, "failed to list media")
	}
	return &list, nil
}

// LastMedia picks the most recent file: the lexically last file of the
// lexically last directory. GoPro names sort in capture order.
func LastMedia(list *MediaList) (dir, file string, ok bool) {
	if list == nil || len(list.Media) == 0 {
		return "", "", false
	}

	dirs := make([]MediaDirectory, len(list.Media))
	copy(dirs, list.Media)
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Directory < dirs[j].Directory })

	last := dirs[len(dirs)-1]
	if len(last.Files) == 0 {
		return "", "", false
	}

	names := make([]string, 0, len(last.Files))
	for _, f := range last.Files {
		names = append(names, f.Name)
	}
	sort.Strings(names)

	return last.Directory, names[len(names)-1], true
}

// MediaPath returns the download path of a media file
func MediaPath(dir, file string) string {
	return path.Join("/videos/DCIM", dir, file)
}

// DownloadLastMedia waits for encoding to finish, then downloads the most
// recent file. The extension of dest is replaced by the source file's.
// It returns the path written.
func (c *Client) DownloadLastMedia(ctx context.Context, dest string) (string, error) {
	for {
		encoding, err := c.IsEncoding(ctx)
		if err != nil {
			return "", errors.Annotate(err, "failed to check encoding")
		}
		if !encoding {
			break
		}
		c.log.Info().Msg("waiting for encoding to finish")
		if err := sleep(ctx, c.Timing.EncodingPoll); err != nil {
			return "", err
		}
	}

	list, err := c.ListMedia(ctx)
	if err != nil {
		return "", err
	}

	dir, file, ok := LastMedia(list)
	if !ok {
		return "", errors.Trace(ErrNoMedia)
	}

	return c.DownloadMedia(ctx, dir, file, OutputName(dest, file))
}

// OutputName replaces the extension of dest with the extension of source
func OutputName(dest, source string) string {
	base := strings.TrimSuffix(dest, filepath.Ext(dest))
	ext := path.Ext(source)
	if ext == "" {
		return base
	}
	return base + ext
}

// DownloadMedia streams one media file to dest. The body is written to a
// temporary file next to dest and renamed into place once complete, so a
// failed download never leaves a truncated file at dest.
func (c *Client) DownloadMedia(ctx context.Context, dir, file, dest string) (string, error) {
	mediaPath := MediaPath(dir, file)
	c.log.Info().Str("file", file).Str("dest", dest).Msg("downloading")

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(mediaPath)
	if err != nil {
		return "", errors.Annotatef(err, "failed to download %s", file)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return "", errors.Annotatef(&HTTPError{Path: mediaPath, StatusCode: resp.StatusCode()},
			"failed to download %s", file)
	}

	suffix, err := gostrgen.RandGen(8, gostrgen.LowerDigit, "", "")
	if err != nil {
		return "", errors.Trace(err)
	}
	partial := dest + ".part-" + suffix

	out, err := os.Create(partial)
	if err != nil {
		return "", errors.Annotate(err, "failed to create output file")
	}

	// Hide ReadFrom so the copy goes through the fixed-size buffer
	written, err := io.CopyBuffer(struct{ io.Writer }{out}, body, make([]byte, DownloadChunkSize))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		return "", errors.Annotatef(err, "failed to write %s", dest)
	}

	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return "", errors.Annotatef(err, "failed to move download into %s", dest)
	}

	c.log.Info().Str("dest", dest).Int64("bytes", written).Msg("file downloaded")
	return dest, nil
}
