package m3u8

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(src LineSource) []string {
	var lines []string
	for {
		line, ok := src.Next()
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}

type trackingReader struct {
	io.Reader
	closed int
}

func (r *trackingReader) Close() error {
	r.closed++
	return nil
}

func TestStringSource(t *testing.T) {
	src := NewStringSource("#EXTM3U\r\n  a.ts  \n\nb.ts")
	assert.Equal(t, []string{"#EXTM3U", "a.ts", "", "b.ts"}, readAll(src))
	assert.NoError(t, src.Err())
	assert.True(t, src.Closed())
	assert.Equal(t, 4, src.Number())

	line, ok := src.Next()
	assert.False(t, ok)
	assert.Empty(t, line)
}

func TestReaderSourceClosesOnExhaustion(t *testing.T) {
	r := &trackingReader{Reader: strings.NewReader("a\nb\n")}
	src := NewReaderSource(r)
	assert.Equal(t, []string{"a", "b"}, readAll(src))
	assert.Equal(t, 1, r.closed)

	require.NoError(t, src.Close())
	assert.Equal(t, 1, r.closed)
}

func TestReaderSourceEarlyClose(t *testing.T) {
	r := &trackingReader{Reader: strings.NewReader("a\nb\n")}
	src := NewReaderSource(r)

	line, ok := src.Next()
	require.True(t, ok)
	assert.Equal(t, "a", line)

	require.NoError(t, src.Close())
	assert.Equal(t, 1, r.closed)

	_, ok = src.Next()
	assert.False(t, ok)
}

func TestParserReleasesSource(t *testing.T) {
	r := &trackingReader{Reader: strings.NewReader(scenarioMaster)}
	_, err := ParseMaster(NewReaderSource(r))
	require.NoError(t, err)
	assert.Equal(t, 1, r.closed)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestSourceReadError(t *testing.T) {
	_, err := ParseMedia(NewReaderSource(failingReader{}), nil)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestLongLine(t *testing.T) {
	uri := "seg.ts?token=" + strings.Repeat("x", 100000)
	pl := makeMediaPlaylist("#EXTINF:1,\n"+uri+"\n", 1, t)
	assert.Equal(t, uri, pl.Segments[0].Path)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.m3u8")
	require.NoError(t, os.WriteFile(path, []byte(scenarioMaster), 0o644))

	master, err := ParseMasterFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, master.Count())

	_, err = ParseMediaFile(filepath.Join(t.TempDir(), "missing.m3u8"), nil)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchSource(t *testing.T) {
	var gotHeader http.Header
	f := FetcherFunc(func(ctx context.Context, url string, header http.Header) ([]byte, error) {
		gotHeader = header
		return []byte(scenarioMedia), nil
	})

	header := http.Header{"Authorization": {"Bearer abc"}}
	pl, err := ParseMediaURL(context.Background(), f, "http://host/a.m3u8", header, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, pl.Count())
	assert.Equal(t, "Bearer abc", gotHeader.Get("Authorization"))
}

func TestFetchSourceFailure(t *testing.T) {
	boom := errors.New("connection refused")
	f := FetcherFunc(func(context.Context, string, http.Header) ([]byte, error) {
		return nil, boom
	})

	_, err := ParseMasterURL(context.Background(), f, "http://host/master.m3u8", nil)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "http://host/master.m3u8")

	_, err = FetchSource(context.Background(), nil, "http://host/master.m3u8", nil)
	assert.Error(t, err)
}
