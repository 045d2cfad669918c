package m3u8

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// maxLineSize bounds a single playlist line. Long URIs with signed query
// strings easily exceed bufio's 64KiB default.
const maxLineSize = 1 << 20

// LineSource produces the lines of a playlist document, one at a time.
// Next reports false once the document is exhausted, after which Err
// returns any read error. Close releases the backing resource and may be
// called more than once.
type LineSource interface {
	Next() (string, bool)
	Err() error
	Close() error
}

// Lines is a forward-only LineSource over a string, file or fetched document
type Lines struct {
	scanner *bufio.Scanner
	closer  io.Closer
	closed  bool
	err     error
	number  int
}

// NewStringSource returns a LineSource over an in-memory document
func NewStringSource(s string) *Lines {
	return newLines(strings.NewReader(s), nil)
}

// NewReaderSource returns a LineSource reading from r. If r is also an
// io.Closer it is closed once the lines run out or Close is called.
func NewReaderSource(r io.Reader) *Lines {
	closer, _ := r.(io.Closer)
	return newLines(r, closer)
}

// OpenFile returns a LineSource backed by the file at path
func OpenFile(path string) (*Lines, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fetchError(err, path)
	}
	return newLines(file, file), nil
}

// FetchSource retrieves url with f and returns its lines. The document is
// fully read before FetchSource returns, so no network I/O happens while
// the lines are consumed. Cancellation and deadlines come from ctx.
func FetchSource(ctx context.Context, f Fetcher, url string, header http.Header) (*Lines, error) {
	if f == nil {
		return nil, errors.New("nil fetcher")
	}

	body, err := f.Fetch(ctx, url, header)
	if err != nil {
		if errors.Is(err, ErrFetch) {
			return nil, err
		}
		return nil, fetchError(err, url)
	}
	return NewStringSource(string(body)), nil
}

func newLines(r io.Reader, closer io.Closer) *Lines {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &Lines{scanner: scanner, closer: closer}
}

// Next returns the next line with its line ending and surrounding
// whitespace removed
func (l *Lines) Next() (string, bool) {
	if l == nil || l.closed {
		return "", false
	}

	if !l.scanner.Scan() {
		l.err = l.scanner.Err()
		if err := l.Close(); err != nil && l.err == nil {
			l.err = err
		}
		return "", false
	}

	l.number++
	return strings.TrimSpace(l.scanner.Text()), true
}

// Number returns how many lines have been read so far
func (l *Lines) Number() int {
	return l.number
}

// Err returns the first error met while reading, if any
func (l *Lines) Err() error {
	if l == nil {
		return ErrSourceClosed
	}
	return l.err
}

// Close releases the backing resource
func (l *Lines) Close() error {
	if l == nil || l.closed {
		return nil
	}

	l.closed = true
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Closed reports whether the backing resource has been released
func (l *Lines) Closed() bool {
	return l == nil || l.closed
}
