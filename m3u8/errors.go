package m3u8

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedTag is reported when a recognized tag carries a value
	// that cannot be parsed. The field is left unset and parsing continues.
	ErrMalformedTag = errors.New("malformed tag value")

	// ErrNoPendingContext is reported when a URI line appears without a
	// preceding #EXT-X-STREAM-INF or #EXTINF. The line is dropped.
	ErrNoPendingContext = errors.New("uri line without pending tag")

	// ErrFetch wraps every failure to retrieve a playlist document
	ErrFetch = errors.New("fetching playlist")

	// ErrSourceClosed is returned when a parser is handed a source that
	// has already been released
	ErrSourceClosed = errors.New("line source is closed")
)

// LineError describes a recoverable problem found on a single line
type LineError struct {
	Line  int
	Tag   string
	Value string
	Err   error
}

func (e *LineError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Value)
	}
	return fmt.Sprintf("line %d: %s: %v: %q", e.Line, e.Tag, e.Err, e.Value)
}

// Unwrap returns the sentinel the problem belongs to
func (e *LineError) Unwrap() error {
	return e.Err
}

func fetchError(err error, target string) error {
	return errors.Wrapf(wrapFetch{err}, "%s", target)
}

// wrapFetch makes both ErrFetch and the transport error visible to errors.Is
type wrapFetch struct {
	err error
}

func (w wrapFetch) Error() string {
	return ErrFetch.Error() + ": " + w.err.Error()
}

func (w wrapFetch) Is(target error) bool {
	return target == ErrFetch
}

func (w wrapFetch) Unwrap() error {
	return w.err
}
