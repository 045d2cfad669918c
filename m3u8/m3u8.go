package m3u8

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	tagHeader         = "EXTM3U"
	tagStreamInf      = "EXT-X-STREAM-INF"
	tagVersion        = "EXT-X-VERSION"
	tagTargetDuration = "EXT-X-TARGETDURATION"
	tagMediaSequence  = "EXT-X-MEDIA-SEQUENCE"
	tagInf            = "EXTINF"
	tagByteRange      = "EXT-X-BYTERANGE"
	tagDiscontinuity  = "EXT-X-DISCONTINUITY"
	tagEndList        = "EXT-X-ENDLIST"

	attrProgramID  = "PROGRAM-ID"
	attrBandwidth  = "BANDWIDTH"
	attrResolution = "RESOLUTION"
)

// Defined in Section 4.1: a tag is #EXT followed by its name and an
// optional colon-separated value
var tagPattern = regexp.MustCompile(`^#(EXT[A-Za-z0-9-]*)(?::(.*))?$`)

type lineKind int

const (
	lineBlank lineKind = iota
	lineTag
	lineComment
	lineURI
)

// line is one classified input line. Parsers never modify it.
type line struct {
	kind   lineKind
	number int
	tag    string
	value  string
	raw    string
}

func classify(number int, raw string) line {
	ln := line{number: number, raw: raw}
	switch {
	case raw == "":
		ln.kind = lineBlank
	case strings.HasPrefix(raw, "#EXT"):
		ln.kind = lineTag
		if results := tagPattern.FindStringSubmatch(raw); results != nil {
			ln.tag = strings.ToUpper(results[1])
			ln.value = strings.TrimSpace(results[2])
		}
	case strings.HasPrefix(raw, "#"):
		ln.kind = lineComment
	default:
		ln.kind = lineURI
	}
	return ln
}

// Option configures a parse call
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	onVariant func(*MediaPlaylist)
	onSegment func(MediaSegment)
}

func newOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger that recoverable problems are reported to
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithVariantFunc registers f to be called for every variant as soon as
// its URI line has been read, in document order
func WithVariantFunc(f func(*MediaPlaylist)) Option {
	return func(o *options) {
		o.onVariant = f
	}
}

// WithSegmentFunc registers f to be called for every segment as soon as
// its URI line has been read, in document order
func WithSegmentFunc(f func(MediaSegment)) Option {
	return func(o *options) {
		o.onSegment = f
	}
}

// splitAttributes splits an attribute list on the commas that are not
// inside a quoted-string (4.2)
func splitAttributes(list string) []string {
	var (
		parts  []string
		quoted bool
		start  int
	)

	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, list[start:])
}

// attributeValues returns, in document order, the values of every
// attribute whose case-insensitive name contains name
func attributeValues(list, name string) []string {
	var values []string
	for _, part := range splitAttributes(list) {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}

		if strings.Contains(strings.ToUpper(strings.TrimSpace(key)), name) {
			values = append(values, strings.TrimSpace(val))
		}
	}
	return values
}

// lookupAttribute finds the value of name in an attribute list. The first
// attribute whose name contains name wins, so AVERAGE-BANDWIDTH answers
// for BANDWIDTH when it comes first.
func lookupAttribute(list, name string) (string, bool) {
	values := attributeValues(list, name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// parseInt parses a decimal-integer, tolerating surrounding whitespace
func parseInt(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}

// ParseMasterString parses a master playlist held in memory
func ParseMasterString(s string, opts ...Option) (*MasterPlaylist, error) {
	return ParseMaster(NewStringSource(s), opts...)
}

// ParseMasterFile parses the master playlist stored at path
func ParseMasterFile(path string, opts ...Option) (*MasterPlaylist, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMaster(src, opts...)
}

// ParseMasterURL fetches url with f and parses it as a master playlist
func ParseMasterURL(ctx context.Context, f Fetcher, url string, header http.Header, opts ...Option) (*MasterPlaylist, error) {
	src, err := FetchSource(ctx, f, url, header)
	if err != nil {
		return nil, err
	}
	return ParseMaster(src, opts...)
}

// ParseMediaString parses a media playlist held in memory into pl, or
// into a new playlist if pl is nil
func ParseMediaString(s string, pl *MediaPlaylist, opts ...Option) (*MediaPlaylist, error) {
	return ParseMedia(NewStringSource(s), pl, opts...)
}

// ParseMediaFile parses the media playlist stored at path into pl
func ParseMediaFile(path string, pl *MediaPlaylist, opts ...Option) (*MediaPlaylist, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMedia(src, pl, opts...)
}

// ParseMediaURL fetches url with f and parses it into pl
func ParseMediaURL(ctx context.Context, f Fetcher, url string, header http.Header, pl *MediaPlaylist, opts ...Option) (*MediaPlaylist, error) {
	src, err := FetchSource(ctx, f, url, header)
	if err != nil {
		return nil, err
	}
	return ParseMedia(src, pl, opts...)
}

// MustParseMasterString implements ParseMasterString, but panics if an error occurs
func MustParseMasterString(s string, opts ...Option) *MasterPlaylist {
	playlist, err := ParseMasterString(s, opts...)
	if err != nil {
		panic(err)
	}
	return playlist
}

// MustParseMediaString implements ParseMediaString, but panics if an error occurs
func MustParseMediaString(s string, opts ...Option) *MediaPlaylist {
	playlist, err := ParseMediaString(s, nil, opts...)
	if err != nil {
		panic(err)
	}
	return playlist
}
