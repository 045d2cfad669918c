package m3u8

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type mediaState int

const (
	stateNoSegment mediaState = iota
	stateSegmentOpen
)

// mediaAcc is threaded through every line of a media playlist. pending
// only holds a segment while state is stateSegmentOpen; hasInf records
// whether its #EXTINF has been seen yet.
type mediaAcc struct {
	state    mediaState
	pending  MediaSegment
	hasInf   bool
	sequence int
}

type mediaParser struct {
	opts     options
	playlist *MediaPlaylist
}

// ParseMedia reads a media playlist from src into pl and releases src
// before returning. When pl is nil a new playlist is created; otherwise
// its segments are extended in place, numbered after the ones it
// already holds unless src sets #EXT-X-MEDIA-SEQUENCE. Segments whose
// number the playlist already holds are skipped, so a refreshed live
// playlist only adds what is new.
func ParseMedia(src LineSource, pl *MediaPlaylist, opts ...Option) (*MediaPlaylist, error) {
	if src == nil {
		return nil, ErrSourceClosed
	}
	defer src.Close()

	if pl == nil {
		pl = NewMediaPlaylist()
	}

	p := &mediaParser{opts: newOptions(opts), playlist: pl}
	acc := mediaAcc{state: stateNoSegment, sequence: pl.nextSequence()}
	number := 0
	for {
		raw, ok := src.Next()
		if !ok {
			break
		}
		number++
		acc = p.step(acc, classify(number, raw))
	}

	if err := src.Err(); err != nil {
		return pl, errors.Wrap(err, "reading media playlist")
	}

	if acc.state == stateSegmentOpen {
		p.opts.logger.Debug().Int("line", number).Msg("media playlist ended before segment uri")
	}
	return pl, nil
}

func (p *mediaParser) step(acc mediaAcc, ln line) mediaAcc {
	switch ln.kind {
	case lineTag:
		return p.tag(acc, ln)
	case lineURI:
		// tags seen ahead of #EXTINF stay pending for the next segment
		if acc.state != stateSegmentOpen || !acc.hasInf {
			p.issue(ln, ErrNoPendingContext)
			p.opts.logger.Debug().Int("line", ln.number).Str("uri", ln.raw).Msg("dropping uri without #EXTINF")
			return acc
		}

		next := mediaAcc{state: stateNoSegment, sequence: acc.sequence + 1}
		if n := len(p.playlist.Segments); n > 0 && acc.sequence <= p.playlist.Segments[n-1].Sequence {
			p.opts.logger.Debug().Int("line", ln.number).Int("sequence", acc.sequence).Msg("skipping segment already in playlist")
			return next
		}

		seg := acc.pending
		seg.Path = ln.raw
		seg.Sequence = acc.sequence
		seg.Variant = p.playlist.Index
		p.playlist.Segments = append(p.playlist.Segments, seg)
		if p.opts.onSegment != nil {
			p.opts.onSegment(seg)
		}
		return next
	default:
		return acc
	}
}

func (p *mediaParser) tag(acc mediaAcc, ln line) mediaAcc {
	switch ln.tag {
	case tagVersion: // 4.3.1.2
		if n, ok := p.intValue(ln); ok {
			p.playlist.Version = &n
		}
	case tagTargetDuration: // 4.3.3.1
		if n, ok := p.intValue(ln); ok {
			p.playlist.TargetDuration = &n
		}
	case tagMediaSequence: // 4.3.3.2
		if n, ok := p.intValue(ln); ok {
			p.playlist.MediaSequence = n
			acc.sequence = n
		}
	case tagEndList: // 4.3.3.4
		p.playlist.EndList = true
	case tagInf: // 4.3.2.1
		if acc.state == stateSegmentOpen && acc.hasInf {
			// duration and title are replaced, byte range and discontinuity carry over
			p.opts.logger.Debug().Int("line", ln.number).Msg("#EXTINF replaces segment without uri")
			acc.pending.Duration, acc.pending.Title = 0, nil
		} else if acc.state != stateSegmentOpen {
			acc.pending = MediaSegment{}
		}

		acc.state, acc.hasInf = stateSegmentOpen, true
		duration, title, hasTitle := strings.Cut(ln.value, ",")
		d, err := strconv.ParseFloat(strings.TrimSpace(duration), 64)
		if err != nil {
			p.malformed(ln)
		} else {
			acc.pending.Duration = d
		}

		if hasTitle {
			acc.pending.Title = &title
		}
	case tagByteRange: // 4.3.2.2
		acc = openSegment(acc)
		length, start, hasStart := strings.Cut(ln.value, "@")
		n, err := parseInt(length)
		if err != nil {
			p.malformed(ln)
			break
		}
		acc.pending.ByteRangeLength = &n
		acc.pending.ByteRangeStart = nil

		if hasStart {
			o, err := parseInt(start)
			if err != nil {
				p.malformed(ln)
				break
			}
			acc.pending.ByteRangeStart = &o
		}
	case tagDiscontinuity: // 4.3.2.3
		acc = openSegment(acc)
		acc.pending.Discontinuity = true
	}
	return acc
}

// openSegment makes sure a segment is pending so tags that precede #EXTINF are
// not lost
func openSegment(acc mediaAcc) mediaAcc {
	if acc.state != stateSegmentOpen {
		acc.state, acc.hasInf, acc.pending = stateSegmentOpen, false, MediaSegment{}
	}
	return acc
}

func (p *mediaParser) intValue(ln line) (int, bool) {
	n, err := parseInt(ln.value)
	if err != nil {
		p.malformed(ln)
		return 0, false
	}
	return n, true
}

func (p *mediaParser) malformed(ln line) {
	p.issue(ln, ErrMalformedTag)
	p.opts.logger.Warn().Int("line", ln.number).Str("tag", ln.tag).Str("value", ln.value).Msg("malformed tag value")
}

func (p *mediaParser) issue(ln line, err error) {
	value := ln.value
	if ln.kind != lineTag {
		value = ln.raw
	}
	p.playlist.Issues = append(p.playlist.Issues, &LineError{Line: ln.number, Tag: ln.tag, Value: value, Err: err})
}
