package m3u8

import (
	"github.com/pkg/errors"
)

type masterState int

const (
	stateIdle masterState = iota
	stateAwaitingURI
)

// masterAcc is threaded through every line of a master playlist. pending
// only holds a variant while state is stateAwaitingURI.
type masterAcc struct {
	state   masterState
	pending MediaPlaylist
}

type masterParser struct {
	opts   options
	master *MasterPlaylist
}

// ParseMaster reads a master playlist from src and releases src before
// returning. Lines that cannot be interpreted are recorded in Issues and
// skipped; only a failure to read src is returned as an error.
func ParseMaster(src LineSource, opts ...Option) (*MasterPlaylist, error) {
	if src == nil {
		return nil, ErrSourceClosed
	}
	defer src.Close()

	p := &masterParser{opts: newOptions(opts), master: new(MasterPlaylist)}
	acc := masterAcc{state: stateIdle}
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
		return nil, errors.Wrap(err, "reading master playlist")
	}

	if acc.state == stateAwaitingURI {
		p.opts.logger.Debug().Int("line", number).Msg("master playlist ended before variant uri")
	}
	return p.master, nil
}

func (p *masterParser) step(acc masterAcc, ln line) masterAcc {
	switch ln.kind {
	case lineTag:
		if ln.tag == tagStreamInf { // 4.3.4.2
			return masterAcc{state: stateAwaitingURI, pending: p.variant(ln)}
		}
		// #EXTM3U and every other tag carry nothing a variant list needs
		return acc
	case lineURI:
		if acc.state != stateAwaitingURI {
			p.issue(ln, ErrNoPendingContext)
			p.opts.logger.Debug().Int("line", ln.number).Str("uri", ln.raw).Msg("dropping uri without #EXT-X-STREAM-INF")
			return acc
		}

		variant := acc.pending
		variant.Path = ln.raw
		p.master.add(&variant)
		if p.opts.onVariant != nil {
			p.opts.onVariant(&variant)
		}
		return masterAcc{state: stateIdle}
	default:
		return acc
	}
}

// variant builds the pending variant described by an #EXT-X-STREAM-INF line
func (p *masterParser) variant(ln line) MediaPlaylist {
	variant := MediaPlaylist{
		ProgramID: p.intAttribute(ln, attrProgramID),
		Bandwidth: p.intAttribute(ln, attrBandwidth),
		Index:     Unset,
	}
	if value, ok := lookupAttribute(ln.value, attrResolution); ok {
		variant.Resolution = &value
	}
	return variant
}

// intAttribute returns the first integer among the attributes whose name
// contains name. The issue is recorded only when none of them parse.
func (p *masterParser) intAttribute(ln line, name string) int {
	values := attributeValues(ln.value, name)
	for _, value := range values {
		if n, err := parseInt(value); err == nil {
			return n
		}
	}

	if len(values) > 0 {
		p.issue(line{number: ln.number, tag: ln.tag + " " + name, raw: values[0]}, ErrMalformedTag)
		p.opts.logger.Warn().Int("line", ln.number).Str("attribute", name).Str("value", values[0]).Msg("malformed stream attribute")
	}
	return Unset
}

func (p *masterParser) issue(ln line, err error) {
	p.master.Issues = append(p.master.Issues, &LineError{Line: ln.number, Tag: ln.tag, Value: ln.raw, Err: err})
}
