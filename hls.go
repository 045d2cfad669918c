package hls

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/turtletowerz/hls-manifest/m3u8"
	"github.com/turtletowerz/hls-manifest/metrics"
)

// VariantFunc is called for every variant read from the master playlist
type VariantFunc func(*m3u8.MediaPlaylist)

// SegmentFunc is called for every segment read from a media playlist
type SegmentFunc func(m3u8.MediaSegment)

// ResolvedFunc is called once a variant's media playlist has been handled
type ResolvedFunc func(VariantOutcome)

// Client fetches a master playlist and every media playlist it references
type Client struct {
	fetcher     m3u8.Fetcher
	header      http.Header
	concurrency int
	logger      zerolog.Logger
	recorder    metrics.Recorder

	mu         sync.Mutex
	onVariant  VariantFunc
	onSegment  SegmentFunc
	onResolved ResolvedFunc
}

// ClientOption customizes a Client created by New
type ClientOption func(*Client)

// WithFetcher replaces the default HTTP and file fetcher
func WithFetcher(f m3u8.Fetcher) ClientOption {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithLogger sets the logger used by the client and its parsers
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRecorder sets where fetch and parse measurements go
func WithRecorder(r metrics.Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// New creates a Client from cfg. An invalid concurrency falls back to
// DefaultConcurrency.
func New(cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		header:      make(http.Header),
		concurrency: cfg.Concurrency,
		logger:      zerolog.Nop(),
		recorder:    metrics.Nop{},
	}

	if c.concurrency < 1 || c.concurrency > MaxConcurrency {
		c.concurrency = DefaultConcurrency
	}

	for key, value := range cfg.Headers {
		c.header.Set(key, value)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		multi := m3u8.NewMultiFetcher(cfg.Timeout)
		multi.HTTP.(*m3u8.HTTPFetcher).UserAgent = cfg.UserAgent
		c.fetcher = multi
	}
	return c
}

// SetVariantFunc assigns a function that gets called
// for every variant of the master playlist
func (c *Client) SetVariantFunc(f VariantFunc) {
	c.onVariant = f
}

// SetSegmentFunc assigns a function that gets called
// for every segment of every media playlist
func (c *Client) SetSegmentFunc(f SegmentFunc) {
	c.onSegment = f
}

// SetResolvedFunc assigns a function that gets called after
// each variant's media playlist was fetched, or failed to be
func (c *Client) SetResolvedFunc(f ResolvedFunc) {
	c.onResolved = f
}

// VariantOutcome is the result of resolving one variant. Index is the
// variant's position in the master playlist.
type VariantOutcome struct {
	Index int
	URL   string
	Err   error
}

// Resolution is a master playlist whose media playlists have been fetched
type Resolution struct {
	Master   *m3u8.MasterPlaylist
	Outcomes []VariantOutcome
}

// Failed returns the outcomes of the variants that could not be resolved
func (r *Resolution) Failed() []VariantOutcome {
	var failed []VariantOutcome
	for _, out := range r.Outcomes {
		if out.Err != nil {
			failed = append(failed, out)
		}
	}
	return failed
}

// Err joins every per-variant failure, or returns nil if all succeeded
func (r *Resolution) Err() error {
	var errs []error
	for _, out := range r.Failed() {
		errs = append(errs, errors.Wrapf(out.Err, "variant %d", out.Index))
	}
	return stderrors.Join(errs...)
}

// Resolve fetches the master playlist at masterURL, then every media
// playlist it lists. A master that cannot be fetched fails the call; a
// variant that cannot be fetched is reported in its VariantOutcome and
// left without segments, while the others are still resolved.
func (c *Client) Resolve(ctx context.Context, masterURL string, header http.Header) (*Resolution, error) {
	header = c.mergeHeader(header)

	master, err := c.FetchMaster(ctx, masterURL, header)
	if err != nil {
		return nil, err
	}

	return c.ResolveMaster(ctx, masterURL, header, master), nil
}

// ResolveMaster fetches the media playlists of an already parsed master.
// masterURL is the address relative variant paths are resolved against.
func (c *Client) ResolveMaster(ctx context.Context, masterURL string, header http.Header, master *m3u8.MasterPlaylist) *Resolution {
	header = c.mergeHeader(header)
	res := &Resolution{
		Master:   master,
		Outcomes: make([]VariantOutcome, len(master.Variants)),
	}

	// Variants never return an error to the group, so one failure
	// cannot cancel the rest
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency)
	for i, variant := range master.Variants {
		i, variant := i, variant
		group.Go(func() error {
			out := c.resolveVariant(gctx, masterURL, header, variant)
			res.Outcomes[i] = out
			c.resolved(out)
			return nil
		})
	}

	_ = group.Wait()
	if failed := len(res.Failed()); failed > 0 {
		c.logger.Warn().Str("url", masterURL).Int("failed", failed).Int("variants", len(res.Outcomes)).Msg("some variants could not be resolved")
	}
	return res
}

// FetchMaster fetches and parses only the master playlist at url
func (c *Client) FetchMaster(ctx context.Context, url string, header http.Header) (*m3u8.MasterPlaylist, error) {
	start := time.Now()
	master, err := m3u8.ParseMasterURL(ctx, c.fetcher, url, c.mergeHeader(header),
		m3u8.WithLogger(c.logger.With().Str("playlist", url).Logger()),
		m3u8.WithVariantFunc(c.variant),
	)
	c.recorder.Fetch(metrics.KindMaster, err, time.Since(start))
	if err != nil {
		c.logger.Error().Err(err).Str("url", url).Msg("failed to fetch master playlist")
		return nil, errors.Wrap(err, "resolving master playlist")
	}

	c.recordIssues(master.Issues)
	return master, nil
}

// FetchMedia fetches the media playlist at url into pl
func (c *Client) FetchMedia(ctx context.Context, url string, header http.Header, pl *m3u8.MediaPlaylist) (*m3u8.MediaPlaylist, error) {
	start := time.Now()
	before := 0
	if pl != nil {
		before = len(pl.Issues)
	}

	pl, err := m3u8.ParseMediaURL(ctx, c.fetcher, url, c.mergeHeader(header), pl,
		m3u8.WithLogger(c.logger.With().Str("playlist", url).Logger()),
		m3u8.WithSegmentFunc(c.segment),
	)
	c.recorder.Fetch(metrics.KindMedia, err, time.Since(start))
	if err != nil {
		return pl, err
	}

	c.recordIssues(pl.Issues[before:])
	return pl, nil
}

func (c *Client) resolveVariant(ctx context.Context, masterURL string, header http.Header, variant *m3u8.MediaPlaylist) VariantOutcome {
	out := VariantOutcome{Index: variant.Index}

	target, err := m3u8.ResolveURL(masterURL, variant.Path)
	if err != nil {
		out.Err = err
		c.logger.Error().Err(err).Int("variant", variant.Index).Str("path", variant.Path).Msg("cannot resolve variant url")
		return out
	}
	out.URL = target

	if _, err := c.FetchMedia(ctx, target, header, variant); err != nil {
		out.Err = err
		c.logger.Error().Err(err).Int("variant", variant.Index).Str("url", target).Msg("failed to fetch media playlist")
		return out
	}

	c.logger.Debug().Int("variant", variant.Index).Str("url", target).Int("segments", variant.Count()).Msg("resolved variant")
	return out
}

func (c *Client) mergeHeader(header http.Header) http.Header {
	merged := c.header.Clone()
	if merged == nil {
		merged = make(http.Header)
	}

	for key, values := range header {
		merged.Del(key)
		for _, value := range values {
			merged.Add(key, value)
		}
	}
	return merged
}

func (c *Client) recordIssues(issues []*m3u8.LineError) {
	for _, issue := range issues {
		if errors.Is(issue, m3u8.ErrMalformedTag) {
			c.recorder.Malformed(issue.Tag)
		}
	}
}

// Callbacks may run from several goroutines when concurrency is above
// one, so they are serialized here.

func (c *Client) variant(pl *m3u8.MediaPlaylist) {
	c.recorder.Variant()
	if c.onVariant == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onVariant(pl)
}

func (c *Client) segment(seg m3u8.MediaSegment) {
	c.recorder.Segment()
	if c.onSegment == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSegment(seg)
}

func (c *Client) resolved(out VariantOutcome) {
	if c.onResolved == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResolved(out)
}
