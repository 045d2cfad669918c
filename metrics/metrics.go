package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Playlist kinds used as the "kind" label
const (
	KindMaster = "master"
	KindMedia  = "media"
)

var (
	// Fetches counts playlist retrievals by kind and outcome
	Fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hls_manifest_fetches_total",
		Help: "Total number of playlist fetches",
	}, []string{"kind", "outcome"})

	// FetchDuration observes how long fetching and parsing a playlist took
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hls_manifest_fetch_duration_seconds",
		Help:    "Time spent fetching and parsing a playlist",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// VariantsParsed counts variant streams read from master playlists
	VariantsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hls_manifest_variants_parsed_total",
		Help: "Total number of variants parsed from master playlists",
	})

	// SegmentsParsed counts media segments read from media playlists
	SegmentsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hls_manifest_segments_parsed_total",
		Help: "Total number of segments parsed from media playlists",
	})

	// MalformedTags counts recoverable tag problems by tag name
	MalformedTags = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hls_manifest_malformed_tags_total",
		Help: "Total number of tags whose value could not be parsed",
	}, []string{"tag"})
)

// Recorder receives resolver measurements. Prometheus records into the
// package-level collectors; Nop discards everything.
type Recorder interface {
	Fetch(kind string, err error, took time.Duration)
	Variant()
	Segment()
	Malformed(tag string)
}

// Prometheus is the Recorder backed by the collectors above
type Prometheus struct{}

// Fetch records one playlist retrieval
func (Prometheus) Fetch(kind string, err error, took time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	Fetches.WithLabelValues(kind, outcome).Inc()
	FetchDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// Variant records one parsed variant
func (Prometheus) Variant() {
	VariantsParsed.Inc()
}

// Segment records one parsed segment
func (Prometheus) Segment() {
	SegmentsParsed.Inc()
}

// Malformed records one malformed tag
func (Prometheus) Malformed(tag string) {
	if tag == "" {
		tag = "unknown"
	}
	MalformedTags.WithLabelValues(tag).Inc()
}

// Nop is a Recorder that does nothing
type Nop struct{}

// Fetch discards a fetch measurement
func (Nop) Fetch(string, error, time.Duration) {}

// Variant discards a parsed variant
func (Nop) Variant() {}

// Segment discards a parsed segment
func (Nop) Segment() {}

// Malformed discards a malformed tag
func (Nop) Malformed(string) {}
