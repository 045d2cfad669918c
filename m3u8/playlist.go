package m3u8

// Unset marks an integer attribute that was absent or could not be parsed
const Unset = -1

// MediaSegment is a single playable chunk of a MediaPlaylist
type MediaSegment struct { // 4.3.2
	Sequence      int
	Duration      float64
	Title         *string
	Path          string
	Discontinuity bool

	// ByteRangeStart is nil when the range continues from the end of the
	// previous segment
	ByteRangeLength *int
	ByteRangeStart  *int

	// Variant is the index of the owning MediaPlaylist in its master, or
	// Unset when the playlist was parsed on its own
	Variant int
}

// MediaPlaylist describes one variant stream. The attributes up to Path
// come from the master's #EXT-X-STREAM-INF, the rest from the media
// playlist document itself.
type MediaPlaylist struct { // 4.3.3
	ProgramID  int // Removed in Protocol 6
	Bandwidth  int
	Resolution *string
	Path       string

	Version        *int
	TargetDuration *int
	MediaSequence  int
	EndList        bool
	Segments       []MediaSegment

	// Index is the position of this playlist in its master, or Unset
	Index int

	Issues []*LineError
}

// NewMediaPlaylist returns an empty playlist that does not belong to a master
func NewMediaPlaylist() *MediaPlaylist {
	return &MediaPlaylist{ProgramID: Unset, Bandwidth: Unset, Index: Unset}
}

// Count returns the number of segments
func (m *MediaPlaylist) Count() int {
	return len(m.Segments)
}

// Duration returns the sum of all segment durations in seconds
func (m *MediaPlaylist) Duration() float64 {
	var total float64
	for _, seg := range m.Segments {
		total += seg.Duration
	}
	return total
}

// nextSequence is the number the next appended segment receives
func (m *MediaPlaylist) nextSequence() int {
	if n := len(m.Segments); n > 0 {
		return m.Segments[n-1].Sequence + 1
	}
	return m.MediaSequence
}

// MasterPlaylist lists the variant streams of a presentation in document order
type MasterPlaylist struct { // 4.3.4
	Variants []*MediaPlaylist
	Issues   []*LineError
}

// Count returns the number of variants
func (m *MasterPlaylist) Count() int {
	return len(m.Variants)
}

// Variant returns the variant at index i, or nil if there is none
func (m *MasterPlaylist) Variant(i int) *MediaPlaylist {
	if i < 0 || i >= len(m.Variants) {
		return nil
	}
	return m.Variants[i]
}

// PlaylistOf returns the variant that seg belongs to
func (m *MasterPlaylist) PlaylistOf(seg MediaSegment) *MediaPlaylist {
	return m.Variant(seg.Variant)
}

// BitrateVariant is a variant reduced to what bitrate selection needs
type BitrateVariant struct {
	Bitrate    int
	Resolution *string
}

// Bitrates returns every variant with a known, positive bandwidth, in
// master order
func (m *MasterPlaylist) Bitrates() []BitrateVariant {
	var out []BitrateVariant
	for _, v := range m.Variants {
		if v.Bandwidth > 0 {
			out = append(out, BitrateVariant{Bitrate: v.Bandwidth, Resolution: v.Resolution})
		}
	}
	return out
}

func (m *MasterPlaylist) add(pl *MediaPlaylist) {
	pl.Index = len(m.Variants)
	m.Variants = append(m.Variants, pl)
}
