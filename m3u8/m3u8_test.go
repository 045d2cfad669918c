package m3u8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// got most of these playlists from https://github.com/globocom/m3u8/blob/master/tests/playlists.py

func makeMediaPlaylist(str string, count int, t *testing.T) *MediaPlaylist {
	t.Helper()
	playlist, err := ParseMediaString(str, nil)
	require.NoError(t, err, "decoding playlist")
	assert.Equal(t, count, playlist.Count())
	return playlist
}

func makeMasterPlaylist(str string, count int, t *testing.T) *MasterPlaylist {
	t.Helper()
	playlist, err := ParseMasterString(str)
	require.NoError(t, err, "decoding playlist")
	assert.Equal(t, count, playlist.Count())
	return playlist
}

func intp(n int) *int {
	return &n
}

func strp(s string) *string {
	return &s
}

func TestSimpleMediaPlaylist(t *testing.T) {
	playlist := makeMediaPlaylist(`
		#EXTM3U
		#EXT-X-TARGETDURATION:5220
		#EXTINF:5220,
		http://media.example.com/entire.ts
		#EXT-X-ENDLIST
	`, 1, t)

	seg := playlist.Segments[0]
	assert.Equal(t, intp(5220), playlist.TargetDuration)
	assert.EqualValues(t, 5220, seg.Duration)
	assert.Equal(t, "http://media.example.com/entire.ts", seg.Path)
	assert.True(t, playlist.EndList)
	assert.Empty(t, playlist.Issues)
}

func TestMediaPlaylistShortDuration(t *testing.T) {
	playlist := makeMediaPlaylist(`
		#EXTM3U
		#EXT-X-TARGETDURATION:5220
		#EXTINF:5220,
		http://media.example.com/entire1.ts
		#EXTINF:5218.5,
		http://media.example.com/entire2.ts
		#EXTINF:0.000011,
		http://media.example.com/entire3.ts
		#EXT-X-ENDLIST
	`, 3, t)

	assert.Equal(t, intp(5220), playlist.TargetDuration)

	seg1 := playlist.Segments[0]
	assert.EqualValues(t, 5220, seg1.Duration)
	assert.Equal(t, "http://media.example.com/entire1.ts", seg1.Path)

	seg2 := playlist.Segments[1]
	assert.EqualValues(t, 5218.5, seg2.Duration)
	assert.Equal(t, "http://media.example.com/entire2.ts", seg2.Path)

	seg3 := playlist.Segments[2]
	assert.EqualValues(t, 0.000011, seg3.Duration)
	assert.Equal(t, "http://media.example.com/entire3.ts", seg3.Path)

	assert.InDelta(t, 10438.500011, playlist.Duration(), 1e-9)
}

func TestMediaPlaylistEncryptedSegments(t *testing.T) {
	playlist := makeMediaPlaylist(`
		#EXTM3U
		#EXT-X-MEDIA-SEQUENCE:7794
		#EXT-X-TARGETDURATION:15
		#EXT-X-KEY:METHOD=AES-128,URI="https://priv.example.com/key.php?r=52"
		#EXTINF:15,
		http://media.example.com/fileSequence52-1.ts
		#EXTINF:15,
		http://media.example.com/fileSequence52-2.ts
		#EXTINF:15,
		http://media.example.com/fileSequence52-3.ts
	`, 3, t)

	assert := assert.New(t)
	assert.Equal(7794, playlist.MediaSequence)
	assert.Equal(intp(15), playlist.TargetDuration)

	empty := ""
	segments := []MediaSegment{
		{Sequence: 7794, Duration: 15, Title: &empty, Path: "http://media.example.com/fileSequence52-1.ts", Variant: Unset},
		{Sequence: 7795, Duration: 15, Title: &empty, Path: "http://media.example.com/fileSequence52-2.ts", Variant: Unset},
		{Sequence: 7796, Duration: 15, Title: &empty, Path: "http://media.example.com/fileSequence52-3.ts", Variant: Unset},
	}

	for i, seg := range segments {
		assert.Equal(seg, playlist.Segments[i])
	}
}

func TestMasterPlaylistSimple(t *testing.T) {
	playlist := makeMasterPlaylist(`
		#EXTM3U
		#EXT-X-STREAM-INF:PROGRAM-ID=1, BANDWIDTH=1280000
		http://example.com/low.m3u8
		#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=2560000
		http://example.com/mid.m3u8
		#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=7680000
		http://example.com/hi.m3u8
		#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=65000,CODECS="mp4a.40.5,avc1.42801e"
		http://example.com/audio-only.m3u8
	`, 4, t)

	variants := []MediaPlaylist{
		{ProgramID: 1, Bandwidth: 1280000, Path: "http://example.com/low.m3u8", Index: 0},
		{ProgramID: 1, Bandwidth: 2560000, Path: "http://example.com/mid.m3u8", Index: 1},
		{ProgramID: 1, Bandwidth: 7680000, Path: "http://example.com/hi.m3u8", Index: 2},
		{ProgramID: 1, Bandwidth: 65000, Path: "http://example.com/audio-only.m3u8", Index: 3},
	}

	for i, variant := range variants {
		assert.Equal(t, variant, *playlist.Variants[i])
	}
	assert.Empty(t, playlist.Issues)
}

func TestMasterPlaylistAvgBandwidth(t *testing.T) {
	playlist := makeMasterPlaylist(`
		#EXTM3U
		#EXT-X-STREAM-INF:PROGRAM-ID=1,AVERAGE-BANDWIDTH=1252345,BANDWIDTH=1280000
		http://example.com/low.m3u8
		#EXT-X-STREAM-INF:BANDWIDTH=2560000,AVERAGE-BANDWIDTH=2000000
		http://example.com/mid.m3u8
		#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=63005,CODECS="mp4a.40.5,avc1.42801e"
		http://example.com/audio-only.m3u8
	`, 3, t)

	// the first attribute whose name contains BANDWIDTH is used
	assert.Equal(t, 1252345, playlist.Variants[0].Bandwidth)
	assert.Equal(t, 2560000, playlist.Variants[1].Bandwidth)
	assert.Equal(t, 63005, playlist.Variants[2].Bandwidth)
	assert.Equal(t, Unset, playlist.Variants[2].ProgramID)

	assert.Equal(t, []BitrateVariant{{Bitrate: 1252345}, {Bitrate: 2560000}, {Bitrate: 63005}}, playlist.Bitrates())
}

func TestMasterPlaylistBandwidthFallback(t *testing.T) {
	playlist := makeMasterPlaylist(`
		#EXTM3U
		#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=n/a,BANDWIDTH=1280000
		http://example.com/low.m3u8
		#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=n/a,BANDWIDTH=?
		http://example.com/broken.m3u8
	`, 2, t)

	// an unparseable match falls through to the next containing name
	assert.Equal(t, 1280000, playlist.Variants[0].Bandwidth)

	assert.Equal(t, Unset, playlist.Variants[1].Bandwidth)
	require.Len(t, playlist.Issues, 1)
	assert.ErrorIs(t, playlist.Issues[0], ErrMalformedTag)
	assert.Equal(t, "n/a", playlist.Issues[0].Value)
	assert.Equal(t, 5, playlist.Issues[0].Line)
}

func TestMustParse(t *testing.T) {
	assert.NotPanics(t, func() {
		MustParseMasterString("#EXTM3U\n")
		MustParseMediaString("#EXTM3U\n")
	})
}
