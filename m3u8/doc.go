/*
Package m3u8 parses HLS master and media playlists.

All Section definitions and references are from RFC 8216 Protocol Version 7.

Parsing is a single forward pass over a LineSource. Tag lines start with
#EXT, other lines starting with # are comments, and everything else is a URI
line that completes whatever the preceding tags opened:

	#EXTM3U
	#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=200000,RESOLUTION=416x234
	low/index.m3u8

	#EXTM3U
	#EXT-X-TARGETDURATION:10
	#EXT-X-MEDIA-SEQUENCE:5
	#EXTINF:9.009,
	seg5.ts

Tags handled by the master parser:

	#EXT-X-STREAM-INF          4.3.4.2

Tags handled by the media parser:

	#EXT-X-VERSION             4.3.1.2
	#EXTINF                    4.3.2.1
	#EXT-X-BYTERANGE           4.3.2.2
	#EXT-X-DISCONTINUITY       4.3.2.3
	#EXT-X-TARGETDURATION      4.3.3.1
	#EXT-X-MEDIA-SEQUENCE      4.3.3.2
	#EXT-X-ENDLIST             4.3.3.4

Every other #EXT tag is skipped so newer playlists still parse. A value that
fails to parse never aborts the document: the field is left unset, a
*LineError wrapping ErrMalformedTag is appended to the playlist's Issues and
the next line is read.
*/
package m3u8
