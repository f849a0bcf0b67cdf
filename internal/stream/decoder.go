// Package stream consumes the chat wire protocol: a newline-delimited
// response body whose meaningful lines are `data: <json>` frames, terminated
// by the literal `data: [DONE]` sentinel.
package stream

import (
	"bufio"
	"io"
	"strings"
)

const (
	framePrefix  = "data: "
	doneSentinel = "[DONE]"

	// Streams carry whole JSON frames per line; a megabyte covers even
	// large search-source batches.
	maxFrameSize = 1024 * 1024
)

// FrameDecoder turns a streamed response body into a sequence of raw frame
// payloads. It buffers partial trailing data across reads, ignores lines
// without the frame prefix, and latches closed once [DONE] is seen even if
// more bytes remain buffered. It is a single-pass, non-restartable reader.
type FrameDecoder struct {
	scanner *bufio.Scanner
	sawDone bool
	closed  bool
}

// NewFrameDecoder wraps a response body.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &FrameDecoder{scanner: sc}
}

// Next returns the next raw frame payload. ok is false once the stream is
// exhausted: the [DONE] sentinel, end of input, or a read error (see Err).
func (d *FrameDecoder) Next() (payload []byte, ok bool) {
	if d.closed {
		return nil, false
	}
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if !strings.HasPrefix(line, framePrefix) {
			continue
		}
		data := strings.TrimPrefix(line, framePrefix)
		if data == doneSentinel {
			d.sawDone = true
			d.closed = true
			return nil, false
		}
		return []byte(data), true
	}
	d.closed = true
	return nil, false
}

// SawDone reports whether the stream ended with the [DONE] sentinel.
func (d *FrameDecoder) SawDone() bool {
	return d.sawDone
}

// Err returns the transport error that stopped the stream, if any. A nil
// error means the stream ended cleanly ([DONE] or EOF).
func (d *FrameDecoder) Err() error {
	if d.sawDone {
		return nil
	}
	return d.scanner.Err()
}
