package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectFrames(t *testing.T, d *FrameDecoder) []string {
	t.Helper()
	var out []string
	for {
		payload, ok := d.Next()
		if !ok {
			return out
		}
		out = append(out, string(payload))
	}
}

func TestFrameDecoderBasicStream(t *testing.T) {
	input := "data: {\"type\":\"message_stop\"}\ndata: [DONE]\n"
	d := NewFrameDecoder(strings.NewReader(input))

	frames := collectFrames(t, d)
	require.Len(t, frames, 1)
	assert.Equal(t, `{"type":"message_stop"}`, frames[0])
	assert.True(t, d.SawDone())
	assert.NoError(t, d.Err())
}

func TestFrameDecoderSkipsNoiseLines(t *testing.T) {
	input := strings.Join([]string{
		"",
		": keepalive comment",
		"data: {\"a\":1}",
		"event: something",
		"data: {\"b\":2}",
		"data: [DONE]",
	}, "\n") + "\n"
	d := NewFrameDecoder(strings.NewReader(input))

	frames := collectFrames(t, d)
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, frames)
	assert.True(t, d.SawDone())
}

func TestFrameDecoderLatchesAfterDone(t *testing.T) {
	// Bytes after the sentinel must never surface as frames.
	input := "data: {\"a\":1}\ndata: [DONE]\ndata: {\"b\":2}\n"
	d := NewFrameDecoder(strings.NewReader(input))

	frames := collectFrames(t, d)
	assert.Equal(t, []string{`{"a":1}`}, frames)
	assert.True(t, d.SawDone())

	// Further calls stay closed.
	_, ok := d.Next()
	assert.False(t, ok)
}

func TestFrameDecoderCleanEOFWithoutDone(t *testing.T) {
	input := "data: {\"a\":1}\n"
	d := NewFrameDecoder(strings.NewReader(input))

	frames := collectFrames(t, d)
	assert.Equal(t, []string{`{"a":1}`}, frames)
	assert.False(t, d.SawDone())
	assert.NoError(t, d.Err())
}

type failingReader struct {
	data string
	err  error
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, r.err
}

func TestFrameDecoderReportsTransportError(t *testing.T) {
	transportErr := errors.New("connection reset")
	d := NewFrameDecoder(&failingReader{data: "data: {\"a\":1}\n", err: transportErr})

	frames := collectFrames(t, d)
	assert.Equal(t, []string{`{"a":1}`}, frames)
	assert.False(t, d.SawDone())
	assert.ErrorIs(t, d.Err(), transportErr)
}

func TestFrameDecoderErrNilAfterDoneDespiteTrailingError(t *testing.T) {
	// Once [DONE] landed the stream is complete; a transport hiccup on the
	// bytes after it is irrelevant.
	transportErr := errors.New("connection reset")
	d := NewFrameDecoder(io.MultiReader(
		strings.NewReader("data: [DONE]\n"),
		&failingReader{err: transportErr, read: true},
	))

	collectFrames(t, d)
	assert.True(t, d.SawDone())
	assert.NoError(t, d.Err())
}
