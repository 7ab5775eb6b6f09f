package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Frame kinds
const (
	FrameData  = "data"
	FrameDone  = "done"
	FrameError = "error"
)

// Frame is one parsed wire frame: a decoded data chunk or a terminal
// named-event signal. Chunk is populated for FrameData only.
type Frame struct {
	Kind  string
	Chunk Chunk
}

// FrameParser reassembles line-delimited frames from byte buffers that may
// split lines, JSON escape sequences, and multi-byte characters at arbitrary
// boundaries. The buffer is kept as raw bytes and only complete lines are
// decoded: a newline byte never occurs inside a multi-byte UTF-8 sequence,
// so partial runes simply stay buffered until their line completes. The zero
// value is ready to use.
type FrameParser struct {
	buf []byte
}

// Feed appends buf to the parser and returns the frames it completed, in
// arrival order. Comment lines, blank lines, unknown event names, malformed
// JSON, and empty payloads are consumed silently. A trailing partial line is
// retained for the next call and never parsed speculatively.
func (p *FrameParser) Feed(buf []byte) []Frame {
	p.buf = append(p.buf, buf...)

	var frames []Frame
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			return frames
		}
		line := string(p.buf[:i])
		p.buf = p.buf[i+1:]

		if f, ok := parseLine(line); ok {
			frames = append(frames, f)
		}
	}
}

func parseLine(line string) (Frame, bool) {
	line = strings.TrimSuffix(line, "\r")

	switch {
	case line == "" || strings.HasPrefix(line, ":"):
		return Frame{}, false
	case strings.HasPrefix(line, "event: done"):
		return Frame{Kind: FrameDone}, true
	case strings.HasPrefix(line, "event: error"):
		return Frame{Kind: FrameError}, true
	case strings.HasPrefix(line, "data: "):
		data := strings.TrimPrefix(line, "data: ")
		if data == "" || data == "{}" {
			return Frame{}, false
		}
		var c Chunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return Frame{}, false
		}
		return Frame{Kind: FrameData, Chunk: c}, true
	}
	return Frame{}, false
}
