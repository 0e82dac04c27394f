package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedFrame = errors.New("malformed frame")

type FrameKind int

const (
	FrameEvent FrameKind = iota + 1
	FrameUnparseable
)

// Frame is one decoded envelope. Unparseable frames keep the raw bytes and
// the reason so callers can log them.
type Frame struct {
	Kind    FrameKind
	Message WSMessage
	Raw     []byte
	Err     error
}

// DecodeFrame splits a text frame into envelopes. Senders may batch several
// queued envelopes into one frame separated by newlines.
func DecodeFrame(frame []byte) []Frame {
	var out []Frame
	for _, line := range bytes.Split(frame, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		out = append(out, decodeEnvelope(line))
	}
	return out
}

func decodeEnvelope(line []byte) Frame {
	var msg WSMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return Frame{Kind: FrameUnparseable, Raw: line, Err: fmt.Errorf("%w: %v", ErrMalformedFrame, err)}
	}
	if msg.Type == "" {
		return Frame{Kind: FrameUnparseable, Raw: line, Err: fmt.Errorf("%w: missing type", ErrMalformedFrame)}
	}
	return Frame{Kind: FrameEvent, Message: msg, Raw: line}
}

// DecodeData unmarshals the envelope payload into T. Only JSON objects are
// accepted; a string holding JSON is not unwrapped.
func DecodeData[T any](msg WSMessage) (T, error) {
	var result T
	data := bytes.TrimSpace(msg.Data)
	if len(data) == 0 || data[0] != '{' {
		return result, fmt.Errorf("%w: %s payload is not an object", ErrMalformedFrame, msg.Type)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return result, nil
}
