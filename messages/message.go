// Package messages receives content replacements from outside the process.
// Every message is checked against an origin allow-list and a payload schema
// before it can touch the displayed content.
package messages

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxPayloadSize bounds the accepted payload, including base64 images.
const MaxPayloadSize = 8 << 20

const payloadType = "content"

// Message is one delivery from an external sender.
type Message struct {
	ID         string
	Origin     string
	Payload    []byte
	ReceivedAt time.Time
}

func NewMessage(origin string, payload []byte) Message {
	return Message{
		ID:         uuid.NewString(),
		Origin:     origin,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}
}

// Channel is a source of messages. Messages is closed when the source stops.
type Channel interface {
	Messages() <-chan Message
	Close() error
}

// Replacement is a validated content payload. Exactly one of Text or Image is set.
type Replacement struct {
	Text       string
	HasText    bool
	Image      []byte
	Fit        string
	FontSize   float64
	Foreground string
	Background string
}

type wirePayload struct {
	Type       string   `json:"type"`
	Text       *string  `json:"text,omitempty"`
	Image      *string  `json:"image,omitempty"`
	Fit        string   `json:"fit,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	Foreground string   `json:"foreground,omitempty"`
	Background string   `json:"background,omitempty"`
}

// ParsePayload decodes and shape-checks a payload. All failures wrap
// ErrMalformedPayload.
func ParsePayload(data []byte) (Replacement, error) {
	if len(data) == 0 {
		return Replacement{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	if len(data) > MaxPayloadSize {
		return Replacement{}, fmt.Errorf("%w: payload is %d bytes, limit %d", ErrMalformedPayload, len(data), MaxPayloadSize)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var p wirePayload
	if err := dec.Decode(&p); err != nil {
		return Replacement{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if dec.More() {
		return Replacement{}, fmt.Errorf("%w: trailing data after payload", ErrMalformedPayload)
	}
	if p.Type != payloadType {
		return Replacement{}, fmt.Errorf("%w: type %q, want %q", ErrMalformedPayload, p.Type, payloadType)
	}
	if (p.Text == nil) == (p.Image == nil) {
		return Replacement{}, fmt.Errorf("%w: exactly one of text or image is required", ErrMalformedPayload)
	}

	r := Replacement{
		Fit:        p.Fit,
		Foreground: p.Foreground,
		Background: p.Background,
	}
	if p.FontSize != nil {
		if *p.FontSize <= 0 || *p.FontSize > 1024 {
			return Replacement{}, fmt.Errorf("%w: fontSize %v out of range", ErrMalformedPayload, *p.FontSize)
		}
		r.FontSize = *p.FontSize
	}
	if p.Text != nil {
		r.Text = *p.Text
		r.HasText = true
		return r, nil
	}
	img, err := base64.StdEncoding.DecodeString(*p.Image)
	if err != nil {
		return Replacement{}, fmt.Errorf("%w: image is not base64: %v", ErrMalformedPayload, err)
	}
	if len(img) == 0 {
		return Replacement{}, fmt.Errorf("%w: image is empty", ErrMalformedPayload)
	}
	r.Image = img
	return r, nil
}

var (
	ErrOriginNotAllowed = errors.New("origin not allowed")
	ErrMalformedPayload = errors.New("malformed payload")
)

// ValidationError is a message rejected by origin or payload checks.
type ValidationError struct {
	MessageID string
	Origin    string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("message %s from %q rejected: %v", e.MessageID, e.Origin, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
