// Package overlay schedules ephemeral screen overlays (ads, banners) over the
// video output. Each named slot holds content, visibility and at most one
// expiry timer; a drawing surface renders what it is told and never initiates
// state changes.
package overlay

import (
	"errors"
	"fmt"
)

// ErrValidation indicates a malformed overlay request. It is the client's
// fault and is never retried.
var ErrValidation = errors.New("overlay validation error")

// ErrClosed indicates the scheduler has shut down and rejects further requests.
var ErrClosed = errors.New("overlay scheduler closed")

// Kind identifies the content type of an overlay.
type Kind string

const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindVideoClip Kind = "video-clip"
)

// ParseKind validates a content kind against the allowed set.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindText, KindImage, KindVideoClip:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown content kind %q", ErrValidation, s)
	}
}

// Content describes what a slot displays. Payload is literal text for
// KindText and a file path otherwise. File existence is the drawing surface's
// concern: a missing file is a render failure reported asynchronously, not a
// scheduling failure.
type Content struct {
	Kind    Kind   `json:"kind"`
	Payload string `json:"payload"`
	Scroll  bool   `json:"scroll,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// validate checks the closed set of invariants a show request must satisfy.
func (c Content) validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.Payload == "" {
		return fmt.Errorf("%w: empty payload", ErrValidation)
	}
	return nil
}

// Surface is the boundary to the windowing shell that composites overlays on
// top of the video. Implementations must marshal widget mutation onto their
// own GUI context; calls arrive from request-handling and timer goroutines.
type Surface interface {
	// ShowOverlay renders content for a slot immediately, replacing whatever
	// the slot showed before. The visual effect is asynchronous.
	ShowOverlay(slot string, c Content) error

	// HideOverlay clears a slot from the screen.
	HideOverlay(slot string)
}
