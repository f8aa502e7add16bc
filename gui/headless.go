package gui

import (
	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/ShiningRocket/MPV-PLAYER/overlay"
)

// Headless is a drawing surface for display-less environments (CI, remote
// kiosk provisioning). Overlay commands are logged and otherwise dropped;
// scheduling semantics are unaffected.
type Headless struct{}

// NewHeadless creates a no-op surface.
func NewHeadless() Headless {
	return Headless{}
}

func (Headless) ShowOverlay(slot string, c overlay.Content) error {
	log.Infof("headless surface: show %s (%s: %s)", slot, c.Kind, c.Payload)
	return nil
}

func (Headless) HideOverlay(slot string) {
	log.Infof("headless surface: hide %s", slot)
}
