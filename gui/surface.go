// Package gui implements the drawing surface with fyne: one window per
// overlay slot composited above the video output.
//
// Fyne widgets may only be mutated from the GUI thread, while overlay
// commands arrive from HTTP-handler and timer goroutines, so every mutation
// here is marshalled through fyne.Do.
package gui

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"github.com/ShiningRocket/MPV-PLAYER/filesystem"
	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/ShiningRocket/MPV-PLAYER/overlay"
)

const (
	marqueeInterval = 150 * time.Millisecond
	bannerTextSize  = 32
)

// slotGeometry returns the default window size for well-known slot names.
func slotGeometry(slot string, c overlay.Content) fyne.Size {
	w, h := c.Width, c.Height
	if w == 0 || h == 0 {
		switch slot {
		case "side":
			w, h = pick(w, 240), pick(h, 720)
		default: // bottom banner and unknown slots
			w, h = pick(w, 1280), pick(h, 80)
		}
	}
	return fyne.NewSize(float32(w), float32(h))
}

func pick(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Surface renders overlay slots as fyne windows.
type Surface struct {
	app fyne.App

	mu       sync.Mutex
	windows  map[string]fyne.Window
	marquees map[string]chan struct{}
}

// NewSurface creates the fyne application backing the surface.
func NewSurface() *Surface {
	return &Surface{
		app:      app.NewWithID("com.shiningrocket.mpvd"),
		windows:  make(map[string]fyne.Window),
		marquees: make(map[string]chan struct{}),
	}
}

// Run enters the fyne event loop. It must be called from the main goroutine
// and blocks until Quit.
func (s *Surface) Run() {
	s.app.Run()
}

// Quit tears down the event loop.
func (s *Surface) Quit() {
	s.app.Quit()
}

// ShowOverlay renders content for a slot, replacing whatever it showed before.
// The call returns once the update is queued; the visual effect is applied on
// the GUI thread. Content the surface cannot realize (missing image files,
// video clips) is reported here as a render error through the log, never as a
// scheduling failure.
func (s *Surface) ShowOverlay(slot string, c overlay.Content) error {
	s.stopMarquee(slot)

	var obj fyne.CanvasObject
	switch c.Kind {
	case overlay.KindText:
		text := canvas.NewText(c.Payload, color.White)
		text.TextSize = bannerTextSize
		obj = container.NewStack(
			canvas.NewRectangle(color.Black),
			container.NewCenter(text),
		)
		if c.Scroll {
			s.startMarquee(slot, text)
		}

	case overlay.KindImage:
		exists, err := filesystem.API().Exists(c.Payload)
		if err != nil || !exists {
			log.Errorf("render %s: image %s not readable", slot, c.Payload)
			s.HideOverlay(slot)
			return nil
		}
		img := canvas.NewImageFromFile(c.Payload)
		img.FillMode = canvas.ImageFillContain
		obj = img

	case overlay.KindVideoClip:
		// Slot-bound clips are not composited by this surface; full-screen
		// clips go through the interrupt path instead.
		log.Errorf("render %s: video-clip content is not supported in a slot", slot)
		s.HideOverlay(slot)
		return nil
	}

	fyne.Do(func() {
		s.mu.Lock()
		w, ok := s.windows[slot]
		if !ok {
			w = s.app.NewWindow("overlay-" + slot)
			s.windows[slot] = w
		}
		s.mu.Unlock()

		w.SetContent(obj)
		w.Resize(slotGeometry(slot, c))
		w.Show()
	})

	return nil
}

// HideOverlay clears a slot from the screen.
func (s *Surface) HideOverlay(slot string) {
	s.stopMarquee(slot)

	fyne.Do(func() {
		s.mu.Lock()
		w, ok := s.windows[slot]
		delete(s.windows, slot)
		s.mu.Unlock()

		if ok {
			w.Close()
		}
	})
}

// startMarquee rotates the text one rune per tick until stopped.
func (s *Surface) startMarquee(slot string, text *canvas.Text) {
	stop := make(chan struct{})

	s.mu.Lock()
	s.marquees[slot] = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(marqueeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fyne.Do(func() {
					r := []rune(text.Text + " ")
					if len(r) > 1 {
						text.Text = string(append(r[1:], r[0]))
						text.Refresh()
					}
				})
			}
		}
	}()
}

// stopMarquee cancels the slot's marquee ticker if one is running.
func (s *Surface) stopMarquee(slot string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop, ok := s.marquees[slot]; ok {
		close(stop)
		delete(s.marquees, slot)
	}
}
