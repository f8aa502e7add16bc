package overlay

import (
	"fmt"
	"sync"
	"time"

	"github.com/ShiningRocket/MPV-PLAYER/key"
	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

const defaultInterruptMax = 60 * time.Second

// Playback is the subset of player capabilities the scheduler needs for
// interrupt takeovers.
type Playback interface {
	Play() error
	Pause() error
	PlayFile(path string, maxDuration time.Duration) error
}

// slot is the scheduler-owned state of one named overlay region.
// gen increments on every state replacement; an armed timer captures the
// generation it belongs to and may only clear the slot while it still matches.
type slot struct {
	content  Content
	visible  bool
	deadline mo.Option[time.Time]
	gen      uint64
	timer    *time.Timer
}

// VisibleSlot is a snapshot entry of a currently visible slot.
type VisibleSlot struct {
	Name      string
	Content   Content
	Remaining mo.Option[time.Duration]
}

// Scheduler owns the overlay slot table and every slot's expiry timer.
// All state transitions happen under one mutex, which timer callbacks also
// take before the check-then-clear sequence, so no stale expiry can fire
// after a slot has been reassigned.
type Scheduler struct {
	mu       sync.Mutex
	surface  Surface
	playback Playback
	slots    map[string]*slot
	closed   bool

	minDuration  time.Duration // 0 = unenforced
	maxDuration  time.Duration // 0 = unenforced
	interruptMax time.Duration
}

// NewScheduler creates a scheduler drawing on the given surface and taking
// over the given playback for interrupt ads. Duration policy comes from
// configuration.
func NewScheduler(surface Surface, playback Playback) *Scheduler {
	s := &Scheduler{
		surface:      surface,
		playback:     playback,
		slots:        make(map[string]*slot),
		minDuration:  time.Duration(viper.GetInt(key.OverlayMinSeconds)) * time.Second,
		maxDuration:  time.Duration(viper.GetInt(key.OverlayMaxSeconds)) * time.Second,
		interruptMax: defaultInterruptMax,
	}
	if v := viper.GetInt(key.OverlayInterruptMaxSeconds); v > 0 {
		s.interruptMax = time.Duration(v) * time.Second
	}
	return s
}

// Show replaces the slot's state with new content and arms its expiry timer.
// An absent duration means the overlay persists until explicitly hidden.
// Any previously armed timer for the slot is cancelled before the new one is
// armed: at most one timer is outstanding per slot.
func (s *Scheduler) Show(name string, c Content, duration mo.Option[time.Duration]) error {
	if name == "" {
		return fmt.Errorf("%w: empty slot name", ErrValidation)
	}
	if err := c.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	sl, ok := s.slots[name]
	if !ok {
		sl = &slot{}
		s.slots[name] = sl
	}

	sl.gen++
	if sl.timer != nil {
		sl.timer.Stop()
		sl.timer = nil
	}

	duration = s.applyPolicy(duration)

	sl.content = c
	sl.visible = true
	sl.deadline = mo.None[time.Time]()

	if err := s.surface.ShowOverlay(name, c); err != nil {
		// The request is scheduled regardless: render failures are the
		// surface's asynchronous concern.
		log.Errorf("surface render %s: %v", name, err)
	}

	if d, ok := duration.Get(); ok {
		sl.deadline = mo.Some(time.Now().Add(d))
		gen := sl.gen
		sl.timer = time.AfterFunc(d, func() {
			s.expire(name, gen)
		})
	}

	return nil
}

// applyPolicy clamps a requested duration to the configured floor/ceiling.
// An absent duration is left absent: indefinite overlays bypass the policy.
func (s *Scheduler) applyPolicy(duration mo.Option[time.Duration]) mo.Option[time.Duration] {
	d, ok := duration.Get()
	if !ok {
		return duration
	}
	if s.minDuration > 0 && d < s.minDuration {
		d = s.minDuration
	}
	if s.maxDuration > 0 && d > s.maxDuration {
		d = s.maxDuration
	}
	return mo.Some(d)
}

// expire is the timer callback. It clears the slot only if the firing timer
// is still the current one for its slot; a Show or Hide that happened between
// arming and firing bumped the generation and wins.
func (s *Scheduler) expire(name string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[name]
	if !ok || !sl.visible || sl.gen != gen {
		return
	}

	log.Debugf("overlay %s expired", name)
	s.clearLocked(name, sl)
}

// clearLocked resets a slot to hidden and tells the surface. Caller holds s.mu.
func (s *Scheduler) clearLocked(name string, sl *slot) {
	if sl.timer != nil {
		sl.timer.Stop()
		sl.timer = nil
	}
	sl.visible = false
	sl.content = Content{}
	sl.deadline = mo.None[time.Time]()
	s.surface.HideOverlay(name)
}

// Hide cancels a slot's timer and clears its state. Hiding an already-hidden
// slot is a no-op, not an error.
func (s *Scheduler) Hide(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[name]
	if !ok || !sl.visible {
		return
	}
	sl.gen++
	s.clearLocked(name, sl)
}

// HideAll clears every currently visible slot and cancels every pending timer.
func (s *Scheduler) HideAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hideAllLocked()
}

func (s *Scheduler) hideAllLocked() {
	for name, sl := range s.slots {
		if !sl.visible {
			continue
		}
		sl.gen++
		s.clearLocked(name, sl)
	}
}

// Visible returns a snapshot of the currently visible slots with their
// remaining durations.
func (s *Scheduler) Visible() []VisibleSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []VisibleSlot
	for name, sl := range s.slots {
		if !sl.visible {
			continue
		}
		v := VisibleSlot{Name: name, Content: sl.content, Remaining: mo.None[time.Duration]()}
		if dl, ok := sl.deadline.Get(); ok {
			remaining := time.Until(dl)
			if remaining < 0 {
				remaining = 0
			}
			v.Remaining = mo.Some(remaining)
		}
		out = append(out, v)
	}
	return out
}

// PlayInterrupt performs a full-screen takeover: pause the underlying player,
// play the clip to completion or the configured maximum, then resume playback
// and restore the overlay slots visible before the interruption. A failed
// resume is reported, not retried.
func (s *Scheduler) PlayInterrupt(file string) error {
	if file == "" {
		return fmt.Errorf("%w: empty interrupt file", ErrValidation)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	if err := s.playback.Pause(); err != nil {
		return fmt.Errorf("pause for interrupt: %w", err)
	}

	snapshot := s.Visible()
	s.HideAll()

	playErr := s.playback.PlayFile(file, s.interruptMax)

	resumeErr := s.playback.Play()

	for _, v := range snapshot {
		if err := s.Show(v.Name, v.Content, v.Remaining); err != nil {
			log.Errorf("restore overlay %s after interrupt: %v", v.Name, err)
		}
	}

	if playErr != nil {
		return fmt.Errorf("interrupt playback: %w", playErr)
	}
	if resumeErr != nil {
		return fmt.Errorf("resume after interrupt: %w", resumeErr)
	}
	return nil
}

// Close hides everything and rejects further scheduling. Idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.hideAllLocked()
	s.closed = true
}
