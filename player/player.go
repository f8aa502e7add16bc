// Package player wraps the playback engine process behind named operations.
// The primary implementation launches 'mpv' over a directory playlist and
// drives it through its JSON-IPC control socket.
package player

import "time"

// Status is a read-only snapshot of the engine state, recomputed on each query.
type Status struct {
	Playing   bool    `json:"playing"`
	Position  float64 `json:"position"`
	Volume    int     `json:"volume"`
	Connected bool    `json:"connected"`
}

// Controller encapsulates the required capabilities of a managed playback engine.
type Controller interface {
	// Start launches the engine over the given media directory and connects
	// its control channel. A non-zero wid embeds the video into that native window.
	Start(mediaDir string, wid int64) error

	// Play resumes playback.
	Play() error

	// Pause suspends playback.
	Pause() error

	// Next advances to the next playlist entry.
	Next() error

	// Previous returns to the prior playlist entry.
	Previous() error

	// SeekRelative moves the playback position by a signed number of seconds.
	SeekRelative(seconds float64) error

	// SetVolume applies a volume percentage, clamped to 0..100,
	// and returns the value actually applied.
	SetVolume(percent int) (int, error)

	// Status assembles the current playback snapshot. A down connection yields
	// Connected=false rather than an error.
	Status() Status

	// PlayFile performs a transient one-shot fullscreen playback of a single
	// file, bounded by the clip's end or maxDuration, whichever comes first.
	PlayFile(path string, maxDuration time.Duration) error

	// Shutdown terminates the engine and releases all session resources. Idempotent.
	Shutdown() error

	// Wait returns a channel that is closed when the engine process exits.
	Wait() <-chan struct{}
}
