// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Mpvd is the canonical application identifier used for filesystem paths, CLI branding and env prefixes.
	Mpvd = "mpvd"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// Engine is the playback engine binary this daemon drives.
	Engine = "mpv"
)
