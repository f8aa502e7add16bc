// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// HTTP API Surface - these keys govern the externally reachable control endpoint.
const (
	APIHost = "api.host"
	APIPort = "api.port"
)

// Media Playback - these keys configure the managed playback engine and its launch behavior.
const (
	PlayerSeekStep          = "player.seek_step"
	PlayerSocketWaitRetries = "player.socket_wait_retries"
	PlayerSocketWaitDelay   = "player.socket_wait_delay_ms"
)

// IPC Channel - these keys bound the request/reply exchange with the engine socket.
const (
	IPCConnectRetries = "ipc.connect_retries"
	IPCConnectDelay   = "ipc.connect_delay_ms"
	IPCReplyTimeout   = "ipc.reply_timeout_ms"
)

// Overlay Scheduling - these keys define the duration policy for screen overlays.
const (
	OverlayMinSeconds          = "overlay.min_seconds"
	OverlayMaxSeconds          = "overlay.max_seconds"
	OverlayInterruptMaxSeconds = "overlay.interrupt_max_seconds"
	OverlayHeadless            = "overlay.headless"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern non-daemon application behavior.
const (
	CliColored = "cli.colored"
)
