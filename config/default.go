// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"strings"

	"github.com/ShiningRocket/MPV-PLAYER/constant"
	"github.com/ShiningRocket/MPV-PLAYER/key"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Mpvd + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.APIHost, "0.0.0.0", "Address the control API listens on")
	register(key.APIPort, 5000, "Port the control API listens on")
	register(key.PlayerSeekStep, 30, "Default seek step in seconds when a seek request omits one")
	register(key.PlayerSocketWaitRetries, 10, "Attempts to wait for the engine IPC socket after launch")
	register(key.PlayerSocketWaitDelay, 300, "Delay between engine socket polls, in milliseconds")
	register(key.IPCConnectRetries, 3, "Attempts to establish the engine IPC connection")
	register(key.IPCConnectDelay, 100, "Delay between IPC connection attempts, in milliseconds")
	register(key.IPCReplyTimeout, 1000, "Budget for a single IPC reply, in milliseconds")
	register(key.OverlayMinSeconds, 0, "Minimum overlay duration to enforce. 0 disables the floor")
	register(key.OverlayMaxSeconds, 0, "Maximum overlay duration to enforce. 0 disables the ceiling")
	register(key.OverlayInterruptMaxSeconds, 60, "Hard cap on interrupt ad playback, in seconds")
	register(key.OverlayHeadless, false, "Run without a drawing surface. Overlay requests are logged only")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}
