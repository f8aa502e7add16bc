// Package main is the entry point for the mpvd daemon.
package main

import (
	"github.com/ShiningRocket/MPV-PLAYER/cmd"
	"github.com/ShiningRocket/MPV-PLAYER/config"
	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
