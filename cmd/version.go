package cmd

import (
	"fmt"
	"runtime"

	"github.com/ShiningRocket/MPV-PLAYER/constant"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s version %s (%s/%s)\n", constant.Mpvd, constant.Version, runtime.GOOS, runtime.GOARCH)
	},
}
