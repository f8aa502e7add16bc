// Package cmd implements the command-line interface for the mpvd daemon.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ShiningRocket/MPV-PLAYER/api"
	"github.com/ShiningRocket/MPV-PLAYER/constant"
	"github.com/ShiningRocket/MPV-PLAYER/gui"
	"github.com/ShiningRocket/MPV-PLAYER/key"
	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/ShiningRocket/MPV-PLAYER/overlay"
	"github.com/ShiningRocket/MPV-PLAYER/player"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownGrace = 5 * time.Second

func init() {
	rootCmd.Flags().StringP("media-dir", "m", "", "Directory containing videos for the engine to playlist and autoplay")
	lo.Must0(rootCmd.MarkFlagRequired("media-dir"))
	lo.Must0(rootCmd.MarkFlagDirname("media-dir"))

	rootCmd.Flags().IntP("api-port", "p", 5000, "Port the control API listens on")
	lo.Must0(viper.BindPFlag(key.APIPort, rootCmd.Flags().Lookup("api-port")))

	rootCmd.Flags().Bool("headless", false, "Run without a drawing surface (overlay requests are logged only)")
	lo.Must0(viper.BindPFlag(key.OverlayHeadless, rootCmd.Flags().Lookup("headless")))

	rootCmd.Flags().Int64("wid", 0, "Native window id to embed the video output into")
}

// rootCmd runs the kiosk player daemon: engine process, control API and
// overlay surface, until a signal arrives or the engine exits.
var rootCmd = &cobra.Command{
	Use:   constant.Mpvd,
	Short: "A kiosk media player daemon driving mpv over JSON-IPC with an HTTP control surface",
	Run: func(cmd *cobra.Command, args []string) {
		mediaDir := lo.Must(cmd.Flags().GetString("media-dir"))
		wid := lo.Must(cmd.Flags().GetInt64("wid"))

		handleErr(runDaemon(mediaDir, wid))
	},
}

// runDaemon wires the components and blocks until shutdown.
func runDaemon(mediaDir string, wid int64) error {
	engine := player.NewMPV()

	var (
		surface     overlay.Surface
		fyneSurface *gui.Surface
	)
	if viper.GetBool(key.OverlayHeadless) {
		surface = gui.NewHeadless()
	} else {
		fyneSurface = gui.NewSurface()
		surface = fyneSurface
	}

	scheduler := overlay.NewScheduler(surface, engine)
	server := api.NewServer(engine, scheduler)

	if err := engine.Start(mediaDir, wid); err != nil {
		return err
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("control API: %v", err)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		_ = server.Stop(ctx)
		scheduler.Close()
		_ = engine.Shutdown()
	}

	if fyneSurface == nil {
		select {
		case sig := <-signals:
			log.Infof("received %s, shutting down", sig)
		case <-engine.Wait():
			log.Warn("engine exited, shutting down")
		}
		shutdown()
		return nil
	}

	// The fyne event loop must own the main goroutine; supervision moves to a
	// background one that quits the loop once teardown is complete.
	go func() {
		select {
		case sig := <-signals:
			log.Infof("received %s, shutting down", sig)
		case <-engine.Wait():
			log.Warn("engine exited, shutting down")
		}
		shutdown()
		fyneSurface.Quit()
	}()

	fyneSurface.Run()
	return nil
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
