package player

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ShiningRocket/MPV-PLAYER/constant"
	"github.com/ShiningRocket/MPV-PLAYER/filesystem"
	"github.com/ShiningRocket/MPV-PLAYER/ipc"
	"github.com/ShiningRocket/MPV-PLAYER/key"
	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/ShiningRocket/MPV-PLAYER/where"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	defaultSocketWaitRetries = 10
	defaultSocketWaitDelay   = 300 * time.Millisecond
	shutdownGrace            = 3 * time.Second
)

// ErrNotConnected indicates an operation was issued before the engine session
// was established or after it was released.
var ErrNotConnected = errors.New("engine session not established")

// MPV implements Controller using mpv's JSON-IPC protocol.
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when the engine process exits
	client     *ipc.Client
}

// NewMPV creates a new engine controller (does not launch the process).
func NewMPV() *MPV {
	exited := make(chan struct{})
	close(exited)
	return &MPV{exited: exited}
}

// Start launches mpv over the media directory with a per-session IPC socket,
// waits for the socket to accept connections within the configured budget, then
// connects the IPC client. On failure the orphaned process is killed and no
// partially initialized session remains.
func (m *MPV) Start(mediaDir string, wid int64) error {
	if _, err := exec.LookPath(constant.Engine); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", constant.Engine, err)
	}

	isDir, err := filesystem.API().DirExists(mediaDir)
	if err != nil || !isDir {
		return fmt.Errorf("media directory does not exist: %s", mediaDir)
	}

	// Random per-session socket name under the application temp directory.
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("%s-%x.sock", constant.Mpvd, randomBytes))

	args := []string{
		mediaDir,
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		"--fullscreen=yes",
		"--save-position-on-quit=yes",
		"--keep-open=no",
		"--idle=no",
	}
	if wid != 0 {
		args = append(args, fmt.Sprintf("--wid=%d", wid))
	}

	m.cmd = exec.Command(constant.Engine, args...)

	// Detach from the parent process group so a shell exit cannot cascade.
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", constant.Engine, err)
	}

	// Reap the process to prevent zombies.
	m.exited = make(chan struct{})
	go func(cmd *exec.Cmd, exited chan struct{}) {
		_ = cmd.Wait()
		close(exited)
	}(m.cmd, m.exited)

	if err := m.waitForSocket(); err != nil {
		m.killOrphan()
		m.socketPath = ""
		return fmt.Errorf("%w: socket not ready: %v", ipc.ErrConnection, err)
	}

	client := ipc.New(m.socketPath)
	if err := client.Connect(); err != nil {
		m.killOrphan()
		m.socketPath = ""
		return err
	}
	m.client = client

	log.Infof("engine started on %s (media dir %s)", m.socketPath, mediaDir)
	return nil
}

// killOrphan force-kills the launched process unless it already exited.
func (m *MPV) killOrphan() {
	if m.cmd == nil || m.cmd.Process == nil {
		return
	}
	select {
	case <-m.exited:
	default:
		log.Warnf("killing %s: session never became ready", constant.Engine)
		_ = killProcess(m.cmd)
	}
}

// waitForSocket polls until the engine IPC socket accepts connections.
func (m *MPV) waitForSocket() error {
	retries := defaultSocketWaitRetries
	if v := viper.GetInt(key.PlayerSocketWaitRetries); v > 0 {
		retries = v
	}
	delay := defaultSocketWaitDelay
	if v := viper.GetInt(key.PlayerSocketWaitDelay); v > 0 {
		delay = time.Duration(v) * time.Millisecond
	}

	for i := 0; i < retries; i++ {
		time.Sleep(delay)

		select {
		case <-m.exited:
			return fmt.Errorf("%s exited before socket was ready", constant.Engine)
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, retries)
}

// Play resumes playback.
func (m *MPV) Play() error {
	if m.client == nil {
		return ErrNotConnected
	}
	return m.client.SetProperty("pause", false)
}

// Pause suspends playback.
func (m *MPV) Pause() error {
	if m.client == nil {
		return ErrNotConnected
	}
	return m.client.SetProperty("pause", true)
}

// Next advances to the next playlist entry.
func (m *MPV) Next() error {
	if m.client == nil {
		return ErrNotConnected
	}
	_, err := m.client.Send("playlist-next", "weak")
	return err
}

// Previous returns to the prior playlist entry.
func (m *MPV) Previous() error {
	if m.client == nil {
		return ErrNotConnected
	}
	_, err := m.client.Send("playlist-prev", "weak")
	return err
}

// SeekRelative moves the playback position by a signed number of seconds.
func (m *MPV) SeekRelative(seconds float64) error {
	if m.client == nil {
		return ErrNotConnected
	}
	_, err := m.client.Send("seek", seconds, "relative")
	return err
}

// SetVolume applies a clamped volume percentage and returns the applied value.
// Out-of-range input is clamped, not rejected.
func (m *MPV) SetVolume(percent int) (int, error) {
	if m.client == nil {
		return 0, ErrNotConnected
	}
	clamped := lo.Clamp(percent, 0, 100)
	if err := m.client.SetProperty("volume", clamped); err != nil {
		return 0, err
	}
	return clamped, nil
}

// Status assembles the playback snapshot. A down connection yields
// Connected=false with zero values rather than an error.
func (m *MPV) Status() Status {
	if m.client == nil || !m.client.Connected() {
		return Status{}
	}

	paused, err := m.client.GetBool("pause")
	if err != nil {
		return Status{}
	}

	status := Status{Playing: !paused, Connected: true}

	// "property unavailable" means nothing is loaded yet — a valid state.
	if pos, err := m.client.GetFloat("time-pos"); err == nil {
		status.Position = pos
	} else if !strings.Contains(err.Error(), "property unavailable") {
		log.Debugf("status: time-pos: %v", err)
	}

	if vol, err := m.client.GetFloat("volume"); err == nil {
		status.Volume = int(vol)
	}

	return status
}

// PlayFile performs a one-shot fullscreen playback of a single file, bounded
// by the clip's end or maxDuration, whichever comes first.
func (m *MPV) PlayFile(path string, maxDuration time.Duration) error {
	cmd := exec.Command(constant.Engine,
		"--no-terminal",
		"--really-quiet",
		"--fullscreen=yes",
		"--keep-open=no",
		path,
	)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start clip playback: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("clip playback: %w", err)
		}
		return nil
	case <-time.After(maxDuration):
		log.Warnf("clip %s exceeded %s, stopping it", path, maxDuration)
		_ = killProcess(cmd)
		<-done
		return nil
	}
}

// Shutdown quits the engine via IPC so it persists its resume position, waits
// briefly for a clean exit, then falls back to killing the process group.
// Idempotent.
func (m *MPV) Shutdown() error {
	if m.socketPath == "" {
		return nil
	}

	if m.client != nil {
		_, _ = m.client.Send("quit")
		_ = m.client.Close()
		m.client = nil
	}

	select {
	case <-m.exited:
	case <-time.After(shutdownGrace):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	m.socketPath = ""

	return nil
}

// Wait returns a channel that is closed when the engine process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// Socket returns the IPC socket path of the current session.
func (m *MPV) Socket() string {
	return m.socketPath
}
