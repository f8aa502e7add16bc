package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/ShiningRocket/MPV-PLAYER/ipc"
	"github.com/ShiningRocket/MPV-PLAYER/key"
)

// fakeEngine answers JSON-IPC requests on a unix socket and records the
// volume values it was told to set.
type fakeEngine struct {
	socket string

	mu      sync.Mutex
	volumes []float64
}

func newFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()

	engine := &fakeEngine{socket: filepath.Join(t.TempDir(), "engine.sock")}

	listener, err := net.Listen("unix", engine.socket)
	if err != nil {
		t.Fatalf("listen on %s: %v", engine.socket, err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go engine.serve(conn)
		}
	}()

	return engine
}

func (e *fakeEngine) serve(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req struct {
			Command   []interface{} `json:"command"`
			RequestID int64         `json:"request_id"`
		}
		if json.Unmarshal(scanner.Bytes(), &req) != nil || len(req.Command) < 1 {
			continue
		}

		if name, _ := req.Command[0].(string); name == "set_property" &&
			len(req.Command) == 3 && req.Command[1] == "volume" {
			if v, ok := req.Command[2].(float64); ok {
				e.mu.Lock()
				e.volumes = append(e.volumes, v)
				e.mu.Unlock()
			}
		}

		reply, _ := json.Marshal(map[string]interface{}{
			"error":      "success",
			"request_id": req.RequestID,
		})
		if _, err := conn.Write(append(reply, '\n')); err != nil {
			return
		}
	}
}

func (e *fakeEngine) setVolumes() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]float64(nil), e.volumes...)
}

// stallingEngineOnPath installs a fake engine executable that never creates
// its IPC socket, and makes it the only resolvable binary.
func stallingEngineOnPath(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	script := filepath.Join(dir, "mpv")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 30\n"), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	t.Setenv("PATH", dir)
}

func TestMPV(t *testing.T) {
	Convey("MPV", t, func() {
		mpv := NewMPV()

		Convey("Before Start", func() {
			Convey("Operations should report a missing session", func() {
				So(errors.Is(mpv.Play(), ErrNotConnected), ShouldBeTrue)
				So(errors.Is(mpv.Pause(), ErrNotConnected), ShouldBeTrue)
				So(errors.Is(mpv.Next(), ErrNotConnected), ShouldBeTrue)
				So(errors.Is(mpv.Previous(), ErrNotConnected), ShouldBeTrue)
				So(errors.Is(mpv.SeekRelative(30), ErrNotConnected), ShouldBeTrue)

				_, err := mpv.SetVolume(50)
				So(errors.Is(err, ErrNotConnected), ShouldBeTrue)
			})

			Convey("Status should indicate disconnection rather than fail", func() {
				status := mpv.Status()
				So(status.Connected, ShouldBeFalse)
				So(status.Playing, ShouldBeFalse)
			})

			Convey("Shutdown should be an idempotent no-op", func() {
				So(mpv.Shutdown(), ShouldBeNil)
				So(mpv.Shutdown(), ShouldBeNil)
			})
		})

		Convey("Start", func() {
			Convey("Should fail for a missing media directory", func() {
				err := mpv.Start(filepath.Join(t.TempDir(), "no-such-dir"), 0)
				So(err, ShouldNotBeNil)

				// No partially initialized session may remain reachable.
				So(mpv.Socket(), ShouldBeEmpty)
				So(mpv.Status().Connected, ShouldBeFalse)
			})

			Convey("Should clean up when the engine socket never appears", func() {
				stallingEngineOnPath(t)
				viper.Set(key.PlayerSocketWaitRetries, 2)
				viper.Set(key.PlayerSocketWaitDelay, 10)
				defer func() {
					viper.Set(key.PlayerSocketWaitRetries, 0)
					viper.Set(key.PlayerSocketWaitDelay, 0)
				}()

				err := mpv.Start(t.TempDir(), 0)
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ipc.ErrConnection), ShouldBeTrue)

				// The orphaned process is killed and no session remains.
				So(mpv.Socket(), ShouldBeEmpty)
				So(mpv.Status().Connected, ShouldBeFalse)
			})
		})

		Convey("With an established session", func() {
			engine := newFakeEngine(t)

			mpv.client = ipc.New(engine.socket)
			So(mpv.client.Connect(), ShouldBeNil)
			defer mpv.client.Close()

			Convey("SetVolume should clamp out-of-range input before sending", func() {
				applied, err := mpv.SetVolume(150)
				So(err, ShouldBeNil)
				So(applied, ShouldEqual, 100)

				applied, err = mpv.SetVolume(-10)
				So(err, ShouldBeNil)
				So(applied, ShouldEqual, 0)

				// The engine must only ever see the clamped values.
				So(engine.setVolumes(), ShouldResemble, []float64{100, 0})
			})

			Convey("SetVolume should pass in-range input through unchanged", func() {
				applied, err := mpv.SetVolume(75)
				So(err, ShouldBeNil)
				So(applied, ShouldEqual, 75)

				So(engine.setVolumes(), ShouldResemble, []float64{75})
			})
		})
	})
}
