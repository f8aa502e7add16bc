package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/ShiningRocket/MPV-PLAYER/key"
	"github.com/ShiningRocket/MPV-PLAYER/overlay"
	"github.com/ShiningRocket/MPV-PLAYER/player"
)

// fakeController records facade calls and simulates outcomes.
type fakeController struct {
	disconnected bool
	lastSeek     float64
	lastVolume   int
	calls        []string
	panicOn      string
}

func (f *fakeController) guard(op string) error {
	f.calls = append(f.calls, op)
	if f.panicOn == op {
		panic("boom")
	}
	if f.disconnected {
		return player.ErrNotConnected
	}
	return nil
}

func (f *fakeController) Start(mediaDir string, wid int64) error { return f.guard("start") }

func (f *fakeController) Play() error     { return f.guard("play") }
func (f *fakeController) Pause() error    { return f.guard("pause") }
func (f *fakeController) Next() error     { return f.guard("next") }
func (f *fakeController) Previous() error { return f.guard("previous") }

func (f *fakeController) SeekRelative(seconds float64) error {
	f.lastSeek = seconds
	return f.guard("seek")
}

func (f *fakeController) SetVolume(percent int) (int, error) {
	f.lastVolume = lo.Clamp(percent, 0, 100)
	return f.lastVolume, f.guard("volume")
}

func (f *fakeController) Status() player.Status {
	if f.disconnected {
		return player.Status{}
	}
	return player.Status{Playing: true, Position: 12.5, Volume: 80, Connected: true}
}

func (f *fakeController) PlayFile(path string, maxDuration time.Duration) error {
	return f.guard("playfile")
}

func (f *fakeController) Shutdown() error       { return nil }
func (f *fakeController) Wait() <-chan struct{} { return nil }

// post issues a JSON request against the handler and decodes the response body.
func post(h http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestServer(t *testing.T) {
	Convey("Server", t, func() {
		viper.Set(key.PlayerSeekStep, 30)

		controller := &fakeController{}
		scheduler := overlay.NewScheduler(nopSurface{}, controller)
		h := NewServer(controller, scheduler).Handler()

		Convey("Playback commands", func() {
			Convey("Should report success for play", func() {
				rec, body := post(h, "/api/play", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["success"], ShouldBeTrue)
			})

			Convey("Should reject the wrong method", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/play", nil)
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})

			Convey("Should answer 503 when the engine is unreachable", func() {
				controller.disconnected = true
				rec, body := post(h, "/api/pause", "")
				So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(body["success"], ShouldBeFalse)
				So(body["error"], ShouldNotBeEmpty)
			})

			Convey("Should degrade a panic to a 500 for that request only", func() {
				controller.panicOn = "next"
				rec, _ := post(h, "/api/next", "")
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)

				controller.panicOn = ""
				rec, _ = post(h, "/api/previous", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("Seeking", func() {
			Convey("Should default to 30 seconds with no body", func() {
				rec, _ := post(h, "/api/seek-forward", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(controller.lastSeek, ShouldEqual, 30.0)
			})

			Convey("Should negate the step for seek-backward", func() {
				rec, _ := post(h, "/api/seek-backward", `{"seconds": 10}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(controller.lastSeek, ShouldEqual, -10.0)
			})

			Convey("Should reject negative steps", func() {
				rec, _ := post(h, "/api/seek-forward", `{"seconds": -5}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Should reject malformed bodies", func() {
				rec, _ := post(h, "/api/seek-forward", `{"seconds": "a lot"}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Should reject unknown fields", func() {
				rec, _ := post(h, "/api/seek-forward", `{"second": 10}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("Volume", func() {
			Convey("Should echo the applied volume", func() {
				rec, body := post(h, "/api/volume", `{"volume": 75}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["volume"], ShouldEqual, 75.0)
			})

			Convey("Should clamp out-of-range values instead of rejecting them", func() {
				_, body := post(h, "/api/volume", `{"volume": 150}`)
				So(body["volume"], ShouldEqual, 100.0)

				_, body = post(h, "/api/volume", `{"volume": -10}`)
				So(body["volume"], ShouldEqual, 0.0)
			})

			Convey("Should require the volume field", func() {
				rec, _ := post(h, "/api/volume", `{}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("Status", func() {
			Convey("Should expose the playback snapshot", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)

				So(rec.Code, ShouldEqual, http.StatusOK)

				var status player.Status
				So(json.Unmarshal(rec.Body.Bytes(), &status), ShouldBeNil)
				So(status.Playing, ShouldBeTrue)
				So(status.Connected, ShouldBeTrue)
				So(status.Volume, ShouldEqual, 80)
			})

			Convey("Should report disconnection instead of failing", func() {
				controller.disconnected = true

				req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)

				So(rec.Code, ShouldEqual, http.StatusOK)

				var status player.Status
				So(json.Unmarshal(rec.Body.Bytes(), &status), ShouldBeNil)
				So(status.Connected, ShouldBeFalse)
			})
		})

		Convey("Overlays", func() {
			Convey("Should schedule a text overlay", func() {
				rec, body := post(h, "/api/show-overlay",
					`{"position":"bottom","type":"text","content":"Tonight 9PM","duration":15,"scroll":true}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["success"], ShouldBeTrue)
			})

			Convey("Should default the position to bottom", func() {
				rec, _ := post(h, "/api/show-overlay", `{"type":"text","content":"x"}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(scheduler.Visible(), ShouldHaveLength, 1)
				So(scheduler.Visible()[0].Name, ShouldEqual, "bottom")
			})

			Convey("Should reject an unknown position", func() {
				rec, _ := post(h, "/api/show-overlay", `{"position":"top","type":"text","content":"x"}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Should reject an unknown content type", func() {
				rec, _ := post(h, "/api/show-overlay", `{"position":"bottom","type":"gif","content":"x"}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Should reject a non-positive duration", func() {
				rec, _ := post(h, "/api/show-overlay", `{"type":"text","content":"x","duration":0}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Should hide a named slot idempotently", func() {
				rec, body := post(h, "/api/hide-overlay", `{"position":"bottom"}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["success"], ShouldBeTrue)
			})

			Convey("Should hide every slot when no position is given", func() {
				_, _ = post(h, "/api/show-overlay", `{"position":"bottom","type":"text","content":"a"}`)
				_, _ = post(h, "/api/show-overlay", `{"position":"side","type":"text","content":"b"}`)

				rec, _ := post(h, "/api/hide-overlay", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(scheduler.Visible(), ShouldBeEmpty)
			})
		})

		Convey("Interrupt ad", func() {
			Convey("Should require the file field", func() {
				rec, _ := post(h, "/api/play-interrupt-ad", `{}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Should pause, play the clip, and resume", func() {
				rec, body := post(h, "/api/play-interrupt-ad", `{"file":"/ads/clip.mp4"}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["success"], ShouldBeTrue)
				So(controller.calls, ShouldResemble, []string{"pause", "playfile", "play"})
			})
		})
	})
}

// nopSurface satisfies overlay.Surface without a display.
type nopSurface struct{}

func (nopSurface) ShowOverlay(slot string, c overlay.Content) error { return nil }
func (nopSurface) HideOverlay(slot string)                          {}
