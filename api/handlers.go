package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ShiningRocket/MPV-PLAYER/key"
	"github.com/ShiningRocket/MPV-PLAYER/overlay"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if err := s.player.Play(); err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.player.Pause(); err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if err := s.player.Next(); err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	if err := s.player.Previous(); err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w)
}

// seekRequest is the body of seek-forward and seek-backward.
type seekRequest struct {
	Seconds float64 `json:"seconds"`
}

// seekStep resolves the requested step, falling back to the configured
// default when the body omits it.
func seekStep(r *http.Request) (float64, error) {
	var req seekRequest
	if err := decode(r, &req); err != nil {
		return 0, err
	}
	if req.Seconds < 0 {
		return 0, fmt.Errorf("%w: seconds must be positive", ErrBadRequest)
	}
	if req.Seconds == 0 {
		req.Seconds = float64(viper.GetInt(key.PlayerSeekStep))
		if req.Seconds == 0 {
			req.Seconds = 30
		}
	}
	return req.Seconds, nil
}

func (s *Server) handleSeekForward(w http.ResponseWriter, r *http.Request) {
	step, err := seekStep(r)
	if err != nil {
		fail(w, err)
		return
	}
	if err := s.player.SeekRelative(step); err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleSeekBackward(w http.ResponseWriter, r *http.Request) {
	step, err := seekStep(r)
	if err != nil {
		fail(w, err)
		return
	}
	if err := s.player.SeekRelative(-step); err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w)
}

type volumeRequest struct {
	Volume *int `json:"volume"`
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Volume == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing field: volume"))
		return
	}

	applied, err := s.player.SetVolume(*req.Volume)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "volume": applied})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.player.Status())
}

// showOverlayRequest is the body of show-overlay.
type showOverlayRequest struct {
	Position string   `json:"position"`
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	Duration *float64 `json:"duration"`
	Scroll   bool     `json:"scroll"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
}

func (s *Server) handleShowOverlay(w http.ResponseWriter, r *http.Request) {
	var req showOverlayRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	if req.Position == "" {
		req.Position = "bottom"
	}
	if req.Position != "bottom" && req.Position != "side" {
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("invalid position %q: must be bottom or side", req.Position))
		return
	}

	kind, err := overlay.ParseKind(req.Type)
	if err != nil {
		fail(w, err)
		return
	}

	duration := mo.None[time.Duration]()
	if req.Duration != nil {
		if *req.Duration <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("duration must be positive"))
			return
		}
		duration = mo.Some(time.Duration(*req.Duration * float64(time.Second)))
	}

	content := overlay.Content{
		Kind:    kind,
		Payload: req.Content,
		Scroll:  req.Scroll,
		Width:   req.Width,
		Height:  req.Height,
	}

	if err := s.overlays.Show(req.Position, content, duration); err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w)
}

type hideOverlayRequest struct {
	Position string `json:"position"`
}

func (s *Server) handleHideOverlay(w http.ResponseWriter, r *http.Request) {
	var req hideOverlayRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	// An omitted position means "apply to all slots".
	if req.Position == "" {
		s.overlays.HideAll()
	} else {
		s.overlays.Hide(req.Position)
	}
	writeSuccess(w)
}

type interruptAdRequest struct {
	File string `json:"file"`
}

func (s *Server) handleInterruptAd(w http.ResponseWriter, r *http.Request) {
	var req interruptAdRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.File == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing field: file"))
		return
	}

	if err := s.overlays.PlayInterrupt(req.File); err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w)
}
