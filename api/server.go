// Package api exposes the HTTP control surface of the daemon. It is the only
// layer that translates internal errors into externally visible responses;
// every dispatch path is wrapped so an internal fault degrades to an error
// response for that single request.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ShiningRocket/MPV-PLAYER/ipc"
	"github.com/ShiningRocket/MPV-PLAYER/key"
	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/ShiningRocket/MPV-PLAYER/overlay"
	"github.com/ShiningRocket/MPV-PLAYER/player"
	"github.com/spf13/viper"
)

// ErrBadRequest classifies request-shape failures detected by the dispatcher
// itself, before a command ever reaches the player or the scheduler.
var ErrBadRequest = errors.New("bad request")

// Server dispatches control requests to the player facade and the overlay
// scheduler. Both are injected; the server holds no ambient state.
type Server struct {
	player   player.Controller
	overlays *overlay.Scheduler
	httpSrv  *http.Server
}

// NewServer wires the dispatcher to its collaborators.
func NewServer(p player.Controller, o *overlay.Scheduler) *Server {
	return &Server{player: p, overlays: o}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/play", s.route(http.MethodPost, s.handlePlay))
	mux.HandleFunc("/api/pause", s.route(http.MethodPost, s.handlePause))
	mux.HandleFunc("/api/next", s.route(http.MethodPost, s.handleNext))
	mux.HandleFunc("/api/previous", s.route(http.MethodPost, s.handlePrevious))
	mux.HandleFunc("/api/seek-forward", s.route(http.MethodPost, s.handleSeekForward))
	mux.HandleFunc("/api/seek-backward", s.route(http.MethodPost, s.handleSeekBackward))
	mux.HandleFunc("/api/volume", s.route(http.MethodPost, s.handleVolume))
	mux.HandleFunc("/api/status", s.route(http.MethodGet, s.handleStatus))
	mux.HandleFunc("/api/show-overlay", s.route(http.MethodPost, s.handleShowOverlay))
	mux.HandleFunc("/api/hide-overlay", s.route(http.MethodPost, s.handleHideOverlay))
	mux.HandleFunc("/api/play-interrupt-ad", s.route(http.MethodPost, s.handleInterruptAd))
	mux.HandleFunc("/api/events", s.route(http.MethodGet, s.handleEvents))

	return mux
}

// Start begins serving on the configured address. It blocks until the
// listener fails or Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", viper.GetString(key.APIHost), viper.GetInt(key.APIPort))
	s.httpSrv = &http.Server{Addr: addr, Handler: s.Handler()}

	log.Infof("control API listening on %s", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// route enforces the HTTP method and converts panics into a 500 for the
// single offending request.
func (s *Server) route(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, errors.New("internal error"))
			}
		}()

		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
			return
		}

		h(w, r)
	}
}

// decode parses a request body into a closed per-endpoint shape. An empty
// body is allowed; defaults then apply. Unknown fields are rejected.
func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		// A body the endpoint shape rejects is the client's fault.
		return fmt.Errorf("%w: malformed request body: %v", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"success": false, "error": err.Error()})
}

// fail maps internal outcomes to response codes: validation failures are the
// client's fault, an unreachable engine is a service condition, anything else
// is an internal fault.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, overlay.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ipc.ErrConnection),
		errors.Is(err, ipc.ErrTimeout),
		errors.Is(err, player.ErrNotConnected),
		errors.Is(err, overlay.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
