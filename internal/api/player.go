package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/spotipi/internal/bridge"
	"github.com/seantiz/spotipi/internal/model"
)

// maxMessageBytes bounds the body of a display message request.
const maxMessageBytes = 4 << 10

// messageRequest is the JSON body for POST /v1/display/message.
type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.NowPlaying())
}

func (s *Server) handlePlayerCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := model.ParseCommand(chi.URLParam(r, "command"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.controller.Dispatch(r.Context(), cmd)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, bridge.ErrNoPlayer):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, bridge.ErrStopped):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusGatewayTimeout, "command timed out")
	default:
		s.logger.Error("dispatch command", "command", cmd, "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) handleDisplayMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	if err := s.controller.ShowMessage(r.Context(), req.Message); err != nil {
		if errors.Is(err, bridge.ErrStopped) {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error("show message", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to show message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes v as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
