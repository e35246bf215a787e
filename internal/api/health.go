package api

import "net/http"

// Health states reported by /healthz.
const (
	healthOK      = "ok"
	healthStopped = "stopped"
)

// healthResponse reports whether the bridge loop is alive and which media
// player, if any, it is attached to.
type healthResponse struct {
	Status string `json:"status"`
	Player string `json:"player"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.controller.Stopped() {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: healthStopped})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status: healthOK,
		Player: s.controller.NowPlaying().Player,
	})
}
