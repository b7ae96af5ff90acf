package server

import (
	"encoding/json"
	"net/http"

	"github.com/lowc1012/swc-rate-limiter/internal/log"
	"github.com/lowc1012/swc-rate-limiter/internal/ratelimiter"
	"go.uber.org/zap"
)

type allowedResponse struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
}

type statusResponse struct {
	Limit                 int64   `json:"limit"`
	EffectiveCount        float64 `json:"effectiveCount"`
	Remaining             int64   `json:"remaining"`
	WindowSizeMillis      int64   `json:"windowSizeMillis"`
	ElapsedInWindowMillis int64   `json:"elapsedInWindowMillis"`
}

// handleAllowed runs behind the admission handler, so reaching it means the request was admitted.
func (s *Server) handleAllowed(w http.ResponseWriter, r *http.Request) {
	var remaining int64
	if result, ok := ratelimiter.ResultFromContext(r.Context()); ok {
		remaining = result.Remaining
	}
	writeJSON(w, http.StatusOK, allowedResponse{Allowed: true, Remaining: remaining})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.limiter.Status(r.Context())
	if err != nil {
		log.Logger().Error("Failed to read limiter status",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read limiter status"})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Limit:                 st.Limit,
		EffectiveCount:        st.EffectiveCount,
		Remaining:             st.Remaining,
		WindowSizeMillis:      st.WindowSize.Milliseconds(),
		ElapsedInWindowMillis: st.ElapsedInWindow.Milliseconds(),
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Logger().Error("Failed to write body to HTTP response", zap.Error(err))
	}
}
