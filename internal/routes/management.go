package routes

import (
	"net/http"

	"github.com/mcg25035/RiceCall-sub002/internal/middleware"
)

// Up is the unauthenticated health check.
func (h *RouteHandler) Up(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// Status returns the caller's own user record, friends, friend groups, friend
// applications and memberships.
func (h *RouteHandler) Status(w http.ResponseWriter, req *http.Request) {
	userID := middleware.GetUserID(req)

	status, err := h.services.Presence.Status(req.Context(), userID)
	if err != nil {
		h.log.Debug().Err(err).Str("user", userID).Msg("error getting status")
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, &status)
}
