package routes

import (
	"encoding/json"
	"net/http"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError sends err as a structured error with its status code. Anything that is
// not already an *apperr.Error is reported as a server error.
func writeError(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Server(partRouter, err)
	}
	WriteJSON(w, e.StatusCode, e)
}
