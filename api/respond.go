package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/pkg/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON 写 JSON 响应。
func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("write response")
	}
}

// respondError 写 {"error": message}。
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, errorResponse{Error: message})
}
