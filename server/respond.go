package server

import (
	"encoding/json"
	"net/http"

	"github.com/Hungichi/melodies-BE/apperr"
	"github.com/Hungichi/melodies-BE/logger"
)

// response is the uniform envelope for all API responses.
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Token   string      `json:"token,omitempty"`
	User    interface{} `json:"user,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: true, Message: message})
}

// writeError maps an application error onto its status code. Internal causes
// are logged, never serialized.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal {
		logger.Error("Request failed", logger.ErrorField(err))
	}
	writeJSON(w, appErr.StatusCode(), response{Success: false, Message: appErr.Message})
}
