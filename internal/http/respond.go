package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"datatracker/internal/core"
	"datatracker/internal/log"
	"datatracker/internal/services"
	"datatracker/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// validationErrors are domain errors a client can fix by changing its
// request.
var validationErrors = []error{
	core.ErrEmptyName,
	core.ErrInvalidType,
	core.ErrEmptyUnit,
	core.ErrInvalidUnit,
	core.ErrInvalidDate,
	core.ErrCommentTooLong,
	services.ErrTypeImmutable,
}

// respondError maps service errors to HTTP status codes. Unknown errors
// are logged and hidden behind a generic 500.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	for _, ve := range validationErrors {
		if errors.Is(err, ve) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.logger.Error("Request failed", log.FieldError, err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
