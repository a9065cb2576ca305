package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
)

const maxJSONBody = 32 << 20

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps err to a status. Internal errors are logged and answered with a
// generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case apperr.IsValidation(err):
		status, msg = http.StatusBadRequest, err.Error()
	case apperr.IsNotFound(err):
		status, msg = http.StatusNotFound, err.Error()
	case apperr.IsUnsupported(err):
		status, msg = http.StatusUnsupportedMediaType, err.Error()
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Status: "error", Error: msg})
}

// decode reads a JSON body into v, rejecting unknown fields. Malformed input
// is a ValidationError.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("body", "empty request body")
		}
		return apperr.Validation("body", "%v", err)
	}
	return nil
}
