package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/core/apperr"
)

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Data: data})
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNoPendingAssignments, apperr.KindInvalidState, apperr.KindAlreadyAssigned:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the caller-safe message; store failures are logged with their cause
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindStore {
		s.logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, statusFor(kind), errorResponse{Error: apperr.Message(err)})
}

// decode reads a JSON body into v
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}
