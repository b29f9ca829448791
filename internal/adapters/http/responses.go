package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/edurag/edurag/internal/core/domain"
)

const maxJSONBody = 1 << 20

func decodeJSONBody(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps semantic error kinds onto HTTP statuses.
// Internal detail beyond the kind's own message is not exposed.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsKind(err, domain.ErrJobNotFound):
		writeError(w, http.StatusNotFound, domain.ErrJobNotFound.Error())
	case domain.IsKind(err, domain.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, domain.ErrUnsupportedType.Error())
	case domain.IsKind(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsKind(err, domain.ErrTemporary):
		writeError(w, http.StatusServiceUnavailable, "service is busy, retry later")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
