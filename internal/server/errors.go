package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/matzehuels/svgexport/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// errTooLarge reports a request body over the size limit.
type errTooLarge struct {
	limit int64
}

func (e errTooLarge) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.limit)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var tooLarge errTooLarge
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrCodeTimeout), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
		if status == http.StatusRequestEntityTooLarge {
			code = errors.ErrCodeInvalidInput
		}
	}

	id := requestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", id, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "id", id, "path", r.URL.Path, "err", err)
	}

	writeJSON(w, status, errorBody{
		Code:      code,
		Message:   errors.UserMessage(err),
		RequestID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
