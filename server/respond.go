package server

import (
	"encoding/json"
	"net/http"

	"Musga/errs"
	"Musga/logger"
)

// errorBody is the uniform error response shape.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.InvalidArgument:
		return http.StatusBadRequest
	case errs.Unauthorized:
		return http.StatusUnauthorized
	case errs.Forbidden:
		return http.StatusForbidden
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Conflict:
		return http.StatusConflict
	case errs.InvalidState:
		return http.StatusUnprocessableEntity
	case errs.ProcessingFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeError translates a classified error into a structured response.
// Internal errors are logged with their cause and reported generically.
func writeError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	if kind == errs.Internal {
		logger.Error("internal error", logger.ErrorField(err))
	}
	writeJSON(w, statusForKind(kind), errorBody{
		Error: errorDetail{
			Code:    kind.Code(),
			Message: errs.MessageOf(err),
		},
	})
}
