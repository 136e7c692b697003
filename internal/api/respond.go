package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/findmelab/findme/internal/middleware"
	"github.com/findmelab/findme/internal/services"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorBody{
		Code:      code,
		Message:   message,
		RequestID: middleware.RequestIDFrom(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError is the single mapping point from typed service failures to wire
// statuses. Unexpected failures get a generic body; the detail goes to the
// log, keyed by request id.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if se, ok := services.AsServiceError(err); ok {
		switch se.Code {
		case services.ErrorInvalid:
			writeErrorCode(w, r, http.StatusBadRequest, "VALIDATION_ERROR", se.Message)
		case services.ErrorNotFound:
			writeErrorCode(w, r, http.StatusNotFound, "NOT_FOUND", se.Message)
		case services.ErrorConflict:
			writeErrorCode(w, r, http.StatusConflict, "CONFLICT", se.Message)
		case services.ErrorUnauthorized:
			writeErrorCode(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", se.Message)
		case services.ErrorPaymentRequired:
			writeErrorCode(w, r, http.StatusPaymentRequired, "PAYMENT_REQUIRED", se.Message)
		default:
			rt.internalError(w, r, err)
		}
		return
	}
	rt.internalError(w, r, err)
}

func (rt *Router) internalError(w http.ResponseWriter, r *http.Request, err error) {
	rt.logger.Error("internal error",
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.RequestIDFrom(r.Context())),
	)
	writeErrorCode(w, r, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "an unexpected error occurred")
}

func (rt *Router) unauthenticated(w http.ResponseWriter, r *http.Request) {
	writeErrorCode(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "login required")
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return services.NewInvalidError("invalid request body")
	}
	return nil
}
