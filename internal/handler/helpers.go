package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var circuitOpen *domain.ErrCircuitOpen
	var validation *domain.ErrValidation
	var precondition *domain.ErrPrecondition
	var protocolErr *domain.ErrProtocol
	var external *domain.ErrExternalService
	var unexpected *domain.ErrUnexpectedDocument
	var unauthorized *domain.ErrUnauthorized
	var unknownMapping *domain.ErrUnknownMapping

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Message, Field: validation.Field})
	case errors.As(err, &precondition):
		logger.Debug("precondition failed", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &protocolErr):
		logger.Info("rejected by the network", zap.String("code", protocolErr.Code))
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: protocolErr.Message, Code: protocolErr.Code})
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "upstream timeout")
	case errors.As(err, &external), errors.As(err, &unexpected):
		logger.Error("upstream failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &unknownMapping):
		logger.Warn("unknown mapping", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
