package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/order-placement/internal/gateway"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleRemoteError maps a failed call to the remote order API onto a gateway-style status code.
func handleRemoteError(w http.ResponseWriter, err error) {
	remote, ok := gateway.AsRemoteError(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	switch {
	case remote.IsNotFound():
		respondError(w, http.StatusNotFound, "not_found", remote.Error())
	case errors.Is(remote, gobreaker.ErrOpenState), errors.Is(remote, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", remote.Error())
	case errors.Is(remote, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", remote.Error())
	default:
		respondError(w, http.StatusBadGateway, "upstream_error", remote.Error())
	}
}
