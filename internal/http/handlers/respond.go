package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/offerslab/offers-api/internal/identity"
)

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, statusCode int, code string) {
	respondJSON(w, statusCode, map[string]string{"error": code})
}

// respondAuthError maps the provider error taxonomy to HTTP statuses. All
// failures are client-correctable 4xx except upstream unavailability.
func respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrChallengeExpired):
		respondError(w, http.StatusUnauthorized, "challenge_expired")
	case errors.Is(err, identity.ErrAttemptsExceeded):
		respondError(w, http.StatusUnauthorized, "attempts_exceeded")
	case errors.Is(err, identity.ErrCodeMismatch):
		respondError(w, http.StatusUnauthorized, "code_mismatch")
	case errors.Is(err, identity.ErrInvalidSession):
		respondError(w, http.StatusUnauthorized, "invalid_session")
	case errors.Is(err, identity.ErrInvalidRefreshToken):
		respondError(w, http.StatusUnauthorized, "invalid_refresh_token")
	case errors.Is(err, identity.ErrInvalidGoogleToken):
		respondError(w, http.StatusUnauthorized, "invalid_google_token")
	case errors.Is(err, identity.ErrUpstreamProvider):
		respondError(w, http.StatusBadGateway, "upstream_provider_error")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error")
	}
}
