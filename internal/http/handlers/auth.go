package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/offerslab/offers-api/internal/identity"
	"github.com/offerslab/offers-api/internal/middleware"
	"github.com/offerslab/offers-api/internal/model"
	"github.com/offerslab/offers-api/internal/phone"
)

// ExternalSignIn mints a token bundle for an externally authenticated user.
type ExternalSignIn interface {
	SignInExternal(ctx context.Context, user model.User, authMethod string) (identity.TokenBundle, error)
}

// RateLimits are the per-IP budgets for the unauthenticated auth endpoints.
type RateLimits struct {
	Window time.Duration
	Start  int
	Verify int
}

// AuthHandler handles the authentication endpoints.
type AuthHandler struct {
	provider identity.Provider
	external ExternalSignIn
	google   *identity.GoogleVerifier
	validate *validator.Validate

	startLimiter  *middleware.RateLimiter
	verifyLimiter *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler. google may be nil when Google
// sign-in is not configured.
func NewAuthHandler(provider identity.Provider, external ExternalSignIn, google *identity.GoogleVerifier, limits RateLimits) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		external: external,
		google:   google,
		validate: validator.New(),
		// Per-IP limits; the provider's attempt budget is per challenge.
		startLimiter:  middleware.NewRateLimiter(limits.Window, limits.Start),
		verifyLimiter: middleware.NewRateLimiter(limits.Window, limits.Verify),
	}
}

// GoogleEnabled reports whether /auth/google should be routed.
func (h *AuthHandler) GoogleEnabled() bool {
	return h.google != nil
}

type startRequest struct {
	Phone string `json:"phone"`
}

type startResponse struct {
	Session string `json:"session"`
	Phone   string `json:"phone"`
	DevOTP  string `json:"dev_otp,omitempty"`
}

// HandleStart handles POST /auth/start.
func (h *AuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	req.Phone = phone.Normalize(req.Phone)
	if req.Phone == "" {
		respondError(w, http.StatusBadRequest, "phone_required")
		return
	}
	if !phone.ValidE164(req.Phone) {
		respondError(w, http.StatusBadRequest, "phone_not_e164")
		return
	}

	if !h.startLimiter.Allow(middleware.IPKey(r)) {
		respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded")
		return
	}

	result, err := h.provider.StartAuth(r.Context(), req.Phone)
	if err != nil {
		log.Error().Err(err).Str("phone", phone.Mask(req.Phone)).Msg("failed to start authentication")
		respondAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, startResponse{
		Session: result.Session,
		Phone:   result.Phone,
		DevOTP:  result.DevOTP,
	})
}

type verifyRequest struct {
	Phone   string `json:"phone" validate:"required"`
	OTP     string `json:"otp" validate:"required,len=6,numeric"`
	Session string `json:"session" validate:"required"`
}

// HandleVerify handles POST /auth/verify.
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	req.Phone = phone.Normalize(req.Phone)
	req.OTP = strings.TrimSpace(req.OTP)
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !phone.ValidE164(req.Phone) {
		respondError(w, http.StatusBadRequest, "phone_not_e164")
		return
	}

	if !h.verifyLimiter.Allow(middleware.IPKey(r)) {
		respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded")
		return
	}

	bundle, err := h.provider.RespondToChallenge(r.Context(), req.Phone, req.OTP, req.Session)
	if err != nil {
		log.Info().Err(err).Str("phone", phone.Mask(req.Phone)).Msg("OTP verification failed")
		respondAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bundle)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// HandleRefresh handles POST /auth/refresh.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh_token_required")
		return
	}

	bundle, err := h.provider.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bundle)
}

type googleRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// HandleGoogle handles POST /auth/google.
func (h *AuthHandler) HandleGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	req.IDToken = strings.TrimSpace(req.IDToken)
	if req.IDToken == "" {
		respondError(w, http.StatusBadRequest, "id_token_required")
		return
	}

	user, err := h.google.Verify(r.Context(), req.IDToken)
	if err != nil {
		log.Info().Err(err).Msg("google token verification failed")
		respondAuthError(w, err)
		return
	}

	bundle, err := h.external.SignInExternal(r.Context(), user, "google")
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("google sign-in failed")
		respondAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bundle)
}
