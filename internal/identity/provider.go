package identity

import "context"

// StartResult is returned when a challenge has been issued. DevOTP is set
// only when the provider was built with the dev-echo flag.
type StartResult struct {
	Session string
	Phone   string
	DevOTP  string
}

// TokenBundle is the set of credentials minted on successful verification or
// refresh. RefreshToken is empty on refresh responses (no rotation).
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Provider is the identity provider the HTTP layer delegates to. Challenge
// state lives entirely behind this interface; callers never see or store it.
type Provider interface {
	// StartAuth issues a single-use OTP challenge for the phone number and
	// dispatches the code out-of-band.
	StartAuth(ctx context.Context, phone string) (StartResult, error)

	// RespondToChallenge checks the presented code against the challenge
	// identified by session and mints a token bundle on success. A challenge
	// is consumed by exactly one successful verification.
	RespondToChallenge(ctx context.Context, phone, code, session string) (TokenBundle, error)

	// Refresh exchanges a refresh token for a new bundle. The refresh token
	// itself is not rotated.
	Refresh(ctx context.Context, refreshToken string) (TokenBundle, error)
}
