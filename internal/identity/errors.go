package identity

import "errors"

// Failure modes of the challenge/response lifecycle. Handlers map these to
// HTTP statuses; everything is client-correctable except ErrUpstreamProvider.
var (
	ErrChallengeExpired    = errors.New("challenge expired")
	ErrAttemptsExceeded    = errors.New("attempts exceeded")
	ErrCodeMismatch        = errors.New("code mismatch")
	ErrInvalidSession      = errors.New("invalid session")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUpstreamProvider    = errors.New("upstream provider unavailable")
)
