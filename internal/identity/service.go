package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/offerslab/offers-api/internal/model"
	"github.com/offerslab/offers-api/internal/phone"
	"github.com/offerslab/offers-api/internal/repo"
	"github.com/offerslab/offers-api/internal/sms"
)

const tokenType = "Bearer"

// Options configure the embedded provider.
type Options struct {
	OTPTTL         time.Duration
	OTPMaxAttempts int
	// DevEcho makes StartAuth return the issued code and downgrades SMS
	// delivery failures to warnings.
	DevEcho    bool
	RefreshTTL time.Duration
}

// Service is the embedded identity provider. It owns all challenge state and
// all identity persistence; callers interact with it only through Provider.
type Service struct {
	challenges *challengeStore
	tokens     *TokenService
	users      repo.UserRepo
	refresh    repo.RefreshRepo
	sender     sms.Sender
	devEcho    bool
	refreshTTL time.Duration
}

var _ Provider = (*Service)(nil)

// NewService creates the provider.
func NewService(tokens *TokenService, users repo.UserRepo, refresh repo.RefreshRepo, sender sms.Sender, opts Options) *Service {
	return &Service{
		challenges: newChallengeStore(opts.OTPTTL, opts.OTPMaxAttempts),
		tokens:     tokens,
		users:      users,
		refresh:    refresh,
		sender:     sender,
		devEcho:    opts.DevEcho,
		refreshTTL: opts.RefreshTTL,
	}
}

// StartAuth issues an OTP challenge and dispatches the code via SMS. In dev
// mode a failed dispatch does not abort issuance.
func (s *Service) StartAuth(ctx context.Context, phoneNumber string) (StartResult, error) {
	session, code, err := s.challenges.Issue(phoneNumber)
	if err != nil {
		return StartResult{}, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}

	message := fmt.Sprintf("Your Offers login code is %s", code)
	if err := s.sender.Send(ctx, phoneNumber, message); err != nil {
		if !s.devEcho {
			log.Error().Err(err).Str("phone", phone.Mask(phoneNumber)).Msg("failed to deliver OTP")
			return StartResult{}, fmt.Errorf("%w: sms relay: %v", ErrUpstreamProvider, err)
		}
		log.Warn().Err(err).Str("phone", phone.Mask(phoneNumber)).Msg("OTP delivery failed, continuing in dev mode")
	}

	result := StartResult{Session: session, Phone: phoneNumber}
	if s.devEcho {
		result.DevOTP = code
	}

	log.Info().Str("phone", phone.Mask(phoneNumber)).Msg("OTP challenge issued")
	return result, nil
}

// RespondToChallenge verifies the code and mints a token bundle. The
// challenge is consumed on success; any later attempt against the same
// session fails with ErrInvalidSession.
func (s *Service) RespondToChallenge(ctx context.Context, phoneNumber, code, session string) (TokenBundle, error) {
	if err := s.challenges.Verify(session, phoneNumber, code); err != nil {
		return TokenBundle{}, err
	}

	user, err := s.users.GetOrCreate(ctx, model.User{
		Username:    phoneNumber,
		PhoneNumber: phoneNumber,
	})
	if err != nil {
		return TokenBundle{}, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}

	return s.mintBundle(ctx, user, "otp")
}

// Refresh exchanges a refresh token for a new access/id token pair. The
// refresh token is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenBundle, error) {
	session, err := s.refresh.GetActiveByHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repo.ErrRefreshSessionNotFound) {
			return TokenBundle{}, ErrInvalidRefreshToken
		}
		return TokenBundle{}, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return TokenBundle{}, ErrInvalidRefreshToken
		}
		return TokenBundle{}, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}

	accessToken, idToken, err := s.signTokenPair(user, "refresh")
	if err != nil {
		return TokenBundle{}, err
	}

	return TokenBundle{
		AccessToken: accessToken,
		IDToken:     idToken,
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
		TokenType:   tokenType,
	}, nil
}

// SignInExternal mints a full bundle for a user authenticated by an external
// identity (e.g. a verified Google ID token).
func (s *Service) SignInExternal(ctx context.Context, user model.User, authMethod string) (TokenBundle, error) {
	stored, err := s.users.GetOrCreate(ctx, user)
	if err != nil {
		return TokenBundle{}, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}
	return s.mintBundle(ctx, stored, authMethod)
}

// Tokens exposes the token service for bearer-token verification middleware.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Close stops the challenge store's expiry loop.
func (s *Service) Close() {
	s.challenges.Stop()
}

func (s *Service) mintBundle(ctx context.Context, user model.User, authMethod string) (TokenBundle, error) {
	accessToken, idToken, err := s.signTokenPair(user, authMethod)
	if err != nil {
		return TokenBundle{}, err
	}

	refreshToken, hashHex, err := GenerateRefreshToken()
	if err != nil {
		return TokenBundle{}, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}
	if _, err := s.refresh.Create(ctx, user.ID, hashHex, time.Now().Add(s.refreshTTL)); err != nil {
		return TokenBundle{}, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}

	return TokenBundle{
		AccessToken:  accessToken,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		TokenType:    tokenType,
	}, nil
}

// signTokenPair mints the access/id token pair shared by verification and
// refresh responses.
func (s *Service) signTokenPair(user model.User, authMethod string) (accessToken, idToken string, err error) {
	accessToken, err = s.tokens.SignAccessToken(user.ID, user.PhoneNumber)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}
	idToken, err = s.tokens.SignIDToken(user.ID, user.PhoneNumber, user.Email, authMethod)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}
	return accessToken, idToken, nil
}
