package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/offerslab/offers-api/internal/model"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Google issues tokens under both issuer spellings.
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// ErrInvalidGoogleToken is returned when a Google ID token fails verification.
var ErrInvalidGoogleToken = errors.New("invalid google id token")

// GoogleVerifier validates Google ID tokens against Google's JWKS.
type GoogleVerifier struct {
	keyCache *jwk.Cache
	clientID string
}

// NewGoogleVerifier prepares an auto-refreshing key cache for Google's
// signing keys.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(googleJWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register google jwks: %w", err)
	}
	if _, err := cache.Refresh(ctx, googleJWKSURL); err != nil {
		return nil, fmt.Errorf("failed to fetch google signing keys: %w", err)
	}
	return &GoogleVerifier{keyCache: cache, clientID: clientID}, nil
}

// Verify checks signature, audience, expiry and issuer of the ID token and
// maps its claims to a provider user keyed "google:<sub>".
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (model.User, error) {
	keySet, err := v.keyCache.Get(ctx, googleJWKSURL)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}

	token, err := jwxjwt.ParseString(
		rawToken,
		jwxjwt.WithKeySet(keySet),
		jwxjwt.WithAudience(v.clientID),
		jwxjwt.WithRequiredClaim("exp"),
	)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}

	if !validGoogleIssuer(token.Issuer()) {
		return model.User{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidGoogleToken, token.Issuer())
	}

	sub := token.Subject()
	if sub == "" {
		return model.User{}, fmt.Errorf("%w: missing subject claim", ErrInvalidGoogleToken)
	}
	email := stringClaim(token, "email")
	if email == "" {
		return model.User{}, fmt.Errorf("%w: missing email claim", ErrInvalidGoogleToken)
	}

	return model.User{
		Username: "google:" + sub,
		Email:    email,
		Name:     stringClaim(token, "name"),
	}, nil
}

func validGoogleIssuer(issuer string) bool {
	for _, iss := range googleIssuers {
		if issuer == iss {
			return true
		}
	}
	return false
}

func stringClaim(token jwxjwt.Token, name string) string {
	v, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
