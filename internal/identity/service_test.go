package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerslab/offers-api/internal/model"
	"github.com/offerslab/offers-api/internal/repo"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repo.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return model.User{}, repo.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetOrCreate(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[user.Username]; ok {
		return existing, nil
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	r.users[user.Username] = user
	return user, nil
}

type fakeRefreshRepo struct {
	mu       sync.Mutex
	sessions map[string]model.RefreshSession
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{sessions: make(map[string]model.RefreshSession)}
}

func (r *fakeRefreshRepo) Create(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (model.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := model.RefreshSession{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	r.sessions[tokenHash] = session
	return session, nil
}

func (r *fakeRefreshRepo) GetActiveByHash(_ context.Context, tokenHash string) (model.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[tokenHash]
	if !ok || session.RevokedAt != nil || time.Now().After(session.ExpiresAt) {
		return model.RefreshSession{}, repo.ErrRefreshSessionNotFound
	}
	return session, nil
}

func (r *fakeRefreshRepo) Revoke(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for hash, session := range r.sessions {
		if session.ID == id {
			session.RevokedAt = &now
			r.sessions[hash] = session
		}
	}
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	fail error
	sent []string
}

func (s *fakeSender) Send(_ context.Context, to, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, to)
	return nil
}

func newTestService(t *testing.T, devEcho bool, sender *fakeSender) *Service {
	t.Helper()
	svc := NewService(
		NewTokenService("test-secret", time.Hour),
		newFakeUserRepo(),
		newFakeRefreshRepo(),
		sender,
		Options{
			OTPTTL:         5 * time.Minute,
			OTPMaxAttempts: 5,
			DevEcho:        devEcho,
			RefreshTTL:     24 * time.Hour,
		},
	)
	t.Cleanup(svc.Close)
	return svc
}

func TestService_StartVerifyRefreshFlow(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	svc := newTestService(t, true, sender)

	start, err := svc.StartAuth(ctx, testPhone)
	require.NoError(t, err)
	assert.NotEmpty(t, start.Session)
	assert.Equal(t, testPhone, start.Phone)
	require.NotEmpty(t, start.DevOTP, "dev echo enabled, code must be returned")
	assert.Equal(t, []string{testPhone}, sender.sent)

	bundle, err := svc.RespondToChallenge(ctx, testPhone, start.DevOTP, start.Session)
	require.NoError(t, err)
	assert.NotEmpty(t, bundle.AccessToken)
	assert.NotEmpty(t, bundle.IDToken)
	assert.NotEmpty(t, bundle.RefreshToken)
	assert.Equal(t, int64(3600), bundle.ExpiresIn)
	assert.Equal(t, "Bearer", bundle.TokenType)

	// The issued access token verifies against the provider's own keys.
	claims, err := svc.Tokens().VerifyToken(bundle.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testPhone, claims.PhoneNumber)

	// Refresh returns a fresh pair without rotating the refresh token.
	refreshed, err := svc.Refresh(ctx, bundle.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	// The refresh path signs the same token pair as verification.
	idClaims, err := svc.Tokens().VerifyToken(refreshed.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", idClaims.AuthMethod)
	assert.Equal(t, testPhone, idClaims.PhoneNumber)

	// The original refresh token keeps working.
	_, err = svc.Refresh(ctx, bundle.RefreshToken)
	assert.NoError(t, err)
}

func TestService_VerifyIsSingleUse(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, true, &fakeSender{})

	start, err := svc.StartAuth(ctx, testPhone)
	require.NoError(t, err)

	_, err = svc.RespondToChallenge(ctx, testPhone, start.DevOTP, start.Session)
	require.NoError(t, err)

	_, err = svc.RespondToChallenge(ctx, testPhone, start.DevOTP, start.Session)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestService_NoDevEchoHidesCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false, &fakeSender{})

	start, err := svc.StartAuth(ctx, testPhone)
	require.NoError(t, err)
	assert.Empty(t, start.DevOTP)
}

func TestService_SMSFailure(t *testing.T) {
	ctx := context.Background()

	// Production mode: a failed dispatch aborts issuance.
	svc := newTestService(t, false, &fakeSender{fail: context.DeadlineExceeded})
	_, err := svc.StartAuth(ctx, testPhone)
	assert.ErrorIs(t, err, ErrUpstreamProvider)

	// Dev mode: issuance proceeds.
	svc = newTestService(t, true, &fakeSender{fail: context.DeadlineExceeded})
	start, err := svc.StartAuth(ctx, testPhone)
	require.NoError(t, err)
	assert.NotEmpty(t, start.Session)
}

func TestService_RefreshRejectsUnknownToken(t *testing.T) {
	svc := newTestService(t, true, &fakeSender{})

	_, err := svc.Refresh(context.Background(), "not-a-real-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestService_SignInExternal(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, true, &fakeSender{})

	bundle, err := svc.SignInExternal(ctx, model.User{
		Username: "google:12345",
		Email:    "a@example.com",
	}, "google")
	require.NoError(t, err)
	assert.NotEmpty(t, bundle.AccessToken)
	assert.NotEmpty(t, bundle.RefreshToken)

	claims, err := svc.Tokens().VerifyToken(bundle.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "google", claims.AuthMethod)
	assert.Equal(t, "a@example.com", claims.Email)
}
