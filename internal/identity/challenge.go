package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

const otpLength = 6

// challenge is the private state of one issued OTP. It exists only inside
// the provider: issued, then either verified, expired, or exhausted, each
// terminal.
type challenge struct {
	phone             string
	code              string
	issuedAt          time.Time
	remainingAttempts int
}

// challengeStore holds active challenges keyed by opaque session id. The
// mutex serializes concurrent verification attempts for the same session, so
// the attempt budget is decremented exactly once per attempt.
type challengeStore struct {
	mu          sync.Mutex
	cache       *ttlcache.Cache[string, *challenge]
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func newChallengeStore(ttl time.Duration, maxAttempts int) *challengeStore {
	// Entries are retained past the logical TTL so an expired challenge is
	// still distinguishable from an unknown session: Verify must report
	// ErrChallengeExpired, not ErrInvalidSession. The janitor only reclaims
	// entries well after they stopped being verifiable.
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *challenge](2*ttl),
		ttlcache.WithDisableTouchOnHit[string, *challenge](),
	)
	go cache.Start()

	return &challengeStore{
		cache:       cache,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Issue creates an independent challenge for the phone number. A prior
// un-consumed challenge for the same phone stays valid until its own TTL.
func (s *challengeStore) Issue(phone string) (session, code string, err error) {
	code, err = generateOTP()
	if err != nil {
		return "", "", fmt.Errorf("generate otp: %w", err)
	}

	session = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(session, &challenge{
		phone:             phone,
		code:              code,
		issuedAt:          s.now(),
		remainingAttempts: s.maxAttempts,
	}, 2*s.ttl)

	return session, code, nil
}

// Verify checks the presented code against the challenge bound to session.
// Expiry and attempt exhaustion are checked before the code itself; a match
// consumes the challenge so that no second verification can succeed.
func (s *challengeStore) Verify(session, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(session)
	if item == nil {
		return ErrInvalidSession
	}
	ch := item.Value()

	if ch.phone != phone {
		return ErrInvalidSession
	}

	if s.now().Sub(ch.issuedAt) > s.ttl {
		s.cache.Delete(session)
		return ErrChallengeExpired
	}

	if ch.remainingAttempts <= 0 {
		s.cache.Delete(session)
		return ErrAttemptsExceeded
	}

	if subtle.ConstantTimeCompare([]byte(ch.code), []byte(code)) != 1 {
		ch.remainingAttempts--
		return ErrCodeMismatch
	}

	s.cache.Delete(session)
	return nil
}

// Stop halts the background expiry loop.
func (s *challengeStore) Stop() {
	s.cache.Stop()
}

// generateOTP returns a crypto-random 6-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}
