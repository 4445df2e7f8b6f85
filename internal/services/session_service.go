// Package services – SessionService
//
// This file implements the SessionService, which owns session issuance and
// token validation. Issuance is reuse-first: a profile that already holds a
// valid session keeps that session row, but receives a freshly signed token
// whose embedded expiry matches the pushed-out row expiry. The refresh is
// written synchronously before the response is produced, so a client never
// holds a token whose extension did not stick.
//
// Tokens are HS256 JWTs carrying the session id and profile id; validation
// additionally checks that the session row still exists, which is how
// revocation (or an expiry sweep) invalidates otherwise well-formed tokens.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// SessionRepo defines the repository contract required by SessionService.
type SessionRepo interface {
	// CreateSession persists a freshly minted session row.
	CreateSession(ctx context.Context, db *gorm.DB, id, profileID, token string, metadata datatypes.JSON, expiresAt time.Time) (*domain.Session, error)

	// GetValidSession fetches a non-expired session by id, or repo.ErrNotFound.
	GetValidSession(ctx context.Context, db *gorm.DB, id string, now time.Time) (*domain.Session, error)

	// GetValidSessionByProfile returns the most recent non-expired session
	// for a profile, or repo.ErrNotFound.
	GetValidSessionByProfile(ctx context.Context, db *gorm.DB, profileID string, now time.Time) (*domain.Session, error)

	// RefreshSession durably replaces a session's token and pushes its
	// expiry to the given instant.
	RefreshSession(ctx context.Context, db *gorm.DB, id, token string, expiresAt time.Time) error

	// DeleteExpiredSessions removes expired rows and reports the count.
	DeleteExpiredSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}

// IssuedSession is the result of IssueOrReuse.
type IssuedSession struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Reused    bool      `json:"reused"`
}

// SessionService issues, reuses, and validates client sessions.
type SessionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the session repository used by this service.
	Repo SessionRepo

	// Secret is the HS256 signing key.
	Secret []byte
	// Validity is the session lifetime window, applied on issue and on reuse.
	Validity time.Duration

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

// NewSessionService constructs a SessionService with a 7-day validity default.
func NewSessionService(db *gorm.DB, r SessionRepo, secret []byte, validity time.Duration) *SessionService {
	if validity <= 0 {
		validity = 7 * 24 * time.Hour
	}
	return &SessionService{
		DB:       db,
		Repo:     r,
		Secret:   secret,
		Validity: validity,
		Now:      time.Now,
	}
}

// sessionClaims is the JWT payload for issued tokens.
type sessionClaims struct {
	SessionID string `json:"session_id"`
	ProfileID string `json:"profile_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// IssueOrReuse returns the profile's existing valid session with a durably
// extended expiry, or mints and persists a new one.
func (s *SessionService) IssueOrReuse(ctx context.Context, profileID string) (*IssuedSession, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, ErrMissingProfile
	}
	now := s.now().UTC()

	existing, err := s.Repo.GetValidSessionByProfile(ctx, s.DB, profileID, now)
	switch {
	case err == nil:
		// Reuse path: the session row survives but the token is re-signed so
		// its embedded expiry matches the extended row. Returning the old
		// token here would advertise an expiry the claim cannot honor.
		expiresAt := now.Add(s.Validity)
		token, err := s.sign(existing.ID, profileID, now, expiresAt)
		if err != nil {
			return nil, err
		}
		if err := s.Repo.RefreshSession(ctx, s.DB, existing.ID, token, expiresAt); err != nil {
			return nil, err
		}
		return &IssuedSession{
			Token:     token,
			SessionID: existing.ID,
			ExpiresAt: expiresAt,
			Reused:    true,
		}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to mint
	default:
		return nil, err
	}

	sessionID := uuid.NewString()
	expiresAt := now.Add(s.Validity)

	token, err := s.sign(sessionID, profileID, now, expiresAt)
	if err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]string{"profile_id": profileID})
	if _, err := s.Repo.CreateSession(ctx, s.DB, sessionID, profileID, token, meta, expiresAt); err != nil {
		return nil, err
	}

	return &IssuedSession{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		Reused:    false,
	}, nil
}

// Validate parses and verifies a bearer token and confirms its session row
// still exists. On success it returns the live session.
func (s *SessionService) Validate(ctx context.Context, token string) (*domain.Session, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}
	if claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}

	// Revocation check: the embedded session must still exist and be valid.
	sess, err := s.Repo.GetValidSession(ctx, s.DB, claims.SessionID, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// SweepExpired deletes expired session rows. Intended for an operator path
// or a periodic job, never invoked on the request path.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredSessions(ctx, s.DB, s.now().UTC())
}

func (s *SessionService) sign(sessionID, profileID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID,
		ProfileID: profileID,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
