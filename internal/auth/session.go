// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes     = 32             // 32 bytes = 64 hex chars
	DefaultSessionTTL     = 24 * time.Hour // idle sessions expire after a day
	sessionTokenHexLength = SessionTokenBytes * 2
)

// Session is the server-side state behind a session cookie.
// The plaintext token lives only in the cookie; the store keeps its hash.
type Session struct {
	ID         ulid.ULID
	TokenHash  string
	UserID     *ulid.ULID // nil while anonymous
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastSeenAt time.Time
}

// NewSession creates an anonymous Session for the given token hash.
func NewSession(tokenHash string, expiresAt time.Time) (*Session, error) {
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	now := time.Now().UTC()
	return &Session{
		ID:         ulid.Make(),
		TokenHash:  tokenHash,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
		LastSeenAt: now,
	}, nil
}

// IsAuthenticated reports whether a user is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil && s.UserID.Compare(ulid.ULID{}) != 0
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks if the plaintext token matches the stored hash
// in constant time.
func VerifySessionToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Replace atomically deletes the session oldID (if non-nil) and stores next.
	Replace(ctx context.Context, oldID *ulid.ULID, next *Session) error

	// BindUser sets the user of a session.
	BindUser(ctx context.Context, id, userID ulid.ULID) error

	// UpdateLastSeen updates the LastSeenAt timestamp for a session.
	UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteExpired removes all expired sessions and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionStore is the session lifecycle used by Service and the HTTP layer.
type SessionStore interface {
	// Create issues a new anonymous session and its plaintext token.
	Create(ctx context.Context) (*Session, string, error)

	// Get returns the live session for a plaintext token.
	// Returns an error wrapping ErrNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (*Session, error)

	// Regenerate invalidates current (which may be nil) and issues a new,
	// unrelated anonymous session in its place.
	Regenerate(ctx context.Context, current *Session) (*Session, string, error)

	// Bind attaches userID to session.
	Bind(ctx context.Context, session *Session, userID ulid.ULID) error

	// Destroy removes session.
	Destroy(ctx context.Context, session *Session) error
}

// SessionManager implements SessionStore on top of a SessionRepository.
type SessionManager struct {
	repo   SessionRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionManager creates a SessionManager. A non-positive ttl uses DefaultSessionTTL.
func NewSessionManager(repo SessionRepository, ttl time.Duration, logger *slog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{repo: repo, ttl: ttl, logger: logger}
}

func (m *SessionManager) newSession() (*Session, string, error) {
	token, hash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", err
	}
	session, err := NewSession(hash, time.Now().UTC().Add(m.ttl))
	if err != nil {
		return nil, "", err
	}
	return session, token, nil
}

// Create issues a new anonymous session.
func (m *SessionManager) Create(ctx context.Context) (*Session, string, error) {
	session, token, err := m.newSession()
	if err != nil {
		return nil, "", err
	}
	if err := m.repo.Create(ctx, session); err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}
	return session, token, nil
}

// Get returns the live session for token.
func (m *SessionManager) Get(ctx context.Context, token string) (*Session, error) {
	if len(token) != sessionTokenHexLength {
		return nil, oops.Code("SESSION_INVALID").Wrap(ErrNotFound)
	}

	session, err := m.repo.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Wrap(err)
		}
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, oops.Code("SESSION_EXPIRED").Wrap(ErrNotFound)
	}

	now := time.Now().UTC()
	if err := m.repo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		m.logger.WarnContext(ctx, "failed to update session last seen",
			"session_id", session.ID.String(),
			"error", err)
	} else {
		session.LastSeenAt = now
	}
	return session, nil
}

// Regenerate replaces current with a new anonymous session in one step.
func (m *SessionManager) Regenerate(ctx context.Context, current *Session) (*Session, string, error) {
	next, token, err := m.newSession()
	if err != nil {
		return nil, "", err
	}

	var oldID *ulid.ULID
	if current != nil {
		id := current.ID
		oldID = &id
	}

	if err := m.repo.Replace(ctx, oldID, next); err != nil {
		return nil, "", oops.Code("SESSION_REGENERATE_FAILED").
			With("operation", "replace session").
			Wrap(err)
	}
	return next, token, nil
}

// Bind attaches userID to session.
func (m *SessionManager) Bind(ctx context.Context, session *Session, userID ulid.ULID) error {
	if session == nil {
		return oops.Code("SESSION_BIND_FAILED").Errorf("session cannot be nil")
	}
	if err := m.repo.BindUser(ctx, session.ID, userID); err != nil {
		return oops.Code("SESSION_BIND_FAILED").
			With("session_id", session.ID.String()).
			With("user_id", userID.String()).
			Wrap(err)
	}
	session.UserID = &userID
	return nil
}

// Destroy removes session. Destroying a session that is already gone succeeds.
func (m *SessionManager) Destroy(ctx context.Context, session *Session) error {
	if session == nil {
		return nil
	}
	if err := m.repo.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("SESSION_DESTROY_FAILED").
			With("session_id", session.ID.String()).
			Wrap(err)
	}
	return nil
}

// PurgeExpired removes expired sessions from the repository.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}

// Compile-time interface check.
var _ SessionStore = (*SessionManager)(nil)
