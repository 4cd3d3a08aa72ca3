package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
	apperrors "github.com/lvaldez/padron/pkg/errors"
)

// DefaultRefreshTTL is the fallback lifetime for refresh sessions.
const DefaultRefreshTTL = 30 * 24 * time.Hour

// SessionConfig configures the refresh-session service.
type SessionConfig struct {
	RefreshTTL    time.Duration
	RefreshLength int
	Clock         func() time.Time
}

// SessionService creates, refreshes, and revokes refresh-token sessions.
type SessionService struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	tokenLen   int
	now        func() time.Time
}

// TokenPair bundles the credentials returned on login and refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	SessionID    string    `json:"session_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *gorm.DB, jwt *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	ttl := cfg.RefreshTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}

	length := cfg.RefreshLength
	if length <= 0 {
		length = 48
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &SessionService{
		db:         db,
		jwt:        jwt,
		refreshTTL: ttl,
		tokenLen:   length,
		now:        now,
	}, nil
}

// Create opens a new session for the user and issues a token pair.
func (s *SessionService) Create(ctx context.Context, userID, ip, userAgent string) (*TokenPair, error) {
	if userID == "" {
		return nil, errors.New("session service: user id is required")
	}

	refreshToken, err := randomToken(s.tokenLen)
	if err != nil {
		return nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	session := models.Session{
		UserID:    userID,
		TokenHash: hashToken(refreshToken),
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("session service: create session: %w", err)
	}

	access, err := s.jwt.GenerateAccessToken(AccessTokenInput{UserID: userID, SessionID: session.ID})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// session identity does not change, so cached permission snapshots stay valid.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var session models.Session
	if err := s.db.WithContext(ctx).
		First(&session, "token_hash = ?", hashToken(refreshToken)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("session service: load session: %w", err)
	}

	if !session.IsActive(s.now()) {
		return nil, apperrors.ErrUnauthorized
	}

	access, err := s.jwt.GenerateAccessToken(AccessTokenInput{UserID: session.UserID, SessionID: session.ID})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Revoke terminates a single session.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("session service: revoke session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// RevokeAllForUser terminates every active session for the user.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	now := s.now()
	if err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error; err != nil {
		return fmt.Errorf("session service: revoke sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry. Used by the maintenance job.
func (s *SessionService) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: delete expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func randomToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
