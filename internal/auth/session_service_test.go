package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lvaldez/padron/internal/database/testutil"
	"github.com/lvaldez/padron/internal/models"
	apperrors "github.com/lvaldez/padron/pkg/errors"
)

func newTestSessionService(t *testing.T) (*SessionService, string) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := &models.User{Email: "admin@asociacion.pe", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtSvc, SessionConfig{})
	require.NoError(t, err)
	return svc, user.ID
}

func TestSessionCreateAndRefresh(t *testing.T) {
	svc, userID := newTestSessionService(t)
	ctx := context.Background()

	pair, err := svc.Create(ctx, userID, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, pair.SessionID, refreshed.SessionID)
	require.NotEmpty(t, refreshed.AccessToken)
}

func TestSessionRefreshRejectsUnknownToken(t *testing.T) {
	svc, _ := newTestSessionService(t)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSessionRevokeBlocksRefresh(t *testing.T) {
	svc, userID := newTestSessionService(t)
	ctx := context.Background()

	pair, err := svc.Create(ctx, userID, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, pair.SessionID))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.ErrorIs(t, svc.Revoke(ctx, pair.SessionID), apperrors.ErrNotFound)
}

func TestSessionDeleteExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := &models.User{Email: "admin@asociacion.pe", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	issuer, err := NewSessionService(db, jwtSvc, SessionConfig{
		RefreshTTL: time.Hour,
		Clock:      func() time.Time { return past },
	})
	require.NoError(t, err)

	_, err = issuer.Create(context.Background(), user.ID, "", "")
	require.NoError(t, err)

	current, err := NewSessionService(db, jwtSvc, SessionConfig{})
	require.NoError(t, err)

	removed, err := current.DeleteExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}
