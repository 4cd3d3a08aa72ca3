package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/lvaldez/padron/internal/auth"
	"github.com/lvaldez/padron/internal/database/testutil"
	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/realtime"
	"github.com/lvaldez/padron/internal/services"
	"github.com/lvaldez/padron/internal/storage"
)

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}

func seedSocio(t *testing.T, db *gorm.DB, dni string) string {
	t.Helper()

	socio := models.SocioTitular{
		DNI:             dni,
		Nombres:         "Rosa",
		ApellidoPaterno: "Quispe",
	}
	require.NoError(t, db.Create(&socio).Error)
	return socio.ID
}

func seedDeletionRequest(t *testing.T, db *gorm.DB, socioID, status string, approvedAt time.Time, cleanupPending bool) string {
	t.Helper()

	request := models.DocumentDeletionRequest{
		DocumentID:     "doc-" + status + "-" + socioID[:8],
		DocumentType:   "Planos de ubicación",
		DocumentLink:   "memory://planos/doc.pdf",
		SocioID:        socioID,
		RequestedBy:    "engineer-1",
		RequestStatus:  status,
		CleanupPending: cleanupPending,
	}
	if status != models.DeletionPending {
		request.ApprovedAt = &approvedAt
		approver := "admin-1"
		request.ApprovedBy = &approver
	}
	require.NoError(t, db.Create(&request).Error)
	return request.ID
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	clock := fixedClock{current: time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)}

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "cleanup-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{
		RefreshTTL: time.Hour,
		Clock:      clock.Now,
	})
	require.NoError(t, err)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	requestSvc, err := services.NewDeletionRequestService(db, storage.NewMemoryStore(), realtime.NewHub(), audit)
	require.NoError(t, err)

	expired, err := sessionSvc.Create(context.Background(), "user-1", "127.0.0.1", "test")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", expired.SessionID).
		Update("expires_at", clock.Now().Add(-2*time.Hour)).Error)

	active, err := sessionSvc.Create(context.Background(), "user-1", "127.0.0.1", "test")
	require.NoError(t, err)

	socioID := seedSocio(t, db, "45678912")
	oldResolved := seedDeletionRequest(t, db, socioID, models.DeletionApproved, clock.Now().AddDate(0, -4, 0), false)
	recentResolved := seedDeletionRequest(t, db, socioID, models.DeletionRejected, clock.Now().AddDate(0, 0, -1), false)
	pending := seedDeletionRequest(t, db, socioID, models.DeletionPending, time.Time{}, false)
	stuck := seedDeletionRequest(t, db, socioID, models.DeletionApproved, clock.Now().AddDate(0, -4, 0), true)

	c := NewCleaner(sessionSvc, requestSvc,
		WithNow(clock.Now),
		WithRequestRetention(90*24*time.Hour),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)
	require.NoError(t, c.RunOnce(context.Background()))

	var session models.Session
	err = db.First(&session, "id = ?", expired.SessionID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, db.First(&session, "id = ?", active.SessionID).Error)

	var request models.DocumentDeletionRequest
	err = db.First(&request, "id = ?", oldResolved).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// recent, pending and cleanup-pending requests all survive the purge
	for _, id := range []string{recentResolved, pending, stuck} {
		require.NoError(t, db.First(&request, "id = ?", id).Error)
	}
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "cleanup-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{})
	require.NoError(t, err)

	c := NewCleaner(sessionSvc, nil, WithSchedule("not a cron spec"))
	require.Error(t, c.Start())
}

func TestCleanerWithoutDependenciesIsNoop(t *testing.T) {
	c := NewCleaner(nil, nil)
	require.NoError(t, c.Start())
	require.NoError(t, c.RunOnce(context.Background()))
	c.Stop()
}
