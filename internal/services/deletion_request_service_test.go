package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/database/testutil"
	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/storage"
	apperrors "github.com/lvaldez/padron/pkg/errors"
)

func newDeletionFixture(t *testing.T) (*DeletionRequestService, *DocumentService, *storage.MemoryStore, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := storage.NewMemoryStore()

	docs, err := NewDocumentService(db, store, nil, nil)
	require.NoError(t, err)
	requests, err := NewDeletionRequestService(db, store, nil, nil)
	require.NoError(t, err)
	return requests, docs, store, db
}

func uploadedDocument(t *testing.T, docs *DocumentService, db *gorm.DB, dni string) *models.SocioDocumento {
	t.Helper()
	socio := createSocio(t, db, dni)
	doc, err := docs.Upload(context.Background(), engineerActor,
		uploadInput(socio.ID, models.DocumentoPlanos, "contenido"))
	require.NoError(t, err)
	return doc
}

func TestRequestRequiresEngineerRole(t *testing.T) {
	requests, docs, _, db := newDeletionFixture(t)
	doc := uploadedDocument(t, docs, db, "12345678")

	_, err := requests.Request(context.Background(), finanzasActor, doc.ID)
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = requests.Request(context.Background(), adminActor, doc.ID)
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestRequestCreatesPendingEntry(t *testing.T) {
	requests, docs, _, db := newDeletionFixture(t)
	ctx := context.Background()
	doc := uploadedDocument(t, docs, db, "12345678")

	request, err := requests.Request(ctx, engineerActor, doc.ID)
	require.NoError(t, err)
	require.Equal(t, models.DeletionPending, request.RequestStatus)
	require.Equal(t, doc.ID, request.DocumentID)
	require.Equal(t, doc.LinkDocumento, request.DocumentLink)
	require.Equal(t, engineerActor.ID, request.RequestedBy)
	require.Nil(t, request.ApprovedBy)

	count, err := requests.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	// Duplicate pending requests for the same document are allowed.
	_, err = requests.Request(ctx, engineerActor, doc.ID)
	require.NoError(t, err)
	count, err = requests.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestRequestRejectsSystemDocumentTypes(t *testing.T) {
	requests, _, _, db := newDeletionFixture(t)
	socio := createSocio(t, db, "12345678")

	for _, tipo := range []string{models.DocumentoFicha, models.DocumentoContrato, models.DocumentoComprobante} {
		doc := models.SocioDocumento{
			SocioID:       socio.ID,
			TipoDocumento: tipo,
			LinkDocumento: "memory://documentos/" + tipo,
		}
		require.NoError(t, db.Create(&doc).Error)

		_, err := requests.Request(context.Background(), engineerActor, doc.ID)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	}

	var count int64
	require.NoError(t, db.Model(&models.DocumentDeletionRequest{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRequestUnknownDocument(t *testing.T) {
	requests, _, _, _ := newDeletionFixture(t)

	_, err := requests.Request(context.Background(), engineerActor, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResolveApproveDeletesDocumentAndObject(t *testing.T) {
	requests, docs, store, db := newDeletionFixture(t)
	ctx := context.Background()
	doc := uploadedDocument(t, docs, db, "12345678")

	request, err := requests.Request(ctx, engineerActor, doc.ID)
	require.NoError(t, err)

	result, err := requests.Resolve(ctx, adminActor, request.ID, DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, models.DeletionApproved, result.Request.RequestStatus)
	require.False(t, result.CleanupPending)
	require.NotNil(t, result.Request.ApprovedAt)
	require.Equal(t, adminActor.ID, *result.Request.ApprovedBy)

	_, err = docs.Get(ctx, doc.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.Zero(t, store.Len())
}

func TestResolveRejectLeavesDocumentUntouched(t *testing.T) {
	requests, docs, store, db := newDeletionFixture(t)
	ctx := context.Background()
	doc := uploadedDocument(t, docs, db, "12345678")

	request, err := requests.Request(ctx, engineerActor, doc.ID)
	require.NoError(t, err)

	result, err := requests.Resolve(ctx, adminActor, request.ID, DecisionReject)
	require.NoError(t, err)
	require.Equal(t, models.DeletionRejected, result.Request.RequestStatus)

	_, err = docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
}

func TestResolveRequiresAdmin(t *testing.T) {
	requests, docs, _, db := newDeletionFixture(t)
	ctx := context.Background()
	doc := uploadedDocument(t, docs, db, "12345678")

	request, err := requests.Request(ctx, engineerActor, doc.ID)
	require.NoError(t, err)

	_, err = requests.Resolve(ctx, engineerActor, request.ID, DecisionApprove)
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestResolveTwiceConflicts(t *testing.T) {
	requests, docs, _, db := newDeletionFixture(t)
	ctx := context.Background()
	doc := uploadedDocument(t, docs, db, "12345678")

	request, err := requests.Request(ctx, engineerActor, doc.ID)
	require.NoError(t, err)

	_, err = requests.Resolve(ctx, adminActor, request.ID, DecisionReject)
	require.NoError(t, err)

	_, err = requests.Resolve(ctx, adminActor, request.ID, DecisionApprove)
	require.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestResolveInvalidDecision(t *testing.T) {
	requests, docs, _, db := newDeletionFixture(t)
	ctx := context.Background()
	doc := uploadedDocument(t, docs, db, "12345678")

	request, err := requests.Request(ctx, engineerActor, doc.ID)
	require.NoError(t, err)

	_, err = requests.Resolve(ctx, adminActor, request.ID, "maybe")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestResolveApproveMarksCleanupPendingOnObjectFailure(t *testing.T) {
	requests, docs, store, db := newDeletionFixture(t)
	ctx := context.Background()
	doc := uploadedDocument(t, docs, db, "12345678")

	request, err := requests.Request(ctx, engineerActor, doc.ID)
	require.NoError(t, err)

	// Remove the object out of band so the approval cleanup fails.
	require.NoError(t, store.Delete(ctx, doc.StorageBucket, doc.StorageKey))

	result, err := requests.Resolve(ctx, adminActor, request.ID, DecisionApprove)
	require.NoError(t, err)
	require.True(t, result.CleanupPending)

	stored, err := requests.Get(ctx, request.ID)
	require.NoError(t, err)
	require.True(t, stored.CleanupPending)
	require.Equal(t, models.DeletionApproved, stored.RequestStatus)
}

func TestListFiltersByStatus(t *testing.T) {
	requests, docs, _, db := newDeletionFixture(t)
	ctx := context.Background()

	first := uploadedDocument(t, docs, db, "11111111")
	second := uploadedDocument(t, docs, db, "22222222")

	r1, err := requests.Request(ctx, engineerActor, first.ID)
	require.NoError(t, err)
	_, err = requests.Request(ctx, engineerActor, second.ID)
	require.NoError(t, err)

	_, err = requests.Resolve(ctx, adminActor, r1.ID, DecisionReject)
	require.NoError(t, err)

	pending, total, err := requests.List(ctx, ListDeletionRequestsOptions{Status: models.DeletionPending})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, second.ID, pending[0].DocumentID)
	require.NotNil(t, pending[0].Socio)
}

func TestPurgeResolvedKeepsPendingAndCleanupRows(t *testing.T) {
	requests, docs, store, db := newDeletionFixture(t)
	ctx := context.Background()

	resolved := uploadedDocument(t, docs, db, "11111111")
	pending := uploadedDocument(t, docs, db, "22222222")
	cleanup := uploadedDocument(t, docs, db, "33333333")

	rResolved, err := requests.Request(ctx, engineerActor, resolved.ID)
	require.NoError(t, err)
	_, err = requests.Request(ctx, engineerActor, pending.ID)
	require.NoError(t, err)
	rCleanup, err := requests.Request(ctx, engineerActor, cleanup.ID)
	require.NoError(t, err)

	_, err = requests.Resolve(ctx, adminActor, rResolved.ID, DecisionReject)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, cleanup.StorageBucket, cleanup.StorageKey))
	result, err := requests.Resolve(ctx, adminActor, rCleanup.ID, DecisionApprove)
	require.NoError(t, err)
	require.True(t, result.CleanupPending)

	removed, err := requests.PurgeResolved(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining int64
	require.NoError(t, db.Model(&models.DocumentDeletionRequest{}).Count(&remaining).Error)
	require.EqualValues(t, 2, remaining)
}
