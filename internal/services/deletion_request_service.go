package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/realtime"
	"github.com/lvaldez/padron/internal/storage"
	apperrors "github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/logger"
	"github.com/lvaldez/padron/pkg/metrics"
)

// Resolution decisions accepted by Resolve.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ResolveResult describes the outcome of a resolution.
type ResolveResult struct {
	Request        *models.DocumentDeletionRequest `json:"request"`
	CleanupPending bool                            `json:"cleanup_pending"`
}

// ListDeletionRequestsOptions filters the request listing.
type ListDeletionRequestsOptions struct {
	Status  string
	SocioID string
	Page    int
	PerPage int
}

// DeletionRequestService runs the two-step document removal workflow:
// engineers file a request, administrators approve or reject it. Approval
// removes the document row and its stored object.
type DeletionRequestService struct {
	db    *gorm.DB
	store storage.ObjectStore
	hub   *realtime.Hub
	audit *AuditService
	log   *zap.Logger
	now   func() time.Time
}

// NewDeletionRequestService constructs a DeletionRequestService.
func NewDeletionRequestService(db *gorm.DB, store storage.ObjectStore, hub *realtime.Hub, audit *AuditService) (*DeletionRequestService, error) {
	if db == nil {
		return nil, errors.New("deletion request service: db is required")
	}
	if store == nil {
		return nil, errors.New("deletion request service: object store is required")
	}
	return &DeletionRequestService{
		db:    db,
		store: store,
		hub:   hub,
		audit: audit,
		log:   logger.WithModule("deletion-requests"),
		now:   time.Now,
	}, nil
}

// Request files a deletion request for a document. Engineers only; admins
// delete documents directly. Multiple pending requests for the same
// document are allowed and resolve independently.
func (s *DeletionRequestService) Request(ctx context.Context, actor Actor, documentID string) (*models.DocumentDeletionRequest, error) {
	if !actor.HasRole(models.RoleEngineer) {
		return nil, apperrors.ErrPermissionDenied.WithMessage("only engineers can request document deletion")
	}

	var doc models.SocioDocumento
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("document not found")
		}
		return nil, fmt.Errorf("deletion request service: load document: %w", err)
	}
	if !models.IsManualDocumentType(doc.TipoDocumento) {
		return nil, apperrors.NewValidation("only manually uploaded document types can be requested for deletion")
	}
	if doc.LinkDocumento == "" {
		return nil, apperrors.NewValidation("document has no stored file to delete")
	}

	request := models.DocumentDeletionRequest{
		DocumentID:    doc.ID,
		DocumentType:  doc.TipoDocumento,
		DocumentLink:  doc.LinkDocumento,
		SocioID:       doc.SocioID,
		RequestedBy:   actor.ID,
		RequestStatus: models.DeletionPending,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, fmt.Errorf("deletion request service: create: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastStream(realtime.StreamDeletionRequests, realtime.Message{
			Event: realtime.EventDeletionRequested,
			Data:  request,
		})
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "deletion_request.create", "deletion_request", request.ID,
			map[string]any{"document_id": doc.ID, "socio_id": doc.SocioID})
	}
	return &request, nil
}

// Resolve approves or rejects a pending request. Admin only. The status
// flip is a conditional update on the pending state, so two concurrent
// resolutions cannot both win. On approval the document row is removed and
// the object deleted; if the object cannot be removed the request is marked
// cleanup-pending instead of failing.
func (s *DeletionRequestService) Resolve(ctx context.Context, actor Actor, requestID, decision string) (*ResolveResult, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrPermissionDenied.WithMessage("only administrators can resolve deletion requests")
	}

	var status string
	switch decision {
	case DecisionApprove:
		status = models.DeletionApproved
	case DecisionReject:
		status = models.DeletionRejected
	default:
		return nil, apperrors.NewValidation("decision must be approve or reject")
	}

	var request models.DocumentDeletionRequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("deletion request not found")
		}
		return nil, fmt.Errorf("deletion request service: load: %w", err)
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.DocumentDeletionRequest{}).
		Where("id = ? AND request_status = ?", requestID, models.DeletionPending).
		Updates(map[string]any{
			"request_status": status,
			"approved_by":    actor.ID,
			"approved_at":    now,
		})
	if result.Error != nil {
		metrics.DeletionResolutions.WithLabelValues(decision, "error").Inc()
		return nil, fmt.Errorf("deletion request service: resolve: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		metrics.DeletionResolutions.WithLabelValues(decision, "conflict").Inc()
		return nil, apperrors.ErrInvalidStateTransition.WithMessage("request has already been resolved")
	}

	request.RequestStatus = status
	request.ApprovedBy = &actor.ID
	request.ApprovedAt = &now

	cleanupPending := false
	if status == models.DeletionApproved {
		cleanupPending = s.removeDocument(ctx, &request)
	}

	metrics.DeletionResolutions.WithLabelValues(decision, "success").Inc()
	if s.hub != nil {
		s.hub.BroadcastStream(realtime.StreamDeletionRequests, realtime.Message{
			Event: realtime.EventDeletionResolved,
			Data:  request,
		})
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "deletion_request.resolve", "deletion_request", request.ID,
			map[string]any{"decision": decision, "cleanup_pending": cleanupPending})
	}
	return &ResolveResult{Request: &request, CleanupPending: cleanupPending}, nil
}

// removeDocument deletes the document row and its object after approval.
// Returns true when the object could not be removed.
func (s *DeletionRequestService) removeDocument(ctx context.Context, request *models.DocumentDeletionRequest) bool {
	var doc models.SocioDocumento
	err := s.db.WithContext(ctx).First(&doc, "id = ?", request.DocumentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Already gone, nothing left to clean up.
		return false
	}
	if err != nil {
		s.log.Warn("load document for removal", zap.String("request_id", request.ID), zap.Error(err))
		return s.markCleanupPending(ctx, request)
	}

	if err := s.db.WithContext(ctx).Delete(&models.SocioDocumento{}, "id = ?", doc.ID).Error; err != nil {
		s.log.Warn("delete document row", zap.String("request_id", request.ID), zap.Error(err))
		return s.markCleanupPending(ctx, request)
	}

	if doc.StorageKey != "" {
		if err := s.store.Delete(ctx, doc.StorageBucket, doc.StorageKey); err != nil {
			s.log.Warn("delete stored object",
				zap.String("bucket", doc.StorageBucket),
				zap.String("key", doc.StorageKey), zap.Error(err))
			return s.markCleanupPending(ctx, request)
		}
	}
	return false
}

func (s *DeletionRequestService) markCleanupPending(ctx context.Context, request *models.DocumentDeletionRequest) bool {
	request.CleanupPending = true
	if err := s.db.WithContext(ctx).
		Model(&models.DocumentDeletionRequest{}).
		Where("id = ?", request.ID).
		Update("cleanup_pending", true).Error; err != nil {
		s.log.Error("mark cleanup pending", zap.String("request_id", request.ID), zap.Error(err))
	}
	return true
}

// Get loads one request with its socio.
func (s *DeletionRequestService) Get(ctx context.Context, id string) (*models.DocumentDeletionRequest, error) {
	var request models.DocumentDeletionRequest
	if err := s.db.WithContext(ctx).
		Preload("Socio").
		First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("deletion request not found")
		}
		return nil, fmt.Errorf("deletion request service: get: %w", err)
	}
	return &request, nil
}

// List returns requests matching the filters, newest first.
func (s *DeletionRequestService) List(ctx context.Context, opts ListDeletionRequestsOptions) ([]models.DocumentDeletionRequest, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.DocumentDeletionRequest{})
	if opts.Status != "" {
		query = query.Where("request_status = ?", opts.Status)
	}
	if opts.SocioID != "" {
		query = query.Where("socio_id = ?", opts.SocioID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("deletion request service: count: %w", err)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	var requests []models.DocumentDeletionRequest
	if err := query.
		Preload("Socio").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("deletion request service: list: %w", err)
	}
	return requests, total, nil
}

// PendingCount returns how many requests await resolution.
func (s *DeletionRequestService) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.DocumentDeletionRequest{}).
		Where("request_status = ?", models.DeletionPending).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("deletion request service: pending count: %w", err)
	}
	return count, nil
}

// PurgeResolved removes terminal requests resolved before the cutoff.
// Requests still flagged cleanup-pending are kept for the operator.
func (s *DeletionRequestService) PurgeResolved(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("request_status IN ? AND cleanup_pending = ? AND approved_at < ?",
			[]string{models.DeletionApproved, models.DeletionRejected}, false, before).
		Delete(&models.DocumentDeletionRequest{})
	if result.Error != nil {
		return 0, fmt.Errorf("deletion request service: purge: %w", result.Error)
	}
	return result.RowsAffected, nil
}
