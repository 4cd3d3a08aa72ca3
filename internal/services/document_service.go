package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/realtime"
	"github.com/lvaldez/padron/internal/storage"
	apperrors "github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/logger"
	"github.com/lvaldez/padron/pkg/metrics"
)

// UploadDocumentInput carries one file upload for a socio.
type UploadDocumentInput struct {
	SocioID       string
	TipoDocumento string
	FileName      string
	ContentType   string
	Size          int64
	Content       io.Reader
}

// BulkMeasuredResult reports the outcome of a bulk measured-state change.
type BulkMeasuredResult struct {
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// DocumentService manages socio documents and the derived measured state of
// their lots. A lot counts as measured when a qualifying document (planos or
// memoria with a stored link) exists or the manual flag is set.
type DocumentService struct {
	db    *gorm.DB
	store storage.ObjectStore
	hub   *realtime.Hub
	audit *AuditService
	log   *zap.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *gorm.DB, store storage.ObjectStore, hub *realtime.Hub, audit *AuditService) (*DocumentService, error) {
	if db == nil {
		return nil, errors.New("document service: db is required")
	}
	if store == nil {
		return nil, errors.New("document service: object store is required")
	}
	return &DocumentService{
		db:    db,
		store: store,
		hub:   hub,
		audit: audit,
		log:   logger.WithModule("documents"),
	}, nil
}

// Upload stores a document file and upserts its row for (socio, tipo). A
// previous upload of the same type is replaced. The object is written first
// and removed again if the database update fails.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, input UploadDocumentInput) (*models.SocioDocumento, error) {
	if !models.IsManualDocumentType(input.TipoDocumento) {
		metrics.DocumentUploads.WithLabelValues(input.TipoDocumento, "rejected").Inc()
		return nil, apperrors.NewValidation("tipo_documento is not manually uploadable")
	}
	if input.Content == nil {
		return nil, apperrors.NewValidation("file content is required")
	}

	var socio models.SocioTitular
	if err := s.db.WithContext(ctx).First(&socio, "id = ?", input.SocioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("socio not found")
		}
		return nil, fmt.Errorf("document service: load socio: %w", err)
	}

	// Remember the replaced object so it can be removed after the upsert.
	var previous models.SocioDocumento
	hadPrevious := true
	if err := s.db.WithContext(ctx).
		First(&previous, "socio_id = ? AND tipo_documento = ?", input.SocioID, input.TipoDocumento).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document service: load previous: %w", err)
		}
		hadPrevious = false
	}

	bucket := models.BucketForDocumentType(input.TipoDocumento)
	key := fmt.Sprintf("%s/%s_%s", input.SocioID, uuid.NewString(), sanitizeFileName(input.FileName))

	url, err := s.store.Put(ctx, bucket, key, input.Content, input.Size, input.ContentType)
	if err != nil {
		metrics.DocumentUploads.WithLabelValues(input.TipoDocumento, "error").Inc()
		return nil, apperrors.ErrUpstreamFailure.WithMessage("could not store the document").WithInternal(err)
	}

	doc := models.SocioDocumento{
		SocioID:       input.SocioID,
		TipoDocumento: input.TipoDocumento,
		LinkDocumento: url,
		StorageBucket: bucket,
		StorageKey:    key,
		UploadedByID:  actor.ID,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "socio_id"}, {Name: "tipo_documento"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"link_documento", "storage_bucket", "storage_key", "uploaded_by_id", "updated_at",
		}),
	}).Create(&doc).Error
	if err != nil {
		// Roll the stored object back so no orphan remains.
		if delErr := s.store.Delete(ctx, bucket, key); delErr != nil {
			s.log.Warn("compensating delete failed",
				zap.String("bucket", bucket), zap.String("key", key), zap.Error(delErr))
		}
		metrics.DocumentUploads.WithLabelValues(input.TipoDocumento, "error").Inc()
		return nil, fmt.Errorf("document service: upsert: %w", err)
	}

	if hadPrevious && previous.StorageKey != "" && previous.StorageKey != key {
		if delErr := s.store.Delete(ctx, previous.StorageBucket, previous.StorageKey); delErr != nil {
			s.log.Warn("removing replaced object failed",
				zap.String("bucket", previous.StorageBucket),
				zap.String("key", previous.StorageKey), zap.Error(delErr))
		}
	}

	// The upsert path does not report the surviving row id, so reload it.
	var stored models.SocioDocumento
	if err := s.db.WithContext(ctx).
		First(&stored, "socio_id = ? AND tipo_documento = ?", input.SocioID, input.TipoDocumento).Error; err != nil {
		return nil, fmt.Errorf("document service: reload: %w", err)
	}

	metrics.DocumentUploads.WithLabelValues(input.TipoDocumento, "success").Inc()
	if s.hub != nil {
		s.hub.BroadcastStream(realtime.StreamDocuments, realtime.Message{
			Event: realtime.EventDocumentUploaded,
			Data:  stored,
		})
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "document.upload", "document", stored.ID,
			map[string]any{"socio_id": input.SocioID, "tipo": input.TipoDocumento})
	}
	return &stored, nil
}

// Get loads one document.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.SocioDocumento, error) {
	var doc models.SocioDocumento
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("document not found")
		}
		return nil, fmt.Errorf("document service: get: %w", err)
	}
	return &doc, nil
}

// ListForSocio returns all documents attached to a socio.
func (s *DocumentService) ListForSocio(ctx context.Context, socioID string) ([]models.SocioDocumento, error) {
	var docs []models.SocioDocumento
	if err := s.db.WithContext(ctx).
		Where("socio_id = ?", socioID).
		Order("tipo_documento").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("document service: list: %w", err)
	}
	return docs, nil
}

// Delete removes a document row and its backing object. Admin only;
// engineers go through the deletion-request workflow instead.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin() {
		return apperrors.ErrPermissionDenied.WithMessage("only administrators can delete documents directly")
	}

	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.SocioDocumento{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("document service: delete: %w", err)
	}

	if doc.StorageKey != "" {
		if delErr := s.store.Delete(ctx, doc.StorageBucket, doc.StorageKey); delErr != nil {
			s.log.Warn("object removal failed after row delete",
				zap.String("bucket", doc.StorageBucket),
				zap.String("key", doc.StorageKey), zap.Error(delErr))
		}
	}

	if s.hub != nil {
		s.hub.BroadcastStream(realtime.StreamDocuments, realtime.Message{
			Event: realtime.EventDocumentDeleted,
			Data:  doc,
		})
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "document.delete", "document", id,
			map[string]any{"socio_id": doc.SocioID, "tipo": doc.TipoDocumento})
	}
	return nil
}

// MeasuredState reports the effective measured state for a socio's lot.
func (s *DocumentService) MeasuredState(ctx context.Context, socioID string) (bool, error) {
	var socio models.SocioTitular
	if err := s.db.WithContext(ctx).
		Preload("Documentos").
		First(&socio, "id = ?", socioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrNotFound.WithMessage("socio not found")
		}
		return false, fmt.Errorf("document service: measured state: %w", err)
	}
	return EffectiveMeasuredState(&socio), nil
}

// SetMeasuredState flips the manual measured flag for one socio. Unmarking
// is refused while qualifying documents remain on file. Admins and
// engineers only.
func (s *DocumentService) SetMeasuredState(ctx context.Context, actor Actor, socioID string, measured bool) error {
	if !actor.IsAdmin() && !actor.HasRole(models.RoleEngineer) {
		return apperrors.ErrPermissionDenied.WithMessage("only administrators or engineers can change the measured state")
	}
	_, err := s.applyMeasuredState(ctx, actor, socioID, measured)
	return err
}

// applyMeasuredState reports whether a write happened; a flag already in the
// requested state is a no-op, not an update.
func (s *DocumentService) applyMeasuredState(ctx context.Context, actor Actor, socioID string, measured bool) (bool, error) {
	var socio models.SocioTitular
	if err := s.db.WithContext(ctx).
		Preload("Documentos").
		First(&socio, "id = ?", socioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrNotFound.WithMessage("socio not found")
		}
		return false, fmt.Errorf("document service: load socio: %w", err)
	}

	if !measured && hasQualifyingDocuments(socio.Documentos) {
		return false, apperrors.ErrInvalidStateTransition.WithMessage("cannot unmark: qualifying documents still present")
	}
	if socio.IsLoteMedido == measured {
		return false, nil
	}

	if err := s.db.WithContext(ctx).
		Model(&models.SocioTitular{}).
		Where("id = ?", socioID).
		Update("is_lote_medido", measured).Error; err != nil {
		return false, fmt.Errorf("document service: set measured: %w", err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "socio.set_measured", "socio", socioID,
			map[string]any{"measured": measured})
	}
	return true, nil
}

// BulkSetMeasuredState applies a measured-state change to many socios.
// Socios that cannot be changed are counted as skipped rather than failing
// the whole batch.
func (s *DocumentService) BulkSetMeasuredState(ctx context.Context, actor Actor, socioIDs []string, measured bool) (*BulkMeasuredResult, error) {
	if !actor.IsAdmin() && !actor.HasRole(models.RoleEngineer) {
		return nil, apperrors.ErrPermissionDenied.WithMessage("only administrators or engineers can change the measured state")
	}

	result := &BulkMeasuredResult{Requested: len(socioIDs)}
	for _, id := range socioIDs {
		changed, err := s.applyMeasuredState(ctx, actor, id, measured)
		switch {
		case err == nil && changed:
			result.Updated++
		case err == nil:
			result.Unchanged++
		case errors.Is(err, apperrors.ErrInvalidStateTransition), errors.Is(err, apperrors.ErrNotFound):
			result.Skipped++
		default:
			return nil, err
		}
	}
	return result, nil
}

// EffectiveMeasuredState derives the measured state from the loaded
// documents and the manual flag.
func EffectiveMeasuredState(socio *models.SocioTitular) bool {
	if socio == nil {
		return false
	}
	return socio.IsLoteMedido || hasQualifyingDocuments(socio.Documentos)
}

func hasQualifyingDocuments(docs []models.SocioDocumento) bool {
	for _, doc := range docs {
		if doc.Qualifies() {
			return true
		}
	}
	return false
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		return "documento"
	}
	return name
}
