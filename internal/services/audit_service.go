package services

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/pkg/logger"
)

// AuditService persists administrative actions for later review. Recording
// is best effort: a failed audit write never fails the originating request.
type AuditService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, log: logger.WithModule("audit")}, nil
}

// Record writes an audit entry.
func (s *AuditService) Record(ctx context.Context, userID, action, resource, targetID string, metadata map[string]any) {
	entry := models.AuditLog{
		UserID:   userID,
		Action:   action,
		Resource: resource,
		TargetID: targetID,
	}

	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			s.log.Warn("marshal metadata", zap.String("action", action), zap.Error(err))
		} else {
			entry.Metadata = raw
		}
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("record entry", zap.String("action", action), zap.Error(err))
	}
}

// List returns recent audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []models.AuditLog
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
