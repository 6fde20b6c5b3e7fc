package grading

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type AuditLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.AuditLog) error
	ListByEntity(ctx context.Context, tx *gorm.DB, entityType, entityID string) ([]*types.AuditLog, error)
}

type auditLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return &auditLogRepo{db: db, log: baseLog.With("repo", "AuditLogRepo")}
}

func (r *auditLogRepo) Create(ctx context.Context, tx *gorm.DB, row *types.AuditLog) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *auditLogRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entityType, entityID string) ([]*types.AuditLog, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.AuditLog
	if err := t.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
