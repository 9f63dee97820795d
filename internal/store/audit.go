package store

import (
	"context"

	"gorm.io/gorm"

	"haat/internal/models"
)

type AuditLogs struct{ db *gorm.DB }

type AuditFilter struct {
	Action string
	// UserID is the actor that performed the action.
	UserID string
	Limit  int
	Offset int
}

// List returns recent audit rows, newest first, plus the total matching f.
func (a *AuditLogs) List(ctx context.Context, f AuditFilter) ([]models.AuditLog, int64, error) {
	limit, offset := Page(f.Limit, f.Offset)
	q := a.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.AuditLog
	err := q.Order("created_at desc, id desc").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}
