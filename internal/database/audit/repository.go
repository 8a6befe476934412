// Package audit provides database operations for the audit event log.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/libreshelf/librarian/internal/entities"
)

// Repository handles all audit event database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new audit repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent persists a single audit event.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	return r.db.Create(event).Error
}

// GetRecentEvents returns the most recent audit events, newest first.
func (r *Repository) GetRecentEvents(limit int) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	events := []entities.AuditEvent{}
	err := r.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}

// GetEventsForUser returns audit events recorded for a user, newest first.
func (r *Repository) GetEventsForUser(userID uint, limit int) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	events := []entities.AuditEvent{}
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}

// DeleteOldEvents removes events older than the retention window and
// returns the number of rows deleted.
func (r *Repository) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
