package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps is embedded by every soft-deletable entity. The gorm.DeletedAt
// field makes GORM add `deleted_at IS NULL` to every query on the table and
// turns Delete into an UPDATE.
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// IsDeleted reports whether the row has been soft-deleted.
func (t Timestamps) IsDeleted() bool {
	return t.DeletedAt.Valid
}

// MarkDeleted soft-deletes the row in memory.
func (t *Timestamps) MarkDeleted(at time.Time) {
	t.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
}

// Touch sets CreatedAt on first save and UpdatedAt on every save.
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
