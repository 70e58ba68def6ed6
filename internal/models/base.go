package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every table. Rows are hard-deleted.
type Base struct {
	ID        string    `json:"id"       gorm:"type:varchar(96);primaryKey"`
	CreatedAt time.Time `json:"created"  gorm:"index"`
	UpdatedAt time.Time `json:"modified"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

func (b *Base) Identity() string { return b.ID }

// ClearIdentity drops the key and timestamps so the row is inserted as new.
func (b *Base) ClearIdentity() { *b = Base{} }
