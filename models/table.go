package models

import (
	"time"

	"gorm.io/gorm"
)

// TableStatus is the occupancy state of a physical table
type TableStatus string

const (
	TableAvailable TableStatus = "AVAILABLE"
	TableOccupied  TableStatus = "OCCUPIED"
)

// Table represents a physical restaurant table identified by a QR slug.
// The cached client copy is discarded whenever a different table is scanned
// or payment completes.
type Table struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Number       int            `gorm:"not null" json:"number"`
	Name         *string        `json:"name,omitempty"`
	QRSlug       string         `gorm:"uniqueIndex;not null" json:"qr_slug"`
	CartID       string         `gorm:"not null;index" json:"cart_id"` // store/menu the table belongs to
	Status       TableStatus    `gorm:"not null;default:'AVAILABLE'" json:"status"`
	SessionToken *string        `json:"session_token,omitempty"` // set while occupied
	Capacity     *int           `json:"capacity,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Table model
func (Table) TableName() string {
	return "tables"
}

// Validate checks that a looked-up table carries the fields the client
// relies on. A descriptor without an id or number is treated as corrupt.
func (t *Table) Validate() bool {
	return t.ID != 0 && t.Number != 0
}
