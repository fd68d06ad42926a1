package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// MenuItem is a single orderable item in a store's public menu catalog
type MenuItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Category  string         `gorm:"index" json:"category"`
	Price     int64          `gorm:"not null" json:"price"` // minor units
	Available bool           `gorm:"not null;default:true" json:"available"`
	CartID    string         `gorm:"not null;index" json:"cart_id"`
	ImageURL  *string        `json:"image_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}

// Menu is the fetched public catalog the cart is priced against.
// Items are looked up by case-insensitive name because the cart stores only
// item names, not ids.
type Menu struct {
	CartID string     `json:"cart_id"`
	Items  []MenuItem `json:"items"`
}

// Find returns the menu item whose name matches (case-insensitive), if any
func (m *Menu) Find(name string) (MenuItem, bool) {
	for _, item := range m.Items {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return MenuItem{}, false
}
