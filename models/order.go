package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the server-driven lifecycle state of an order.
// The client only reads and reflects it, except for the customer-initiated
// Cancelled/Returned transitions.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusPreparing OrderStatus = "Preparing"
	StatusReady     OrderStatus = "Ready"
	StatusServed    OrderStatus = "Served"
	StatusFinalized OrderStatus = "Finalized"
	StatusPaid      OrderStatus = "Paid"
	StatusCancelled OrderStatus = "Cancelled"
	StatusReturned  OrderStatus = "Returned"
)

// Terminal reports whether the status ends the order's lifecycle. Once an
// order reaches a terminal status a new order id is required to continue.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusPaid, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// AllowsAppend reports whether new KOT lines may still be added to an order
// in this status. Terminal statuses force creation of a brand-new order.
func (s OrderStatus) AllowsAppend() bool {
	return s != "" && !s.Terminal()
}

// AllowsCustomerCancel reports whether the customer may still request
// cancellation. Once the kitchen has started preparing, cancellation
// requires a return instead.
func (s OrderStatus) AllowsCustomerCancel() bool {
	return s == StatusPending || s == StatusConfirmed
}

// AllowsCustomerReturn reports whether the customer may request a return
func (s OrderStatus) AllowsCustomerReturn() bool {
	return s == StatusServed || s == StatusFinalized
}

// KOTLine is a single line of a kitchen order ticket. A customer order
// accumulates KOT lines over its lifetime as items are appended.
type KOTLine struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OrderID  uint   `gorm:"not null;index" json:"order_id"`
	Name     string `gorm:"not null" json:"name"`
	Quantity int    `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price    int64  `gorm:"not null" json:"price"` // unit price in minor units
	Returned bool   `gorm:"not null;default:false" json:"returned"`
}

// TableName specifies the table name for the KOTLine model
func (KOTLine) TableName() string {
	return "kot_lines"
}

// Order represents a customer order as cached client-side and as stored by
// the development backend. The server copy is authoritative.
type Order struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Status          OrderStatus    `gorm:"not null;default:'Pending'" json:"status"`
	ServiceType     ServiceType    `gorm:"not null;index" json:"service_type"`
	SessionToken    string         `gorm:"index" json:"session_token"`
	TakeawayToken   *string        `json:"takeaway_token,omitempty"` // pickup code shown to takeaway customers
	CartID          string         `gorm:"index" json:"cart_id"`
	TableID         *uint          `gorm:"index" json:"table_id,omitempty"`
	TableNumber     *int           `json:"table_number,omitempty"`
	CustomerName    *string        `json:"customer_name,omitempty"`
	CustomerMobile  *string        `json:"customer_mobile,omitempty"`
	DeliveryAddress *string        `json:"delivery_address,omitempty"`
	KOTLines        []KOTLine      `gorm:"foreignKey:OrderID" json:"kot_lines"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Total returns the order total in minor units, counting active lines only
func (o *Order) Total() int64 {
	var total int64
	for _, line := range o.KOTLines {
		if !line.Returned {
			total += line.Price * int64(line.Quantity)
		}
	}
	return total
}

// MergedLine is a display-level aggregate of all KOT lines that share an
// item name. Active and returned quantities are summed separately and are
// never mixed into one total.
type MergedLine struct {
	Name             string `json:"name"`
	ActiveQuantity   int    `json:"active_quantity"`
	ReturnedQuantity int    `json:"returned_quantity"`
	Price            int64  `json:"price"`
	Returned         bool   `json:"returned"` // true if any line of this item was returned
}

// MergeKOTLines folds KOT lines by item name (case-insensitive) into
// display aggregates, preserving first-seen order of the names.
func MergeKOTLines(lines []KOTLine) []MergedLine {
	byName := make(map[string]*MergedLine)
	var ordered []*MergedLine

	for _, line := range lines {
		key := strings.ToLower(line.Name)
		agg, ok := byName[key]
		if !ok {
			agg = &MergedLine{Name: line.Name, Price: line.Price}
			byName[key] = agg
			ordered = append(ordered, agg)
		}
		if line.Returned {
			agg.ReturnedQuantity += line.Quantity
			agg.Returned = true
		} else {
			agg.ActiveQuantity += line.Quantity
		}
	}

	merged := make([]MergedLine, 0, len(ordered))
	for _, agg := range ordered {
		merged = append(merged, *agg)
	}
	return merged
}
