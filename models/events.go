package models

// WebSocket event names pushed by the backend per cartId room
const (
	EventOrderUpdated       = "orderUpdated"
	EventOrderAccepted      = "ORDER_ACCEPTED"
	EventOrderDeleted       = "orderDeleted"
	EventTableStatusUpdated = "table:status:updated"
)

// StatusEvent is the envelope pushed over the WebSocket channel. Exactly one
// of Order or Table is set depending on the event name.
type StatusEvent struct {
	Event  string `json:"event"`
	CartID string `json:"cart_id"`
	Order  *Order `json:"order,omitempty"`
	Table  *Table `json:"table,omitempty"`
}

// WaitlistInfo describes the caller's position when a table is occupied.
// The client surfaces it but never auto-joins a waitlist.
type WaitlistInfo struct {
	Position  int    `json:"position"`
	WaitToken string `json:"wait_token"`
}

// LookupResult is the table lookup response shape, returned with HTTP 200
// when the table is available and 423 when it is locked (occupied).
type LookupResult struct {
	Table        Table         `json:"table"`
	SessionToken *string       `json:"session_token,omitempty"`
	Waitlist     *WaitlistInfo `json:"waitlist,omitempty"`
}
