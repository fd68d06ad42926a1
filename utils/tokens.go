package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewSessionToken issues an opaque session token. Tokens are compared
// byte-for-byte and carry no claims.
func NewSessionToken() string {
	return "sess_" + uuid.NewString()
}

// NewWaitToken issues an opaque waitlist token
func NewWaitToken() string {
	return "wait_" + uuid.NewString()
}

// NewTakeawayToken issues the short pickup code shown to takeaway customers
func NewTakeawayToken() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// NewQRSlug issues the opaque slug encoded in a table's QR code
func NewQRSlug() string {
	return "tbl_" + uuid.NewString()
}
