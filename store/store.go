// Package store provides the client-side identity cache: a namespaced
// key-value store holding the scan token, session tokens, selected table,
// active order ids and cart contents that survive page reloads and
// navigation. The server stays authoritative; everything here is a cached
// projection.
package store

import "github.com/terra-dine/terra-ordering/models"

// Store is the capability the reconciliation logic is written against.
// Backends mirror browser localStorage semantics: reads never fail, a
// missing key is simply absent, and writes are last-write-wins.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
	Keys() []string
}

// Identity cache keys. Per-service-type keys are derived with the *Key
// helpers; the bare order keys are the legacy generic forms kept only for
// one-time migration.
const (
	KeyScanToken            = "terra_scanToken"
	KeySessionToken         = "terra_sessionToken"
	KeyTakeawaySessionToken = "terra_takeaway_sessionToken"
	KeySelectedTable        = "terra_selectedTable"
	KeyServiceType          = "terra_serviceType"
	KeyWaitToken            = "terra_waitToken"
	KeyLastPaidOrderID      = "terra_lastPaidOrderId"

	KeyOrderID        = "terra_orderId"
	KeyOrderStatus    = "terra_orderStatus"
	KeyOrderUpdatedAt = "terra_orderUpdatedAt"
	KeyCart           = "terra_cart"
	KeyLastOrder      = "terra_lastOrder"
)

// OrderIDKey returns the canonical per-service-type order id key
func OrderIDKey(st models.ServiceType) string {
	return KeyOrderID + "_" + string(st)
}

// OrderStatusKey returns the per-service-type order status key
func OrderStatusKey(st models.ServiceType) string {
	return KeyOrderStatus + "_" + string(st)
}

// OrderUpdatedAtKey returns the per-service-type status timestamp key
func OrderUpdatedAtKey(st models.ServiceType) string {
	return KeyOrderUpdatedAt + "_" + string(st)
}

// CartKey returns the per-service-type cart key
func CartKey(st models.ServiceType) string {
	return KeyCart + "_" + string(st)
}

// LastOrderKey returns the per-service-type previous-order snapshot key
func LastOrderKey(st models.ServiceType) string {
	return KeyLastOrder + "_" + string(st)
}

// RemoveAll removes every listed key from the store
func RemoveAll(s Store, keys ...string) {
	for _, key := range keys {
		s.Remove(key)
	}
}

// OrderKeys returns the three keys tracking the active order of a service
// type. They are always cleared together to avoid partial state.
func OrderKeys(st models.ServiceType) []string {
	return []string{OrderIDKey(st), OrderStatusKey(st), OrderUpdatedAtKey(st)}
}
