package store

import "github.com/terra-dine/terra-ordering/models"

// MigrateLegacyKeys folds the old generic order keys (terra_orderId,
// terra_orderStatus, terra_orderUpdatedAt) into the DINE_IN-specific keys
// and deletes the legacy forms. Older cached sessions wrote only the generic
// keys; after this one-time migration the per-service-type record is the
// single source of truth.
//
// A generic key never overwrites an existing service-specific value: if both
// are present the service-specific one is newer by construction.
func MigrateLegacyKeys(s Store) {
	migrate := func(legacy, canonical string) {
		v, ok := s.Get(legacy)
		if !ok {
			return
		}
		if _, exists := s.Get(canonical); !exists {
			s.Set(canonical, v)
		}
		s.Remove(legacy)
	}

	migrate(KeyOrderID, OrderIDKey(models.ServiceDineIn))
	migrate(KeyOrderStatus, OrderStatusKey(models.ServiceDineIn))
	migrate(KeyOrderUpdatedAt, OrderUpdatedAtKey(models.ServiceDineIn))
	migrate(KeyCart, CartKey(models.ServiceDineIn))
}
