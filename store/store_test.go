package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/terra-dine/terra-ordering/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get(KeyScanToken)
	assert.False(t, ok, "Empty store should have no keys")

	s.Set(KeyScanToken, "tbl-7-slug")
	v, ok := s.Get(KeyScanToken)
	assert.True(t, ok)
	assert.Equal(t, "tbl-7-slug", v)

	s.Remove(KeyScanToken)
	_, ok = s.Get(KeyScanToken)
	assert.False(t, ok, "Removed key should be absent")

	// Removing again is a no-op
	s.Remove(KeyScanToken)
}

func TestServiceTypeKeys(t *testing.T) {
	assert.Equal(t, "terra_orderId_DINE_IN", OrderIDKey(models.ServiceDineIn))
	assert.Equal(t, "terra_orderId_TAKEAWAY", OrderIDKey(models.ServiceTakeaway))
	assert.Equal(t, "terra_orderStatus_DINE_IN", OrderStatusKey(models.ServiceDineIn))
	assert.Equal(t, "terra_orderUpdatedAt_TAKEAWAY", OrderUpdatedAtKey(models.ServiceTakeaway))
	assert.Equal(t, "terra_cart_DINE_IN", CartKey(models.ServiceDineIn))
	assert.Equal(t, "terra_lastOrder_TAKEAWAY", LastOrderKey(models.ServiceTakeaway))
}

func TestRemoveAll(t *testing.T) {
	s := NewMemoryStore()
	s.Set(KeyScanToken, "a")
	s.Set(KeySessionToken, "b")
	s.Set(KeyWaitToken, "c")

	RemoveAll(s, KeyScanToken, KeySessionToken)

	_, ok := s.Get(KeyScanToken)
	assert.False(t, ok)
	_, ok = s.Get(KeySessionToken)
	assert.False(t, ok)
	_, ok = s.Get(KeyWaitToken)
	assert.True(t, ok, "Unlisted keys should survive")
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	s, err := NewFileStore(path)
	assert.NoError(t, err)
	s.Set(KeySessionToken, "sess-123")
	s.Set(OrderIDKey(models.ServiceDineIn), "42")

	reopened, err := NewFileStore(path)
	assert.NoError(t, err)

	v, ok := reopened.Get(KeySessionToken)
	assert.True(t, ok)
	assert.Equal(t, "sess-123", v)

	v, ok = reopened.Get(OrderIDKey(models.ServiceDineIn))
	assert.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestFileStoreDiscardsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := NewFileStore(path)
	assert.NoError(t, err, "Corrupt cache should be discarded, not fatal")
	assert.Empty(t, s.Keys())
}

func TestFileStoreRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	s, err := NewFileStore(path)
	assert.NoError(t, err)

	s.Set(KeyWaitToken, "w1")
	s.Remove(KeyWaitToken)

	reopened, err := NewFileStore(path)
	assert.NoError(t, err)
	_, ok := reopened.Get(KeyWaitToken)
	assert.False(t, ok, "Removed key should not come back after reopen")
}

func TestMigrateLegacyKeys(t *testing.T) {
	s := NewMemoryStore()
	s.Set(KeyOrderID, "17")
	s.Set(KeyOrderStatus, "Preparing")

	MigrateLegacyKeys(s)

	v, ok := s.Get(OrderIDKey(models.ServiceDineIn))
	assert.True(t, ok)
	assert.Equal(t, "17", v)

	v, ok = s.Get(OrderStatusKey(models.ServiceDineIn))
	assert.True(t, ok)
	assert.Equal(t, "Preparing", v)

	_, ok = s.Get(KeyOrderID)
	assert.False(t, ok, "Legacy key should be deleted after migration")
	_, ok = s.Get(KeyOrderStatus)
	assert.False(t, ok)
}

func TestMigrateLegacyKeysNeverOverwrites(t *testing.T) {
	s := NewMemoryStore()
	s.Set(KeyOrderID, "17")
	s.Set(OrderIDKey(models.ServiceDineIn), "99")

	MigrateLegacyKeys(s)

	v, _ := s.Get(OrderIDKey(models.ServiceDineIn))
	assert.Equal(t, "99", v, "Service-specific value must win over the legacy one")
	_, ok := s.Get(KeyOrderID)
	assert.False(t, ok)
}

func TestMigrateLegacyKeysNoLegacyData(t *testing.T) {
	s := NewMemoryStore()
	MigrateLegacyKeys(s)
	assert.Empty(t, s.Keys())
}
