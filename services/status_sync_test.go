package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/terra-dine/terra-ordering/client"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/session"
	"github.com/terra-dine/terra-ordering/store"
)

func newSync(st store.Store, baseURL string) *StatusSynchronizer {
	return NewStatusSynchronizer(client.New(baseURL), st, "", time.Minute)
}

func TestSyncAppliesNewerUpdate(t *testing.T) {
	st := store.NewMemoryStore()
	seedActiveOrder(st, models.ServiceDineIn, 9, "sess_1")

	var notified bool
	s := newSync(st, "http://unused")
	s.OnChange = func(state session.State) { notified = true }

	s.handleEvent(models.StatusEvent{
		Event: models.EventOrderUpdated,
		Order: &models.Order{
			ID: 9, ServiceType: models.ServiceDineIn, Status: models.StatusReady,
			SessionToken: "sess_1", UpdatedAt: time.Now(),
		},
	})

	ref, active := session.Load(st).ActiveOrder(models.ServiceDineIn)
	assert.True(t, active)
	assert.Equal(t, models.StatusReady, ref.Status)
	assert.True(t, notified)
}

func TestSyncRejectsStaleUpdate(t *testing.T) {
	st := store.NewMemoryStore()
	seedActiveOrder(st, models.ServiceDineIn, 9, "sess_1")

	s := newSync(st, "http://unused")
	s.OnChange = func(state session.State) { t.Fatal("stale update must not notify") }

	// Older than the cached UpdatedAt
	s.handleEvent(models.StatusEvent{
		Event: models.EventOrderUpdated,
		Order: &models.Order{
			ID: 9, ServiceType: models.ServiceDineIn, Status: models.StatusReady,
			SessionToken: "sess_1", UpdatedAt: time.Now().Add(-time.Hour),
		},
	})

	ref, _ := session.Load(st).ActiveOrder(models.ServiceDineIn)
	assert.Equal(t, models.StatusPreparing, ref.Status)
}

func TestSyncIgnoresForeignOrder(t *testing.T) {
	st := store.NewMemoryStore()
	seedActiveOrder(st, models.ServiceDineIn, 9, "sess_1")

	s := newSync(st, "http://unused")
	s.handleEvent(models.StatusEvent{
		Event: models.EventOrderUpdated,
		Order: &models.Order{
			ID: 77, ServiceType: models.ServiceDineIn, Status: models.StatusReady,
			SessionToken: "sess_1", UpdatedAt: time.Now(),
		},
	})

	ref, _ := session.Load(st).ActiveOrder(models.ServiceDineIn)
	assert.Equal(t, uint(9), ref.ID)
	assert.Equal(t, models.StatusPreparing, ref.Status)
}

func TestSyncTerminalStatusIsSticky(t *testing.T) {
	st := store.NewMemoryStore()
	state := session.New()
	state.SessionToken = "sess_1"
	state.Orders = map[models.ServiceType]session.OrderRef{
		models.ServiceDineIn: {ID: 9, Status: models.StatusPaid, UpdatedAt: time.Now().Add(-time.Minute)},
	}
	session.Save(st, state)

	s := newSync(st, "http://unused")
	s.handleEvent(models.StatusEvent{
		Event: models.EventOrderUpdated,
		Order: &models.Order{
			ID: 9, ServiceType: models.ServiceDineIn, Status: models.StatusPreparing,
			SessionToken: "sess_1", UpdatedAt: time.Now(),
		},
	})

	// Paid never regresses
	assert.Equal(t, models.StatusPaid, session.Load(st).Orders[models.ServiceDineIn].Status)
}

func TestSyncOrderDeleted(t *testing.T) {
	st := store.NewMemoryStore()
	seedActiveOrder(st, models.ServiceDineIn, 9, "sess_1")

	s := newSync(st, "http://unused")
	s.handleEvent(models.StatusEvent{
		Event: models.EventOrderDeleted,
		Order: &models.Order{ID: 9, ServiceType: models.ServiceDineIn},
	})

	_, active := session.Load(st).ActiveOrder(models.ServiceDineIn)
	assert.False(t, active)
}

func TestSyncTableAvailableClearsIdleSession(t *testing.T) {
	st := store.NewMemoryStore()
	state := session.New()
	state.ScanToken = "tbl_a"
	state.SessionToken = "sess_1"
	table := models.Table{ID: 4, Number: 12, QRSlug: "tbl_a"}
	state.Table = &table
	session.Save(st, state)

	s := newSync(st, "http://unused")
	s.handleEvent(models.StatusEvent{
		Event: models.EventTableStatusUpdated,
		Table: &models.Table{ID: 4, Status: models.TableAvailable},
	})

	next := session.Load(st)
	assert.Nil(t, next.Table)
	assert.Empty(t, next.SessionToken)
	// The scanned slug itself stays usable for a rescan
	assert.Equal(t, "tbl_a", next.ScanToken)
}

func TestSyncTableAvailableKeepsLiveSession(t *testing.T) {
	st := store.NewMemoryStore()
	state := session.New()
	state.ScanToken = "tbl_a"
	state.SessionToken = "sess_1"
	table := models.Table{ID: 4, Number: 12, QRSlug: "tbl_a"}
	state.Table = &table
	state = state.OnOrderCreated(models.Order{ID: 9, ServiceType: models.ServiceDineIn, Status: models.StatusPreparing})
	session.Save(st, state)

	s := newSync(st, "http://unused")
	s.handleEvent(models.StatusEvent{
		Event: models.EventTableStatusUpdated,
		Table: &models.Table{ID: 4, Status: models.TableAvailable},
	})

	// A table-level event must not evict a customer mid-order
	next := session.Load(st)
	assert.NotNil(t, next.Table)
	_, active := next.ActiveOrder(models.ServiceDineIn)
	assert.True(t, active)
}

func TestSyncPollOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, models.Order{
			ID: 9, ServiceType: models.ServiceDineIn, Status: models.StatusServed,
			SessionToken: "sess_1", UpdatedAt: time.Now(),
		})
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	seedActiveOrder(st, models.ServiceDineIn, 9, "sess_1")

	s := newSync(st, srv.URL)
	s.pollOnce(context.Background())

	ref, _ := session.Load(st).ActiveOrder(models.ServiceDineIn)
	assert.Equal(t, models.StatusServed, ref.Status)
}

func TestSyncPollOnceGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "gone")
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	seedActiveOrder(st, models.ServiceDineIn, 9, "sess_1")

	s := newSync(st, srv.URL)
	s.pollOnce(context.Background())

	_, active := session.Load(st).ActiveOrder(models.ServiceDineIn)
	assert.False(t, active)
}

func TestSyncPushChannel(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		event := models.StatusEvent{
			Event: models.EventOrderUpdated,
			Order: &models.Order{
				ID: 9, ServiceType: models.ServiceDineIn, Status: models.StatusReady,
				SessionToken: "sess_1", UpdatedAt: time.Now(),
			},
		}
		if err := conn.WriteJSON(event); err != nil {
			t.Errorf("write failed: %v", err)
		}
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	seedActiveOrder(st, models.ServiceDineIn, 9, "sess_1")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewStatusSynchronizer(client.New(srv.URL), st, wsURL, time.Minute)

	applied := make(chan session.State, 1)
	s.OnChange = func(state session.State) { applied <- state }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.consumePush(ctx)

	select {
	case state := <-applied:
		ref, _ := state.ActiveOrder(models.ServiceDineIn)
		assert.Equal(t, models.StatusReady, ref.Status)
	case <-time.After(3 * time.Second):
		t.Fatal("push event was never applied")
	}
}
