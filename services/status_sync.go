package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-dine/terra-ordering/client"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/session"
	"github.com/terra-dine/terra-ordering/store"
)

const (
	defaultPollInterval = 20 * time.Second
	wsReconnectDelay    = 5 * time.Second
)

// StatusSynchronizer keeps the cached order status current. A fixed-interval
// poll and a WebSocket push channel both funnel through the same acceptance
// filter in the session state machine, so the more recent arrival wins and
// unrelated orders never overwrite local state.
//
// Its failures are background noise by design: errors are logged and the
// last known cached status remains visible.
type StatusSynchronizer struct {
	api      *client.Client
	st       store.Store
	wsURL    string // base ws:// URL; empty disables the push channel
	interval time.Duration

	// OnChange, when set, is invoked after every applied update
	OnChange func(state session.State)

	mu sync.Mutex // serializes poll and push applications
}

// NewStatusSynchronizer creates a synchronizer. wsURL may be empty to run
// poll-only; interval <= 0 selects the default (~20s).
func NewStatusSynchronizer(api *client.Client, st store.Store, wsURL string, interval time.Duration) *StatusSynchronizer {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &StatusSynchronizer{api: api, st: st, wsURL: wsURL, interval: interval}
}

// Run blocks until ctx is cancelled, driving the poll loop and, when a
// WebSocket URL is configured, the push channel. Cancelling ctx tears down
// both without leaking timers or in-flight requests.
func (s *StatusSynchronizer) Run(ctx context.Context) {
	if s.wsURL != "" {
		go s.runPush(ctx)
	}
	s.runPoll(ctx)
}

// runPoll refreshes the active order of each service type on a fixed tick
func (s *StatusSynchronizer) runPoll(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce fetches every cached active order and reconciles the snapshots
func (s *StatusSynchronizer) pollOnce(ctx context.Context) {
	s.mu.Lock()
	state := session.Load(s.st)
	s.mu.Unlock()

	for _, serviceType := range []models.ServiceType{
		models.ServiceDineIn, models.ServiceTakeaway, models.ServicePickup, models.ServiceDelivery,
	} {
		ref, active := state.ActiveOrder(serviceType)
		if !active {
			continue
		}

		order, err := s.api.GetOrder(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, client.ErrNotFound) {
				s.applyGone(serviceType, ref.ID)
				continue
			}
			// Background refresh: fail silently, keep last known good
			log.Printf("sync: poll of order %d failed: %v", ref.ID, err)
			continue
		}
		s.applyOrder(*order)
	}
}

// runPush maintains the WebSocket subscription, reconnecting with a delay
// until ctx is cancelled
func (s *StatusSynchronizer) runPush(ctx context.Context) {
	for {
		if err := s.consumePush(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("sync: websocket channel closed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wsReconnectDelay):
		}
	}
}

func (s *StatusSynchronizer) consumePush(ctx context.Context) error {
	state := session.Load(s.st)
	cartID := ""
	if state.Table != nil {
		cartID = state.Table.CartID
	}

	wsURL := s.wsURL + "/ws/orders"
	if cartID != "" {
		wsURL += "?cartId=" + url.QueryEscape(cartID)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the connection when ctx ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event models.StatusEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("sync: dropping malformed event: %v", err)
			continue
		}
		s.handleEvent(event)
	}
}

// handleEvent routes one push event through the acceptance filter
func (s *StatusSynchronizer) handleEvent(event models.StatusEvent) {
	switch event.Event {
	case models.EventOrderUpdated, models.EventOrderAccepted:
		if event.Order != nil {
			s.applyOrder(*event.Order)
		}
	case models.EventOrderDeleted:
		if event.Order != nil {
			s.applyGone(event.Order.ServiceType, event.Order.ID)
		}
	case models.EventTableStatusUpdated:
		if event.Table != nil && event.Table.Status == models.TableAvailable {
			s.applyTableAvailable(*event.Table)
		}
	}
}

// applyOrder runs an update through the session filter; rejected updates
// leave the cache untouched
func (s *StatusSynchronizer) applyOrder(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := session.Load(s.st)
	next, applied := state.OnStatusUpdate(order)
	if !applied {
		return
	}
	session.Save(s.st, next)
	if s.OnChange != nil {
		s.OnChange(next)
	}
}

// applyGone clears the cached order after an authoritative deletion
func (s *StatusSynchronizer) applyGone(serviceType models.ServiceType, orderID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := session.Load(s.st)
	ref, ok := state.Orders[serviceType]
	if !ok || ref.ID != orderID {
		return
	}
	next := state.OnOrderGone(serviceType)
	session.Save(s.st, next)
	if s.OnChange != nil {
		s.OnChange(next)
	}
}

// applyTableAvailable handles the new-occupant convention: only a customer
// without an active order is cleared by a table-level AVAILABLE signal
func (s *StatusSynchronizer) applyTableAvailable(table models.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := session.Load(s.st)
	if state.Table == nil || state.Table.ID != table.ID {
		return
	}
	next := state.OnTableAvailable()
	session.Save(s.st, next)
	if s.OnChange != nil {
		s.OnChange(next)
	}
}
