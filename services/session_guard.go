package services

import (
	"context"
	"errors"
	"log"

	"github.com/terra-dine/terra-ordering/client"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/session"
	"github.com/terra-dine/terra-ordering/store"
)

// OrderSessionGuard verifies that a locally cached order id still refers to
// a live order owned by the current session before any mutation is allowed
type OrderSessionGuard struct {
	api *client.Client
	st  store.Store
}

// NewOrderSessionGuard creates a guard over the given client and store
func NewOrderSessionGuard(api *client.Client, st store.Store) *OrderSessionGuard {
	return &OrderSessionGuard{api: api, st: st}
}

// Refresh revalidates the cached order for the service type against the
// backend and returns the live order, or nil when no usable order remains.
//
// A 404 is authoritative: all cached identifiers for the service type are
// cleared. Any other fetch error keeps the cached state untouched
// (availability over strict consistency on the read path). A session token
// mismatch clears the order: it belonged to a previous occupant.
func (g *OrderSessionGuard) Refresh(ctx context.Context, serviceType models.ServiceType) (*models.Order, session.State, error) {
	state := session.Load(g.st)

	ref, active := state.ActiveOrder(serviceType)
	if !active {
		return nil, state, nil
	}

	order, err := g.api.GetOrder(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			state = state.OnOrderGone(serviceType)
			session.Save(g.st, state)
			return nil, state, nil
		}
		// Transient failure: keep the cached status rather than destroying
		// a possibly live session over a network blip.
		log.Printf("guard: keeping cached order %d after fetch error: %v", ref.ID, err)
		return nil, state, err
	}

	next, kept := state.OnOrderFetched(serviceType, *order)
	session.Save(g.st, next)
	if !kept {
		return nil, next, nil
	}
	return order, next, nil
}

// EnsureAppendable returns the live order new items may be appended to, or
// nil when a brand-new order must be created instead. Terminal statuses
// never fail silently; they force a fresh order.
func (g *OrderSessionGuard) EnsureAppendable(ctx context.Context, serviceType models.ServiceType) (*models.Order, session.State, error) {
	order, state, err := g.Refresh(ctx, serviceType)
	if err != nil {
		return nil, state, err
	}
	if order == nil || !order.Status.AllowsAppend() {
		return nil, state, nil
	}
	return order, state, nil
}
