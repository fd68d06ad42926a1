package services

import (
	"errors"
	"fmt"

	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/session"
	"github.com/terra-dine/terra-ordering/store"
)

// ErrItemUnavailable rejects adding an item that is missing from the menu
// or marked unavailable
var ErrItemUnavailable = errors.New("item is not available")

// CartLine is one priced cart row after joining against the menu catalog
type CartLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"` // minor units; 0 when the item left the catalog
	LineTotal int64  `json:"line_total"`
}

// CartProjector maintains the name→quantity cart and derives totals by
// joining against the fetched menu. The cart stores only item names, so
// price lookups match case-insensitively.
type CartProjector struct {
	st store.Store
}

// NewCartProjector creates a projector over the identity store
func NewCartProjector(st store.Store) *CartProjector {
	return &CartProjector{st: st}
}

// Add puts one unit of the named item into the cart for the service type.
// Items missing from the menu or flagged unavailable are rejected with a
// user-visible error before anything is stored.
func (p *CartProjector) Add(serviceType models.ServiceType, menu *models.Menu, name string) (session.State, error) {
	item, ok := menu.Find(name)
	if !ok || !item.Available {
		return session.Load(p.st), fmt.Errorf("%q: %w", name, ErrItemUnavailable)
	}

	state := session.Load(p.st)
	cart := state.Cart(serviceType)
	next := session.Cart{}
	for n, q := range cart {
		next[n] = q
	}
	next[item.Name] = next[item.Name] + 1

	state = state.WithCart(serviceType, next)
	session.Save(p.st, state)
	return state, nil
}

// Remove takes one unit of the named item out of the cart. Removing the
// last unit deletes the entry entirely; no zero-quantity entries persist.
func (p *CartProjector) Remove(serviceType models.ServiceType, name string) session.State {
	state := session.Load(p.st)
	cart := state.Cart(serviceType)

	next := session.Cart{}
	for n, q := range cart {
		next[n] = q
	}
	if q, ok := next[name]; ok {
		if q <= 1 {
			delete(next, name)
		} else {
			next[name] = q - 1
		}
	}

	state = state.WithCart(serviceType, next)
	session.Save(p.st, state)
	return state
}

// Clear empties the cart for the service type
func (p *CartProjector) Clear(serviceType models.ServiceType) session.State {
	state := session.Load(p.st)
	state = state.WithCart(serviceType, nil)
	session.Save(p.st, state)
	return state
}

// Lines projects the cart into priced rows. Items no longer present in the
// catalog degrade to price 0 rather than erroring.
func (p *CartProjector) Lines(state session.State, serviceType models.ServiceType, menu *models.Menu) []CartLine {
	cart := state.Cart(serviceType)
	lines := make([]CartLine, 0, len(cart))
	for name, qty := range cart {
		var unit int64
		if item, ok := menu.Find(name); ok {
			unit = item.Price
		}
		lines = append(lines, CartLine{
			Name:      name,
			Quantity:  qty,
			UnitPrice: unit,
			LineTotal: unit * int64(qty),
		})
	}
	return lines
}

// Total is the sum over all cart entries resolvable in the menu, in minor
// units
func (p *CartProjector) Total(state session.State, serviceType models.ServiceType, menu *models.Menu) int64 {
	var total int64
	for _, line := range p.Lines(state, serviceType, menu) {
		total += line.LineTotal
	}
	return total
}
