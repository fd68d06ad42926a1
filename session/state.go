// Package session holds the client's reconciliation state machine: a single
// typed value describing which table, session and orders this device
// currently believes it owns, with pure transition functions for every
// event that can change that belief (a new scan, an order fetch, a status
// push, a payment). All trust decisions between cached identity and backend
// truth are made here; persistence and networking live elsewhere.
package session

import (
	"time"

	"github.com/terra-dine/terra-ordering/models"
)

// OrderRef is the cached projection of the active order for one service
// type: its id, last seen status, and when that status was observed.
type OrderRef struct {
	ID        uint               `json:"id"`
	Status    models.OrderStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Cart maps item name to quantity. Quantities are always >= 1; removing the
// last unit deletes the entry.
type Cart map[string]int

// State is the full client-side identity: everything previously scattered
// across dozens of storage keys, as one value. Transitions return a new
// State rather than mutating, so a transition either applies completely or
// not at all.
type State struct {
	ScanToken            string                                  `json:"scan_token,omitempty"`
	SessionToken         string                                  `json:"session_token,omitempty"`
	TakeawaySessionToken string                                  `json:"takeaway_session_token,omitempty"`
	WaitToken            string                                  `json:"wait_token,omitempty"`
	ServiceType          models.ServiceType                      `json:"service_type,omitempty"`
	Table                *models.Table                           `json:"table,omitempty"`
	Orders               map[models.ServiceType]OrderRef         `json:"orders,omitempty"`
	Carts                map[models.ServiceType]Cart             `json:"carts,omitempty"`
	LastOrders           map[models.ServiceType][]models.MergedLine `json:"last_orders,omitempty"`
	LastPaidOrderID      uint                                    `json:"last_paid_order_id,omitempty"`
}

// New returns an empty state
func New() State {
	return State{}
}

// clone deep-copies the maps so transitions never alias the old state
func (s State) clone() State {
	out := s
	if s.Table != nil {
		t := *s.Table
		out.Table = &t
	}
	out.Orders = make(map[models.ServiceType]OrderRef, len(s.Orders))
	for k, v := range s.Orders {
		out.Orders[k] = v
	}
	out.Carts = make(map[models.ServiceType]Cart, len(s.Carts))
	for k, v := range s.Carts {
		c := make(Cart, len(v))
		for name, qty := range v {
			c[name] = qty
		}
		out.Carts[k] = c
	}
	out.LastOrders = make(map[models.ServiceType][]models.MergedLine, len(s.LastOrders))
	for k, v := range s.LastOrders {
		out.LastOrders[k] = append([]models.MergedLine(nil), v...)
	}
	return out
}

// ActiveOrder returns the cached order for the service type if it has not
// reached a terminal status. An order stays "active" until Paid, Cancelled
// or Returned, or until a new table or session supersedes it.
func (s State) ActiveOrder(st models.ServiceType) (OrderRef, bool) {
	ref, ok := s.Orders[st]
	if !ok || ref.Status.Terminal() {
		return OrderRef{}, false
	}
	return ref, true
}

// Cart returns the cart for the service type, never nil
func (s State) Cart(st models.ServiceType) Cart {
	if c, ok := s.Carts[st]; ok {
		return c
	}
	return Cart{}
}

// SessionTokenFor returns the token that proves ownership for the given
// service type. Dine-in and takeaway sessions are tracked separately and
// must never merge.
func (s State) SessionTokenFor(st models.ServiceType) string {
	if st == models.ServiceTakeaway {
		return s.TakeawaySessionToken
	}
	return s.SessionToken
}

// clearDineIn drops every dine-in identity: table, session, wait token,
// service type, order and cart. Used on cold visits and new scans, where
// leaking a previous customer's state would be worse than re-resolving.
func (s State) clearDineIn() State {
	out := s.clone()
	out.Table = nil
	out.SessionToken = ""
	out.WaitToken = ""
	out.ServiceType = ""
	delete(out.Orders, models.ServiceDineIn)
	delete(out.Carts, models.ServiceDineIn)
	return out
}

// OnColdVisit handles a landing with no slug in the URL and none cached:
// all dine-in state is wiped so stale identity cannot leak into the visit.
func (s State) OnColdVisit() State {
	return s.clearDineIn()
}

// OnTableScanned records a newly scanned slug. If it differs from the last
// seen slug this is a different physical table: previous table, session,
// wait token, service type and dine-in order data are wiped, and the
// takeaway cart binding is dropped too, since a dine-in scan must never
// resume a takeaway context. Re-scanning the same slug changes nothing.
func (s State) OnTableScanned(slug string) State {
	if slug == "" || slug == s.ScanToken {
		return s
	}
	out := s.clearDineIn()
	delete(out.Carts, models.ServiceTakeaway)
	out.ScanToken = slug
	return out
}

// OnTableAdopted applies a successful 200 AVAILABLE lookup. The returned
// descriptor is adopted verbatim except QRSlug, which is always forced to
// the scanned slug; a mismatched slug from the server is the caller's
// responsibility to reject before calling this. Fresh occupancy clears the
// wait token and any dine-in order left from a previous occupant.
func (s State) OnTableAdopted(table models.Table, sessionToken string) State {
	out := s.clone()
	table.QRSlug = s.ScanToken
	out.Table = &table
	out.SessionToken = sessionToken
	out.WaitToken = ""
	out.ServiceType = models.ServiceDineIn
	delete(out.Orders, models.ServiceDineIn)
	return out
}

// OnTableResumed refreshes the cached descriptor for a table this session
// already owns (a 423 lookup whose session token matched ours). Unlike
// adoption, nothing else is touched: the live order and cart stay.
func (s State) OnTableResumed(table models.Table) State {
	out := s.clone()
	table.QRSlug = s.ScanToken
	out.Table = &table
	out.ServiceType = models.ServiceDineIn
	return out
}

// OnLookupFailed clears local table identity after a failed lookup so a
// retry starts clean
func (s State) OnLookupFailed() State {
	out := s.clone()
	out.Table = nil
	out.SessionToken = ""
	return out
}

// OnWaitlisted records the wait token offered by an occupied table. The
// client never auto-joins; this is only called after an explicit choice.
func (s State) OnWaitlisted(waitToken string) State {
	out := s.clone()
	out.WaitToken = waitToken
	return out
}

// OnOrderCreated records a freshly created order as the active order for
// its service type
func (s State) OnOrderCreated(order models.Order) State {
	out := s.clone()
	out.Orders[order.ServiceType] = OrderRef{
		ID:        order.ID,
		Status:    order.Status,
		UpdatedAt: order.UpdatedAt,
	}
	if order.ServiceType == models.ServiceTakeaway && order.SessionToken != "" {
		out.TakeawaySessionToken = order.SessionToken
	}
	return out
}

// OnOrderGone handles an authoritative 404 for the cached order: every
// cached identifier for that service type is removed
func (s State) OnOrderGone(st models.ServiceType) State {
	out := s.clone()
	delete(out.Orders, st)
	return out
}

// OnOrderFetched reconciles a fetched order snapshot against the cache.
// If the order's session token no longer matches ours it belonged to a
// previous occupant and is dropped: strictly for dine-in, leniently for
// takeaway (only when both tokens are present and differ).
func (s State) OnOrderFetched(st models.ServiceType, order models.Order) (State, bool) {
	ours := s.SessionTokenFor(st)

	mismatch := order.SessionToken != ours
	if st == models.ServiceTakeaway {
		mismatch = order.SessionToken != "" && ours != "" && order.SessionToken != ours
	}
	if mismatch {
		return s.OnOrderGone(st), false
	}

	out := s.clone()
	out.Orders[st] = OrderRef{ID: order.ID, Status: order.Status, UpdatedAt: order.UpdatedAt}
	return out, true
}

// OnStatusUpdate applies a pushed or polled status update if it passes the
// acceptance filter: matching service type, matching session token (when
// both sides have one), a strictly newer UpdatedAt than the held one, and a
// non-terminal cached status (terminal states are sticky). Returns whether
// the update was applied.
func (s State) OnStatusUpdate(order models.Order) (State, bool) {
	st := order.ServiceType
	if s.ServiceType != "" && st != s.ServiceType {
		return s, false
	}

	ref, ok := s.Orders[st]
	if !ok || ref.ID != order.ID {
		return s, false
	}
	if ref.Status.Terminal() {
		return s, false
	}

	ours := s.SessionTokenFor(st)
	if order.SessionToken != "" && ours != "" && order.SessionToken != ours {
		return s, false
	}

	if !order.UpdatedAt.After(ref.UpdatedAt) {
		return s, false
	}

	out := s.clone()
	out.Orders[st] = OrderRef{ID: order.ID, Status: order.Status, UpdatedAt: order.UpdatedAt}
	return out, true
}

// OnTableAvailable handles a "table became AVAILABLE" signal. If this
// customer has an active order the signal is ignored: a table-level event
// must not evict a live session. Otherwise all order, cart and waitlist
// state is cleared for the next occupant.
func (s State) OnTableAvailable() State {
	if _, active := s.ActiveOrder(models.ServiceDineIn); active {
		return s
	}
	out := s.clearDineIn()
	out.ScanToken = s.ScanToken // the slug itself is still the one scanned
	return out
}

// OnPaymentConfirmed marks the active order of the service type as Paid,
// snapshots its merged lines as the previous order, clears the cart and
// records the last paid order id
func (s State) OnPaymentConfirmed(st models.ServiceType, order models.Order) State {
	out := s.clone()
	out.Orders[st] = OrderRef{ID: order.ID, Status: models.StatusPaid, UpdatedAt: order.UpdatedAt}
	out.LastOrders[st] = models.MergeKOTLines(order.KOTLines)
	out.LastPaidOrderID = order.ID
	delete(out.Carts, st)
	return out
}

// WithCart replaces the cart for the service type. Entries with quantity
// <= 0 are dropped, never stored as zero.
func (s State) WithCart(st models.ServiceType, cart Cart) State {
	out := s.clone()
	cleaned := make(Cart, len(cart))
	for name, qty := range cart {
		if qty > 0 {
			cleaned[name] = qty
		}
	}
	if len(cleaned) == 0 {
		delete(out.Carts, st)
	} else {
		out.Carts[st] = cleaned
	}
	return out
}
