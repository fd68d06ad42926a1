package session

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/store"
)

var allServiceTypes = []models.ServiceType{
	models.ServiceDineIn,
	models.ServiceTakeaway,
	models.ServicePickup,
	models.ServiceDelivery,
}

// Load reads the full session state out of the identity store, running the
// one-time legacy key migration first. Unreadable values are treated as
// absent; the server is authoritative for anything cached here.
func Load(s store.Store) State {
	store.MigrateLegacyKeys(s)

	st := New()
	st.ScanToken, _ = s.Get(store.KeyScanToken)
	st.SessionToken, _ = s.Get(store.KeySessionToken)
	st.TakeawaySessionToken, _ = s.Get(store.KeyTakeawaySessionToken)
	st.WaitToken, _ = s.Get(store.KeyWaitToken)

	if v, ok := s.Get(store.KeyServiceType); ok {
		if t := models.ServiceType(v); t.Valid() {
			st.ServiceType = t
		}
	}

	if v, ok := s.Get(store.KeySelectedTable); ok {
		var table models.Table
		if err := json.Unmarshal([]byte(v), &table); err != nil {
			log.Printf("session: dropping unreadable cached table: %v", err)
		} else {
			st.Table = &table
		}
	}

	if v, ok := s.Get(store.KeyLastPaidOrderID); ok {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			st.LastPaidOrderID = uint(id)
		}
	}

	st.Orders = make(map[models.ServiceType]OrderRef)
	st.Carts = make(map[models.ServiceType]Cart)
	st.LastOrders = make(map[models.ServiceType][]models.MergedLine)

	for _, t := range allServiceTypes {
		if ref, ok := loadOrderRef(s, t); ok {
			st.Orders[t] = ref
		}
		if v, ok := s.Get(store.CartKey(t)); ok {
			var cart Cart
			if err := json.Unmarshal([]byte(v), &cart); err == nil && len(cart) > 0 {
				st.Carts[t] = cart
			}
		}
		if v, ok := s.Get(store.LastOrderKey(t)); ok {
			var lines []models.MergedLine
			if err := json.Unmarshal([]byte(v), &lines); err == nil {
				st.LastOrders[t] = lines
			}
		}
	}

	return st
}

func loadOrderRef(s store.Store, t models.ServiceType) (OrderRef, bool) {
	v, ok := s.Get(store.OrderIDKey(t))
	if !ok {
		return OrderRef{}, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return OrderRef{}, false
	}

	ref := OrderRef{ID: uint(id)}
	if v, ok := s.Get(store.OrderStatusKey(t)); ok {
		ref.Status = models.OrderStatus(v)
	}
	if v, ok := s.Get(store.OrderUpdatedAtKey(t)); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			ref.UpdatedAt = ts
		}
	}
	return ref, true
}

// Save writes the state back to the identity store as one step. Every key
// the state does not carry is removed, so a transition that cleared a field
// also clears its persisted form: no partial clears.
func Save(s store.Store, st State) {
	setOrRemove(s, store.KeyScanToken, st.ScanToken)
	setOrRemove(s, store.KeySessionToken, st.SessionToken)
	setOrRemove(s, store.KeyTakeawaySessionToken, st.TakeawaySessionToken)
	setOrRemove(s, store.KeyWaitToken, st.WaitToken)
	setOrRemove(s, store.KeyServiceType, string(st.ServiceType))

	if st.Table != nil {
		if data, err := json.Marshal(st.Table); err == nil {
			s.Set(store.KeySelectedTable, string(data))
		}
	} else {
		s.Remove(store.KeySelectedTable)
	}

	if st.LastPaidOrderID != 0 {
		s.Set(store.KeyLastPaidOrderID, strconv.FormatUint(uint64(st.LastPaidOrderID), 10))
	} else {
		s.Remove(store.KeyLastPaidOrderID)
	}

	for _, t := range allServiceTypes {
		if ref, ok := st.Orders[t]; ok {
			s.Set(store.OrderIDKey(t), strconv.FormatUint(uint64(ref.ID), 10))
			s.Set(store.OrderStatusKey(t), string(ref.Status))
			s.Set(store.OrderUpdatedAtKey(t), ref.UpdatedAt.Format(time.RFC3339Nano))
		} else {
			store.RemoveAll(s, store.OrderKeys(t)...)
		}

		if cart, ok := st.Carts[t]; ok && len(cart) > 0 {
			if data, err := json.Marshal(cart); err == nil {
				s.Set(store.CartKey(t), string(data))
			}
		} else {
			s.Remove(store.CartKey(t))
		}

		if lines, ok := st.LastOrders[t]; ok && len(lines) > 0 {
			if data, err := json.Marshal(lines); err == nil {
				s.Set(store.LastOrderKey(t), string(data))
			}
		} else {
			s.Remove(store.LastOrderKey(t))
		}
	}
}

func setOrRemove(s store.Store, key, value string) {
	if value == "" {
		s.Remove(key)
		return
	}
	s.Set(key, value)
}
