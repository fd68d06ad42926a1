package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/terra-dine/terra-ordering/client"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/session"
	"github.com/terra-dine/terra-ordering/store"
)

// Validation errors blocked client-side before any network call
var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrMissingCustomerInfo    = errors.New("customer name and mobile are required")
	ErrMissingDeliveryAddress = errors.New("delivery location is required")
	ErrNoTable                = errors.New("no table selected")
	ErrOrderNotOpen           = errors.New("order can no longer be changed")
)

// CustomerInfo carries the customer fields required for pickup and
// delivery orders
type CustomerInfo struct {
	Name            string
	Mobile          string
	DeliveryAddress string
}

// OrderService drives the ordering flow: placing the cart as a new order or
// a KOT appension, customer-initiated cancel/return, and payment
// confirmation. It composes the session guard and the cart projector.
type OrderService struct {
	api   *client.Client
	st    store.Store
	guard *OrderSessionGuard
	cart  *CartProjector
}

// NewOrderService wires an order service over the shared client and store
func NewOrderService(api *client.Client, st store.Store) *OrderService {
	return &OrderService{
		api:   api,
		st:    st,
		guard: NewOrderSessionGuard(api, st),
		cart:  NewCartProjector(st),
	}
}

// Guard exposes the underlying session guard
func (o *OrderService) Guard() *OrderSessionGuard { return o.guard }

// Cart exposes the underlying cart projector
func (o *OrderService) Cart() *CartProjector { return o.cart }

// PlaceOrder submits the current cart. If a live, same-session order in a
// pre-terminal status exists the items are appended as a new KOT batch;
// otherwise a brand-new order is created. Validation failures are returned
// before any network call.
func (o *OrderService) PlaceOrder(ctx context.Context, serviceType models.ServiceType, info CustomerInfo) (*models.Order, error) {
	state := session.Load(o.st)

	items := cartItems(state.Cart(serviceType))
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if serviceType.RequiresCustomerInfo() && (info.Name == "" || info.Mobile == "") {
		return nil, ErrMissingCustomerInfo
	}
	if serviceType.RequiresDeliveryAddress() && info.DeliveryAddress == "" {
		return nil, ErrMissingDeliveryAddress
	}
	if serviceType == models.ServiceDineIn && state.Table == nil {
		return nil, ErrNoTable
	}

	existing, state, err := o.guard.EnsureAppendable(ctx, serviceType)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		order, err := o.api.AppendKOT(ctx, existing.ID, client.AppendKOTRequest{
			SessionToken: state.SessionTokenFor(serviceType),
			Items:        items,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add items to order: %w", err)
		}
		return o.recordPlaced(serviceType, order), nil
	}

	// Dine-in orders claim the table first if this session does not hold it
	if serviceType == models.ServiceDineIn && state.SessionToken == "" {
		table, err := o.api.OccupyTable(ctx, state.Table.ID, "")
		if err != nil {
			return nil, fmt.Errorf("failed to claim table: %w", err)
		}
		if table.SessionToken != nil {
			state = state.OnTableAdopted(*table, *table.SessionToken)
			session.Save(o.st, state)
		}
	}

	req := client.CreateOrderRequest{
		ServiceType:  serviceType,
		SessionToken: state.SessionTokenFor(serviceType),
		Items:        items,
	}
	if state.Table != nil {
		req.TableID = &state.Table.ID
		req.CartID = state.Table.CartID
	}
	if info.Name != "" {
		req.CustomerName = &info.Name
	}
	if info.Mobile != "" {
		req.CustomerMobile = &info.Mobile
	}
	if info.DeliveryAddress != "" {
		req.DeliveryAddress = &info.DeliveryAddress
	}

	order, err := o.api.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	return o.recordPlaced(serviceType, order), nil
}

// recordPlaced stores the placed order as the active one and clears the
// cart that produced it
func (o *OrderService) recordPlaced(serviceType models.ServiceType, order *models.Order) *models.Order {
	state := session.Load(o.st)
	state = state.OnOrderCreated(*order)
	state = state.WithCart(serviceType, nil)
	session.Save(o.st, state)
	return order
}

// Cancel requests a customer-initiated cancellation with a reason. Only
// allowed while the kitchen has not started preparing.
func (o *OrderService) Cancel(ctx context.Context, serviceType models.ServiceType, reason string) (*models.Order, error) {
	return o.customerStatus(ctx, serviceType, models.StatusCancelled, reason)
}

// RequestReturn requests a customer-initiated return with a reason
func (o *OrderService) RequestReturn(ctx context.Context, serviceType models.ServiceType, reason string) (*models.Order, error) {
	return o.customerStatus(ctx, serviceType, models.StatusReturned, reason)
}

func (o *OrderService) customerStatus(ctx context.Context, serviceType models.ServiceType, status models.OrderStatus, reason string) (*models.Order, error) {
	order, state, err := o.guard.Refresh(ctx, serviceType)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotOpen
	}

	allowed := (status == models.StatusCancelled && order.Status.AllowsCustomerCancel()) ||
		(status == models.StatusReturned && order.Status.AllowsCustomerReturn())
	if !allowed {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotOpen, order.Status)
	}

	updated, err := o.api.UpdateCustomerStatus(ctx, order.ID, client.CustomerStatusRequest{
		Status:       status,
		Reason:       reason,
		SessionToken: state.SessionTokenFor(serviceType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	next, _ := state.OnStatusUpdate(*updated)
	session.Save(o.st, next)
	return updated, nil
}

// ConfirmCashPayment marks the active order paid in cash. On success the
// order status becomes Paid, the cart is cleared and the last paid order id
// is recorded, with the merged lines kept as the previous-order snapshot.
func (o *OrderService) ConfirmCashPayment(ctx context.Context, serviceType models.ServiceType) (*models.Order, error) {
	order, state, err := o.guard.Refresh(ctx, serviceType)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotOpen
	}

	paid, err := o.api.ConfirmPayment(ctx, order.ID, state.SessionTokenFor(serviceType))
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	state = session.Load(o.st)
	state = state.OnPaymentConfirmed(serviceType, *paid)
	session.Save(o.st, state)
	return paid, nil
}

// StartPayment initiates an online payment for the active order
func (o *OrderService) StartPayment(ctx context.Context, serviceType models.ServiceType, method string) (*models.Payment, error) {
	order, _, err := o.guard.Refresh(ctx, serviceType)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotOpen
	}
	return o.api.CreatePayment(ctx, client.CreatePaymentRequest{OrderID: order.ID, Method: method})
}

func cartItems(cart session.Cart) []client.ItemRequest {
	items := make([]client.ItemRequest, 0, len(cart))
	for name, qty := range cart {
		items = append(items, client.ItemRequest{Name: name, Quantity: qty})
	}
	return items
}
