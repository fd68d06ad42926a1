package models

// ServiceType is the fulfillment channel for an order. It decides which
// cached identity keys are authoritative and which validation rules apply.
type ServiceType string

const (
	ServiceDineIn   ServiceType = "DINE_IN"
	ServiceTakeaway ServiceType = "TAKEAWAY"
	ServicePickup   ServiceType = "PICKUP"
	ServiceDelivery ServiceType = "DELIVERY"
)

// Valid reports whether s is one of the known service types
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceDineIn, ServiceTakeaway, ServicePickup, ServiceDelivery:
		return true
	}
	return false
}

// RequiresCustomerInfo reports whether orders of this type need a customer
// name and mobile number before they can be placed
func (s ServiceType) RequiresCustomerInfo() bool {
	return s == ServicePickup || s == ServiceDelivery
}

// RequiresDeliveryAddress reports whether orders of this type need a
// delivery location before they can be placed
func (s ServiceType) RequiresDeliveryAddress() bool {
	return s == ServiceDelivery
}
