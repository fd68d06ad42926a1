package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderTableName(t *testing.T) {
	order := Order{}
	assert.Equal(t, "orders", order.TableName(), "Table name should be 'orders'")
}

func TestOrderStatusTerminal(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusConfirmed, false},
		{StatusPreparing, false},
		{StatusReady, false},
		{StatusServed, false},
		{StatusFinalized, false},
		{StatusPaid, true},
		{StatusCancelled, true},
		{StatusReturned, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
			assert.Equal(t, !tt.terminal, tt.status.AllowsAppend())
		})
	}
}

func TestOrderStatusAllowsAppendEmpty(t *testing.T) {
	// An unknown/empty status must never permit appending
	assert.False(t, OrderStatus("").AllowsAppend())
}

func TestOrderStatusCustomerActions(t *testing.T) {
	assert.True(t, StatusPending.AllowsCustomerCancel())
	assert.True(t, StatusConfirmed.AllowsCustomerCancel())
	assert.False(t, StatusPreparing.AllowsCustomerCancel())
	assert.False(t, StatusPaid.AllowsCustomerCancel())

	assert.True(t, StatusServed.AllowsCustomerReturn())
	assert.True(t, StatusFinalized.AllowsCustomerReturn())
	assert.False(t, StatusPending.AllowsCustomerReturn())
}

func TestOrderTotalSkipsReturnedLines(t *testing.T) {
	order := Order{
		KOTLines: []KOTLine{
			{Name: "Masala Dosa", Quantity: 2, Price: 12000},
			{Name: "Filter Coffee", Quantity: 1, Price: 4000, Returned: true},
		},
	}

	assert.Equal(t, int64(24000), order.Total(), "Returned lines should not count toward the total")
}

func TestMergeKOTLines(t *testing.T) {
	lines := []KOTLine{
		{Name: "Paneer Tikka", Quantity: 2, Price: 22000},
		{Name: "paneer tikka", Quantity: 1, Price: 22000, Returned: true},
		{Name: "Lassi", Quantity: 1, Price: 6000},
	}

	merged := MergeKOTLines(lines)
	assert.Len(t, merged, 2)

	assert.Equal(t, "Paneer Tikka", merged[0].Name)
	assert.Equal(t, 2, merged[0].ActiveQuantity)
	assert.Equal(t, 1, merged[0].ReturnedQuantity)
	assert.True(t, merged[0].Returned)

	assert.Equal(t, "Lassi", merged[1].Name)
	assert.Equal(t, 1, merged[1].ActiveQuantity)
	assert.Equal(t, 0, merged[1].ReturnedQuantity)
	assert.False(t, merged[1].Returned)
}

func TestMergeKOTLinesEmpty(t *testing.T) {
	assert.Empty(t, MergeKOTLines(nil))
}

func TestServiceTypeValidation(t *testing.T) {
	tests := []struct {
		name  string
		st    ServiceType
		valid bool
	}{
		{"dine in", ServiceDineIn, true},
		{"takeaway", ServiceTakeaway, true},
		{"pickup", ServicePickup, true},
		{"delivery", ServiceDelivery, true},
		{"unknown", ServiceType("DRIVE_THRU"), false},
		{"empty", ServiceType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.st.Valid())
		})
	}
}

func TestServiceTypeCustomerInfoRules(t *testing.T) {
	assert.True(t, ServicePickup.RequiresCustomerInfo())
	assert.True(t, ServiceDelivery.RequiresCustomerInfo())
	assert.False(t, ServiceDineIn.RequiresCustomerInfo())
	assert.False(t, ServiceTakeaway.RequiresCustomerInfo())

	assert.True(t, ServiceDelivery.RequiresDeliveryAddress())
	assert.False(t, ServicePickup.RequiresDeliveryAddress())
}

func TestTableValidate(t *testing.T) {
	assert.True(t, (&Table{ID: 3, Number: 7}).Validate())
	assert.False(t, (&Table{Number: 7}).Validate(), "Table without an id is corrupt")
	assert.False(t, (&Table{ID: 3}).Validate(), "Table without a number is corrupt")
}

func TestMenuFindCaseInsensitive(t *testing.T) {
	menu := Menu{Items: []MenuItem{{Name: "Veg Biryani", Price: 18000, Available: true}}}

	item, ok := menu.Find("veg biryani")
	assert.True(t, ok)
	assert.Equal(t, int64(18000), item.Price)

	_, ok = menu.Find("Chicken 65")
	assert.False(t, ok)
}
