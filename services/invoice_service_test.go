package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terra-dine/terra-ordering/models"
)

func paidOrder() *models.Order {
	number := 12
	return &models.Order{
		ID:          9,
		Status:      models.StatusPaid,
		ServiceType: models.ServiceDineIn,
		TableNumber: &number,
		KOTLines: []models.KOTLine{
			{Name: "Masala Dosa", Quantity: 2, Price: 12000},
			{Name: "Masala Dosa", Quantity: 1, Price: 12000},
			{Name: "Filter Coffee", Quantity: 1, Price: 4000, Returned: true},
		},
	}
}

func TestRenderInvoice(t *testing.T) {
	svc := NewInvoiceService(nil)
	text := svc.Render(paidOrder())

	assert.Contains(t, text, "Invoice for order #9")
	assert.Contains(t, text, "Table 12")

	// KOT batches merge into one line per item
	assert.Equal(t, 1, strings.Count(text, "Masala Dosa"))
	assert.Contains(t, text, "x3")

	// Returned items are listed but excluded from the total
	assert.Contains(t, text, "returned")
	assert.Contains(t, text, "360.00")
	assert.NotContains(t, text, "400.00")
}

func TestRenderInvoiceTakeaway(t *testing.T) {
	code := "AB12CD34"
	order := paidOrder()
	order.TableNumber = nil
	order.ServiceType = models.ServiceTakeaway
	order.TakeawayToken = &code

	text := NewInvoiceService(nil).Render(order)
	assert.Contains(t, text, "Pickup code AB12CD34")
	assert.NotContains(t, text, "Table")
}

func TestArchiveInvoice(t *testing.T) {
	mock := NewMockS3Service()
	svc := NewInvoiceService(mock)

	key, url, err := svc.Archive(paidOrder())
	assert.NoError(t, err)
	assert.Contains(t, key, "order_9")
	assert.Contains(t, url, key)

	stored, ok := mock.GetInvoice(key)
	assert.True(t, ok)
	assert.Contains(t, string(stored), "Invoice for order #9")
}

func TestArchiveWithoutBackend(t *testing.T) {
	svc := NewInvoiceService(nil)
	_, _, err := svc.Archive(paidOrder())
	assert.Error(t, err)
}
