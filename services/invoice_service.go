package services

import (
	"fmt"
	"strings"

	"github.com/terra-dine/terra-ordering/models"
)

// InvoiceService renders customer invoices from paid orders and optionally
// archives them
type InvoiceService struct {
	archive S3Interface // nil disables archiving
}

// NewInvoiceService creates an invoice service; archive may be nil
func NewInvoiceService(archive S3Interface) *InvoiceService {
	return &InvoiceService{archive: archive}
}

// Render produces the plain-text invoice for an order. KOT lines are merged
// by item name; returned quantities are listed separately and excluded from
// the total.
func (i *InvoiceService) Render(order *models.Order) string {
	var b strings.Builder

	b.WriteString("TERRA DINE\n")
	b.WriteString(fmt.Sprintf("Invoice for order #%d\n", order.ID))
	if order.TableNumber != nil {
		b.WriteString(fmt.Sprintf("Table %d\n", *order.TableNumber))
	}
	if order.TakeawayToken != nil {
		b.WriteString(fmt.Sprintf("Pickup code %s\n", *order.TakeawayToken))
	}
	b.WriteString(fmt.Sprintf("Service: %s\n", order.ServiceType))
	b.WriteString(strings.Repeat("-", 40) + "\n")

	for _, line := range models.MergeKOTLines(order.KOTLines) {
		if line.ActiveQuantity > 0 {
			b.WriteString(fmt.Sprintf("%-24s x%-3d %s\n",
				line.Name, line.ActiveQuantity, formatMinor(line.Price*int64(line.ActiveQuantity))))
		}
		if line.ReturnedQuantity > 0 {
			b.WriteString(fmt.Sprintf("%-24s x%-3d returned\n", line.Name, line.ReturnedQuantity))
		}
	}

	b.WriteString(strings.Repeat("-", 40) + "\n")
	b.WriteString(fmt.Sprintf("%-28s %s\n", "TOTAL", formatMinor(order.Total())))
	b.WriteString(fmt.Sprintf("Status: %s\n", order.Status))
	return b.String()
}

// Archive renders and stores the invoice, returning the archive key and a
// presigned retrieval URL
func (i *InvoiceService) Archive(order *models.Order) (string, string, error) {
	if i.archive == nil {
		return "", "", fmt.Errorf("invoice archive is not configured")
	}

	content := i.Render(order)
	key, err := i.archive.UploadInvoice(order.ID, []byte(content))
	if err != nil {
		return "", "", err
	}

	url, err := i.archive.GetPresignedURL(key)
	if err != nil {
		return key, "", err
	}
	return key, url, nil
}

// formatMinor renders a minor-unit amount as a decimal string
func formatMinor(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
