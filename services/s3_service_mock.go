package services

import (
	"fmt"
	"sync"
)

// MockS3Service is a mock implementation of the invoice archive for testing
type MockS3Service struct {
	uploadedInvoices map[string][]byte // map of S3 key to invoice content
	mu               sync.RWMutex
}

// NewMockS3Service creates a new mock invoice archive
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedInvoices: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global S3 service instance
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

// UploadInvoice simulates archiving an invoice
func (m *MockS3Service) UploadInvoice(orderID uint, content []byte) (string, error) {
	s3Key := fmt.Sprintf("invoices/mock_order_%d.txt", orderID)

	m.mu.Lock()
	m.uploadedInvoices[s3Key] = append([]byte(nil), content...)
	m.mu.Unlock()

	return s3Key, nil
}

// GetPresignedURL simulates generating a presigned URL
func (m *MockS3Service) GetPresignedURL(s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.uploadedInvoices[s3Key]; !ok {
		return "", fmt.Errorf("invoice not found: %s", s3Key)
	}
	return "https://mock-bucket.s3.amazonaws.com/" + s3Key + "?presigned=true", nil
}

// DeleteInvoice simulates deleting an archived invoice
func (m *MockS3Service) DeleteInvoice(s3Key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.uploadedInvoices, s3Key)
	return nil
}

// GetInvoice returns the stored content for assertions in tests
func (m *MockS3Service) GetInvoice(s3Key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.uploadedInvoices[s3Key]
	return content, ok
}
