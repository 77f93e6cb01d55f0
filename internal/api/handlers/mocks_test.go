package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reelworks/studio/internal/models"
	"reelworks/studio/internal/services"
)

// --- Mocks ---

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, name, email, password string, role models.Role, groupID string) (*models.User, error) {
	args := m.Called(ctx, name, email, password, role, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetAllClientIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserService) Suspend(ctx context.Context, userID, reason string) (bool, error) {
	args := m.Called(ctx, userID, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) ClearSuspension(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockBillingService
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) BuildLineItems(p *models.Project) []models.InvoiceLineItem {
	args := m.Called(p)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.InvoiceLineItem)
}

func (m *MockBillingService) BuildInvoicesForClient(ctx context.Context, clientID string) ([]models.Invoice, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *MockBillingService) ListInvoices(ctx context.Context, clientID string) ([]models.Invoice, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *MockBillingService) FindPersistedByReference(ctx context.Context, referenceID string) (*models.Invoice, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockBillingService) InsertPersisted(ctx context.Context, inv *models.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockBillingService) MarkPersistedPaid(ctx context.Context, referenceID, method, transactionRef string) (bool, error) {
	args := m.Called(ctx, referenceID, method, transactionRef)
	return args.Bool(0), args.Error(1)
}

// MockEscalationService
type MockEscalationService struct {
	mock.Mock
}

func (m *MockEscalationService) ScanClient(ctx context.Context, client *models.User, invoices []models.Invoice) error {
	args := m.Called(ctx, client, invoices)
	return args.Error(0)
}

func (m *MockEscalationService) ScanAllClients(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateOrder(ctx context.Context, clientID, referenceID string) (*services.PaymentOrder, error) {
	args := m.Called(ctx, clientID, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PaymentOrder), args.Error(1)
}

func (m *MockPaymentService) ReconcileCapture(ctx context.Context, clientID, referenceID, transactionID string, amount float64, method string) (*services.CaptureResult, error) {
	args := m.Called(ctx, clientID, referenceID, transactionID, amount, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CaptureResult), args.Error(1)
}

// MockProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) FindByID(ctx context.Context, projectID string) (*models.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) FindByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) FindBillableByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) AddFileLink(ctx context.Context, projectID, objectKey string) error {
	args := m.Called(ctx, projectID, objectKey)
	return args.Error(0)
}

func (m *MockProjectService) AddDesignLink(ctx context.Context, projectID, objectKey string) error {
	args := m.Called(ctx, projectID, objectKey)
	return args.Error(0)
}

// MockDeliverableStorage
type MockDeliverableStorage struct {
	mock.Mock
}

func (m *MockDeliverableStorage) PresignDownload(ctx context.Context, objectKey string) (string, error) {
	args := m.Called(ctx, objectKey)
	return args.String(0), args.Error(1)
}

func (m *MockDeliverableStorage) PresignUpload(ctx context.Context, projectID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, projectID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}
