package services

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"reelworks/studio/internal/models"
)

// --- IProjectService mock ---

type mockProjectService struct {
	projects []models.Project
	err      error
}

func (m *mockProjectService) FindByID(ctx context.Context, projectID string) (*models.Project, error) {
	for i := range m.projects {
		if m.projects[i].ID == projectID {
			return &m.projects[i], nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockProjectService) FindByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Project
	for _, p := range m.projects {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectService) FindBillableByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Project
	for _, p := range m.projects {
		if p.ClientID == clientID && IsBillable(&p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectService) AddFileLink(ctx context.Context, projectID, objectKey string) error {
	return nil
}

func (m *mockProjectService) AddDesignLink(ctx context.Context, projectID, objectKey string) error {
	return nil
}

// --- IUserService mock ---

type mockUserService struct {
	mu              sync.Mutex
	users           map[string]*models.User
	suspendCalls    int
	unsuspendCalls  int
	suspendedState  map[string]bool
	failSuspend     error
	failUnsuspend   error
	allClientIDsErr error
}

func newMockUserService(users ...*models.User) *mockUserService {
	m := &mockUserService{
		users:          make(map[string]*models.User),
		suspendedState: make(map[string]bool),
	}
	for _, u := range users {
		m.users[u.ID] = u
		m.suspendedState[u.ID] = u.Suspended
	}
	return m
}

func (m *mockUserService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockUserService) CreateUser(ctx context.Context, name, email, password string, role models.Role, groupID string) (*models.User, error) {
	return nil, fmt.Errorf("not implemented in mock")
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return nil, ErrBadCredentials
}

func (m *mockUserService) GetAllClientIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allClientIDsErr != nil {
		return nil, m.allClientIDsErr
	}
	var ids []string
	for id, u := range m.users {
		if u.Role == models.RoleClient {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockUserService) Suspend(ctx context.Context, userID, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSuspend != nil {
		return false, m.failSuspend
	}
	if _, ok := m.users[userID]; !ok {
		return false, mongo.ErrNoDocuments
	}
	m.suspendCalls++
	if m.suspendedState[userID] {
		return false, nil
	}
	m.suspendedState[userID] = true
	m.users[userID].Suspended = true
	return true, nil
}

func (m *mockUserService) ClearSuspension(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUnsuspend != nil {
		return false, m.failUnsuspend
	}
	if _, ok := m.users[userID]; !ok {
		return false, mongo.ErrNoDocuments
	}
	m.unsuspendCalls++
	if !m.suspendedState[userID] {
		return false, nil
	}
	m.suspendedState[userID] = false
	m.users[userID].Suspended = false
	return true, nil
}

// --- IBillingService mock ---

type mockBillingService struct {
	mu        sync.Mutex
	derived   []models.Invoice
	persisted map[string]*models.Invoice
	insertErr error
}

func newMockBillingService() *mockBillingService {
	return &mockBillingService{persisted: make(map[string]*models.Invoice)}
}

func (m *mockBillingService) BuildLineItems(p *models.Project) []models.InvoiceLineItem {
	return nil
}

func (m *mockBillingService) BuildInvoicesForClient(ctx context.Context, clientID string) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Invoice
	for _, inv := range m.derived {
		if inv.ClientID == clientID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockBillingService) ListInvoices(ctx context.Context, clientID string) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Invoice
	for _, inv := range m.derived {
		if inv.ClientID != clientID {
			continue
		}
		if stored, ok := m.persisted[inv.ReferenceID]; ok {
			out = append(out, *stored)
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *mockBillingService) FindPersistedByReference(ctx context.Context, referenceID string) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.persisted[referenceID]; ok {
		copied := *inv
		return &copied, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockBillingService) InsertPersisted(ctx context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.persisted[inv.ReferenceID]; ok {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	inv.GenIDIfEmpty()
	inv.Source = models.SourcePersisted
	copied := *inv
	m.persisted[inv.ReferenceID] = &copied
	return nil
}

func (m *mockBillingService) MarkPersistedPaid(ctx context.Context, referenceID, method, transactionRef string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.persisted[referenceID]
	if !ok || inv.Status == models.InvoicePaid {
		return false, nil
	}
	inv.Status = models.InvoicePaid
	inv.PaymentMethod = method
	inv.TransactionRef = transactionRef
	return true, nil
}

// --- cache.MarkerStore mock ---

type memoryMarkerStore struct {
	mu      sync.Mutex
	markers map[string]bool
	err     error
}

func newMemoryMarkerStore() *memoryMarkerStore {
	return &memoryMarkerStore{markers: make(map[string]bool)}
}

func (m *memoryMarkerStore) key(invoiceID string, thresholdDays int) string {
	return fmt.Sprintf("%s:%d", invoiceID, thresholdDays)
}

func (m *memoryMarkerStore) MarkOnce(ctx context.Context, invoiceID string, thresholdDays int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	k := m.key(invoiceID, thresholdDays)
	if m.markers[k] {
		return false, nil
	}
	m.markers[k] = true
	return true, nil
}

func (m *memoryMarkerStore) HasMarker(ctx context.Context, invoiceID string, thresholdDays int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markers[m.key(invoiceID, thresholdDays)], nil
}

// --- email.Notifier mock ---

type mockNotifier struct {
	mu          sync.Mutex
	reminders   []string
	warnings    []string
	reminderErr error
	warningErr  error
}

func (m *mockNotifier) SendReminder(ctx context.Context, toAddress, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reminderErr != nil {
		return m.reminderErr
	}
	m.reminders = append(m.reminders, toAddress)
	return nil
}

func (m *mockNotifier) SendSuspensionWarning(ctx context.Context, toAddress, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.warningErr != nil {
		return m.warningErr
	}
	m.warnings = append(m.warnings, toAddress)
	return nil
}
