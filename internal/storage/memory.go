package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
)

// table keeps rows by value so callers never share memory with the store.
type table[T interface{ IsDeleted() bool }] struct {
	rows   map[uint]T
	lastID uint
}

func newTable[T interface{ IsDeleted() bool }]() *table[T] {
	return &table[T]{rows: make(map[uint]T)}
}

func (t *table[T]) next() uint {
	t.lastID++
	return t.lastID
}

func (t *table[T]) get(id uint) (T, bool) {
	row, ok := t.rows[id]
	if !ok || row.IsDeleted() {
		var zero T
		return zero, false
	}
	return row, true
}

func (t *table[T]) find(match func(T) bool) (T, bool) {
	for _, id := range t.ids() {
		if row, ok := t.get(id); ok && match(row) {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// live returns copies of the non-deleted rows ordered by id.
func (t *table[T]) live() []*T {
	out := make([]*T, 0, len(t.rows))
	for _, id := range t.ids() {
		if row, ok := t.get(id); ok {
			out = append(out, &row)
		}
	}
	return out
}

func (t *table[T]) count() int64 {
	return int64(len(t.live()))
}

func (t *table[T]) ids() []uint {
	ids := make([]uint, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{rows: make(map[uint]T, len(t.rows)), lastID: t.lastID}
	for id, row := range t.rows {
		c.rows[id] = row
	}
	return c
}

// MemoryStore holds all data in memory. Used by tests and USE_MEMORY_STORE=true.
type MemoryStore struct {
	mu sync.RWMutex

	clients      *table[models.Client]
	destinations *table[models.Destination]
	origins      *table[models.Origin]
	admins       *table[models.Administrator]
	quotations   *table[models.Quotation]

	codes      []models.VerificationCode
	codeLastID uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:      newTable[models.Client](),
		destinations: newTable[models.Destination](),
		origins:      newTable[models.Origin](),
		admins:       newTable[models.Administrator](),
		quotations:   newTable[models.Quotation](),
	}
}

func (m *MemoryStore) snapshot() *MemoryStore {
	return &MemoryStore{
		clients:      m.clients.clone(),
		destinations: m.destinations.clone(),
		origins:      m.origins.clone(),
		admins:       m.admins.clone(),
		quotations:   m.quotations.clone(),
		codes:        append([]models.VerificationCode(nil), m.codes...),
		codeLastID:   m.codeLastID,
	}
}

// Transaction runs fn on a working copy while holding the write lock and
// swaps the copy in only if fn succeeds.
func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.snapshot()
	if err := fn(work); err != nil {
		return err
	}
	m.clients, m.destinations, m.origins = work.clients, work.destinations, work.origins
	m.admins, m.quotations = work.admins, work.quotations
	m.codes, m.codeLastID = work.codes, work.codeLastID
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Counts(ctx context.Context) (*Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Counts{
		Clients:      m.clients.count(),
		Destinations: m.destinations.count(),
		Origins:      m.origins.count(),
		Quotations:   m.quotations.count(),
		Codes:        int64(len(m.codes)),
	}, nil
}

// Client operations
func (m *MemoryStore) CreateClient(ctx context.Context, client *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client.ID = m.clients.next()
	client.Touch(time.Now())
	m.clients.rows[client.ID] = *client
	return nil
}

func (m *MemoryStore) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &client, nil
}

func (m *MemoryStore) GetClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients.find(func(c models.Client) bool { return c.Phone == phone })
	if !ok {
		return nil, ErrNotFound
	}
	return &client, nil
}

func (m *MemoryStore) ListClients(ctx context.Context) ([]*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients.live(), nil
}

func (m *MemoryStore) UpdateClient(ctx context.Context, client *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.clients.get(client.ID)
	if !ok {
		return ErrNotFound
	}
	client.CreatedAt = current.CreatedAt
	client.Touch(time.Now())
	m.clients.rows[client.ID] = *client
	return nil
}

func (m *MemoryStore) DeleteClient(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients.get(id)
	if !ok {
		return ErrNotFound
	}
	client.MarkDeleted(time.Now())
	m.clients.rows[id] = client
	return nil
}

// Destination operations
func (m *MemoryStore) CreateDestination(ctx context.Context, dest *models.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dest.ID = m.destinations.next()
	dest.Touch(time.Now())
	m.destinations.rows[dest.ID] = *dest
	return nil
}

func (m *MemoryStore) GetDestination(ctx context.Context, id uint) (*models.Destination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dest, ok := m.destinations.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &dest, nil
}

func (m *MemoryStore) GetDestinationByPostalCode(ctx context.Context, postalCode string) (*models.Destination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dest, ok := m.destinations.find(func(d models.Destination) bool { return d.PostalCode == postalCode })
	if !ok {
		return nil, ErrNotFound
	}
	return &dest, nil
}

func (m *MemoryStore) ListDestinations(ctx context.Context) ([]*models.Destination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.destinations.live(), nil
}

func (m *MemoryStore) UpdateDestination(ctx context.Context, dest *models.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.destinations.get(dest.ID)
	if !ok {
		return ErrNotFound
	}
	dest.CreatedAt = current.CreatedAt
	dest.Touch(time.Now())
	m.destinations.rows[dest.ID] = *dest
	return nil
}

func (m *MemoryStore) DeleteDestination(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dest, ok := m.destinations.get(id)
	if !ok {
		return ErrNotFound
	}
	dest.MarkDeleted(time.Now())
	m.destinations.rows[id] = dest
	return nil
}

// Origin operations
func (m *MemoryStore) CreateOrigin(ctx context.Context, origin *models.Origin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	origin.ID = m.origins.next()
	origin.Touch(time.Now())
	m.origins.rows[origin.ID] = *origin
	return nil
}

func (m *MemoryStore) GetOrigin(ctx context.Context, id uint) (*models.Origin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	origin, ok := m.origins.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &origin, nil
}

func (m *MemoryStore) ListOrigins(ctx context.Context) ([]*models.Origin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.origins.live(), nil
}

func (m *MemoryStore) UpdateOrigin(ctx context.Context, origin *models.Origin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.origins.get(origin.ID)
	if !ok {
		return ErrNotFound
	}
	origin.CreatedAt = current.CreatedAt
	origin.Touch(time.Now())
	m.origins.rows[origin.ID] = *origin
	return nil
}

func (m *MemoryStore) DeleteOrigin(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	origin, ok := m.origins.get(id)
	if !ok {
		return ErrNotFound
	}
	origin.MarkDeleted(time.Now())
	m.origins.rows[id] = origin
	return nil
}

// Administrator operations
func (m *MemoryStore) CreateAdministrator(ctx context.Context, admin *models.Administrator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	admin.ID = m.admins.next()
	admin.Touch(time.Now())
	m.admins.rows[admin.ID] = *admin
	return nil
}

func (m *MemoryStore) GetAdministrator(ctx context.Context, id uint) (*models.Administrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	admin, ok := m.admins.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &admin, nil
}

func (m *MemoryStore) GetAdministratorByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	admin, ok := m.admins.find(func(a models.Administrator) bool { return a.Email == email })
	if !ok {
		return nil, ErrNotFound
	}
	return &admin, nil
}

func (m *MemoryStore) ListAdministrators(ctx context.Context) ([]*models.Administrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.admins.live(), nil
}

func (m *MemoryStore) UpdateAdministrator(ctx context.Context, admin *models.Administrator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.admins.get(admin.ID)
	if !ok {
		return ErrNotFound
	}
	admin.CreatedAt = current.CreatedAt
	admin.Touch(time.Now())
	m.admins.rows[admin.ID] = *admin
	return nil
}

func (m *MemoryStore) DeleteAdministrator(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	admin, ok := m.admins.get(id)
	if !ok {
		return ErrNotFound
	}
	admin.MarkDeleted(time.Now())
	m.admins.rows[id] = admin
	return nil
}

// Verification code operations
func (m *MemoryStore) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.codeLastID++
	code.ID = m.codeLastID
	code.Code = models.NormalizeCode(code.Code)
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	m.codes = append(m.codes, *code)
	return nil
}

func (m *MemoryStore) activeCodeIndex(code string) int {
	for i := range m.codes {
		if m.codes[i].Code == code && !m.codes[i].Consumed {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) GetActiveVerificationCode(ctx context.Context, code string) (*models.VerificationCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.activeCodeIndex(code)
	if i < 0 {
		return nil, ErrNotFound
	}
	vc := m.codes[i]
	return &vc, nil
}

func (m *MemoryStore) VerificationCodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, vc := range m.codes {
		if vc.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ConsumeVerificationCode(ctx context.Context, code string) (*models.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.activeCodeIndex(code)
	if i < 0 {
		return nil, ErrNotFound
	}
	m.codes[i].Consumed = true
	vc := m.codes[i]
	return &vc, nil
}

// Quotation operations
func (m *MemoryStore) CreateQuotation(ctx context.Context, q *models.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q.ID = m.quotations.next()
	if q.Status == "" {
		q.Status = models.StatusPending
	}
	q.Touch(time.Now())
	m.quotations.rows[q.ID] = *q
	return nil
}

func (m *MemoryStore) GetQuotation(ctx context.Context, id uint) (*models.Quotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.quotations.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *MemoryStore) ListQuotations(ctx context.Context) ([]*models.Quotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quotations.live(), nil
}

func (m *MemoryStore) UpdateQuotation(ctx context.Context, q *models.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.quotations.get(q.ID)
	if !ok {
		return ErrNotFound
	}
	q.CreatedAt = current.CreatedAt
	q.Touch(time.Now())
	m.quotations.rows[q.ID] = *q
	return nil
}

func (m *MemoryStore) DecideQuotation(ctx context.Context, id uint, status models.QuotationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotations.get(id)
	if !ok {
		return ErrNotFound
	}
	if !q.IsPending() {
		return models.ErrNotPending
	}
	q.Status = status
	q.Touch(time.Now())
	m.quotations.rows[id] = q
	return nil
}

func (m *MemoryStore) DeleteQuotation(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotations.get(id)
	if !ok {
		return ErrNotFound
	}
	q.MarkDeleted(time.Now())
	m.quotations.rows[id] = q
	return nil
}
