// Package store provides in-memory implementations of the royalty engine's
// persistence interfaces, for testing and development.
package store

import (
	"context"
	"sync"

	"github.com/quill/royalty-engine/royalty"
)

// =============================================================================
// MEMORY STORE - Implements every engine boundary interface
// =============================================================================

type contractKey struct {
	Tenant royalty.TenantID
	Author royalty.AuthorID
	Title  royalty.TitleID
}

type statementKey struct {
	Tenant royalty.TenantID
	Author royalty.AuthorID
	Period string
}

type Memory struct {
	mu          sync.RWMutex
	contracts   map[contractKey]*royalty.Contract
	sales       map[royalty.TitleID][]royalty.SaleTransaction
	authorships map[royalty.TitleID][]royalty.TitleAuthorship
	statements  map[statementKey]*royalty.Statement
	byID        map[royalty.StatementID]*royalty.Statement
}

func NewMemory() *Memory {
	return &Memory{
		contracts:   make(map[contractKey]*royalty.Contract),
		sales:       make(map[royalty.TitleID][]royalty.SaleTransaction),
		authorships: make(map[royalty.TitleID][]royalty.TitleAuthorship),
		statements:  make(map[statementKey]*royalty.Statement),
		byID:        make(map[royalty.StatementID]*royalty.Statement),
	}
}

// =============================================================================
// SEEDING (test/dev setup)
// =============================================================================

// PutContract stores or replaces the contract for its (tenant, author, title).
func (m *Memory) PutContract(c *royalty.Contract) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contracts[contractKey{c.TenantID, c.AuthorID, c.TitleID}] = &cp
}

// AddSale appends a sale transaction.
func (m *Memory) AddSale(sale royalty.SaleTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[sale.TitleID] = append(m.sales[sale.TitleID], sale)
}

// PutAuthorships replaces a title's authorship rows.
func (m *Memory) PutAuthorships(titleID royalty.TitleID, rows []royalty.TitleAuthorship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorships[titleID] = append([]royalty.TitleAuthorship(nil), rows...)
}

// =============================================================================
// CONTRACT SOURCE
// =============================================================================

func (m *Memory) ActiveContract(_ context.Context, tenantID royalty.TenantID, authorID royalty.AuthorID, titleID royalty.TitleID) (*royalty.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contracts[contractKey{tenantID, authorID, titleID}]
	if !ok || c.Status != royalty.ContractActive {
		return nil, nil
	}
	cp := *c
	cp.Tiers = append([]royalty.ContractTier(nil), c.Tiers...)
	return &cp, nil
}

// Contract returns the stored contract regardless of status (for assertions).
func (m *Memory) Contract(tenantID royalty.TenantID, authorID royalty.AuthorID, titleID royalty.TitleID) *royalty.Contract {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.contracts[contractKey{tenantID, authorID, titleID}]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// =============================================================================
// SALES SOURCE
// =============================================================================

func (m *Memory) SalesInPeriod(_ context.Context, tenantID royalty.TenantID, titleID royalty.TitleID, period royalty.Period) ([]royalty.SaleTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []royalty.SaleTransaction
	for _, sale := range m.sales[titleID] {
		if sale.TenantID == tenantID && period.Contains(sale.SoldAt) {
			result = append(result, sale)
		}
	}
	return result, nil
}

// =============================================================================
// AUTHORSHIP SOURCE
// =============================================================================

func (m *Memory) Authorships(_ context.Context, _ royalty.TenantID, titleID royalty.TitleID) ([]royalty.TitleAuthorship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]royalty.TitleAuthorship(nil), m.authorships[titleID]...), nil
}

// =============================================================================
// STATEMENT STORE
// =============================================================================

func (m *Memory) FindStatement(_ context.Context, tenantID royalty.TenantID, authorID royalty.AuthorID, period royalty.Period) (*royalty.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if stmt, ok := m.statements[statementKey{tenantID, authorID, period.Key()}]; ok {
		cp := *stmt
		return &cp, nil
	}
	return nil, nil
}

// CreateStatement inserts the statement and applies the recoupment update
// under one lock, mirroring the SQL store's single transaction.
func (m *Memory) CreateStatement(_ context.Context, stmt *royalty.Statement, contractID royalty.ContractID, newRecoupedTotal royalty.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := statementKey{stmt.TenantID, stmt.AuthorID, stmt.Period.Key()}
	if _, exists := m.statements[key]; exists {
		return royalty.ErrDuplicateStatement
	}

	cp := *stmt
	m.statements[key] = &cp
	m.byID[stmt.ID] = &cp

	for _, c := range m.contracts {
		if c.ID == contractID {
			c.AdvanceRecouped = newRecoupedTotal
			c.Version++
			break
		}
	}
	return nil
}

func (m *Memory) GetStatement(_ context.Context, id royalty.StatementID) (*royalty.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if stmt, ok := m.byID[id]; ok {
		cp := *stmt
		return &cp, nil
	}
	return nil, royalty.ErrStatementNotFound
}

func (m *Memory) StatementsByAuthor(_ context.Context, tenantID royalty.TenantID, authorID royalty.AuthorID) ([]royalty.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []royalty.Statement
	for _, stmt := range m.statements {
		if stmt.TenantID == tenantID && stmt.AuthorID == authorID {
			result = append(result, *stmt)
		}
	}
	// Newest period first.
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].Period.Start.After(result[j-1].Period.Start); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result, nil
}

// StatementCount reports how many statements exist (for idempotence tests).
func (m *Memory) StatementCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statements)
}
