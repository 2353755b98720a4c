/*
Package sqlite provides a SQLite-backed implementation of the royalty
engine's storage interfaces.

PURPOSE:
  Implements ContractSource, SalesSource, AuthorshipSource, and
  StatementStore using database/sql + go-sqlite3. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  contracts:          One row per (tenant, author, title), advance bookkeeping
  contract_tiers:     Graduated rate bands per contract and format
  sales:              Sale transactions, scanned with half-open period bounds
  title_authorships:  Ownership percentages per title
  statements:         Immutable statements with a JSON calculation snapshot
  batch_runs:         Batch invocation audit records

UNIQUENESS AS THE REAL LOCK:
  idx_unique_statement_period on (tenant_id, author_id, period_start,
  period_end) is the authoritative one-statement-per-period guard.
  Application-level pre-checks are a fast path only; a constraint violation
  here maps to royalty.ErrDuplicateStatement, which the assembler resolves
  into an idempotent no-op.

ATOMIC STATEMENT WRITES:
  CreateStatement inserts the statement row and updates the contract's
  advance_recouped inside one SQL transaction. Either both land or neither,
  which keeps contract recoupment monotonic under retried batches.

MONEY COLUMNS:
  Monetary amounts and rates are stored as decimal strings, never floats.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/royalty.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := royalty.NewEngine(store, store, store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - royalty/store.go: Interface definitions
  - royalty/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/quill/royalty-engine/royalty"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Contracts: one per (tenant, author, title)
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		title_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		advance_amount TEXT NOT NULL,
		advance_paid TEXT NOT NULL,
		advance_recouped TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_contract_pair
		ON contracts(tenant_id, author_id, title_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_tenant_status
		ON contracts(tenant_id, status);

	-- Rate bands. NULL max_quantity marks the unbounded top band.
	CREATE TABLE IF NOT EXISTS contract_tiers (
		contract_id TEXT NOT NULL,
		format TEXT NOT NULL,
		min_quantity INTEGER NOT NULL,
		max_quantity INTEGER,
		rate TEXT NOT NULL,
		FOREIGN KEY (contract_id) REFERENCES contracts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_tiers_contract
		ON contract_tiers(contract_id, format, min_quantity);

	-- Sale transactions; period scans use sold_at >= start AND sold_at < end
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		title_id TEXT NOT NULL,
		format TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		sold_at TEXT NOT NULL
	);

	-- Composite index for period aggregation (hot path)
	CREATE INDEX IF NOT EXISTS idx_sales_title_date
		ON sales(tenant_id, title_id, sold_at);

	-- Title ownership rows; active percentages must sum to 100
	CREATE TABLE IF NOT EXISTS title_authorships (
		tenant_id TEXT NOT NULL,
		title_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		ownership_percent TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (tenant_id, title_id, author_id)
	);

	-- Statements: write-once. No UPDATE or DELETE path exists in this store;
	-- corrections are new statements for a new period.
	CREATE TABLE IF NOT EXISTS statements (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		contract_id TEXT NOT NULL,
		title_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		calculation_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: Enforce one statement per (author, period). This index, not
	-- the application pre-check, is what makes generation idempotent.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_statement_period
		ON statements(tenant_id, author_id, period_start, period_end);

	CREATE INDEX IF NOT EXISTS idx_statements_author
		ON statements(tenant_id, author_id, period_start DESC);
	CREATE INDEX IF NOT EXISTS idx_statements_contract
		ON statements(contract_id);

	-- Batch runs (for the period-end scheduler)
	CREATE TABLE IF NOT EXISTS batch_runs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		duplicates INTEGER DEFAULT 0,
		error TEXT,
		started_at TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batch_runs_tenant
		ON batch_runs(tenant_id, period_start);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACT SOURCE (royalty.ContractSource interface)
// =============================================================================

// ActiveContract loads the active contract for (tenant, author, title) with
// its tiers attached. Returns (nil, nil) when no active contract exists.
func (s *Store) ActiveContract(ctx context.Context, tenantID royalty.TenantID, authorID royalty.AuthorID, titleID royalty.TitleID) (*royalty.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, author_id, title_id, status,
		       advance_amount, advance_paid, advance_recouped,
		       version, created_at, updated_at
		FROM contracts
		WHERE tenant_id = ? AND author_id = ? AND title_id = ? AND status = 'active'
	`, tenantID, authorID, titleID)

	contract, err := scanContract(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tiers, err := s.loadTiers(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	contract.Tiers = tiers
	return contract, nil
}

func (s *Store) loadTiers(ctx context.Context, contractID royalty.ContractID) ([]royalty.ContractTier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT format, min_quantity, max_quantity, rate
		FROM contract_tiers
		WHERE contract_id = ?
		ORDER BY format, min_quantity ASC
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tiers: %w", err)
	}
	defer rows.Close()

	var tiers []royalty.ContractTier
	for rows.Next() {
		var (
			tier royalty.ContractTier
			max  sql.NullInt64
			rate string
		)
		if err := rows.Scan(&tier.Format, &tier.MinQuantity, &max, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		if max.Valid {
			v := max.Int64
			tier.MaxQuantity = &v
		}
		tier.Rate = royalty.MustRate(rate)
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*royalty.Contract, error) {
	var (
		c                    royalty.Contract
		amount               string
		paid                 string
		recouped             string
		createdAt, updatedAt string
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.AuthorID, &c.TitleID, &c.Status,
		&amount, &paid, &recouped, &c.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.AdvanceAmount = royalty.MustMoney(amount)
	c.AdvancePaid = royalty.MustMoney(paid)
	c.AdvanceRecouped = royalty.MustMoney(recouped)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// SaveContract inserts a contract with its tiers, or replaces the advance
// terms and tier set of the existing contract for the same pair. Tier
// configuration is validated before anything is written.
func (s *Store) SaveContract(ctx context.Context, c *royalty.Contract) error {
	if err := royalty.ValidateTiers(c.ID, c.Tiers); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO contracts
		(id, tenant_id, author_id, title_id, status, advance_amount, advance_paid,
		 advance_recouped, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(tenant_id, author_id, title_id) DO UPDATE SET
			status = excluded.status,
			advance_amount = excluded.advance_amount,
			advance_paid = excluded.advance_paid,
			version = contracts.version + 1,
			updated_at = excluded.updated_at
	`, c.ID, c.TenantID, c.AuthorID, c.TitleID, c.Status,
		c.AdvanceAmount.String(), c.AdvancePaid.String(), c.AdvanceRecouped.String(),
		now, now)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}

	// On conflict the pair's surviving contract keeps its original ID.
	var contractID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM contracts WHERE tenant_id = ? AND author_id = ? AND title_id = ?",
		c.TenantID, c.AuthorID, c.TitleID,
	).Scan(&contractID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM contract_tiers WHERE contract_id = ?", contractID); err != nil {
		return err
	}
	for _, tier := range c.Tiers {
		var max any
		if tier.MaxQuantity != nil {
			max = *tier.MaxQuantity
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contract_tiers (contract_id, format, min_quantity, max_quantity, rate)
			VALUES (?, ?, ?, ?, ?)
		`, contractID, tier.Format, tier.MinQuantity, max, tier.Rate.Value.String())
		if err != nil {
			return fmt.Errorf("failed to save tier: %w", err)
		}
	}

	return tx.Commit()
}

// ActivePairs returns every (author, title) pair holding an active contract
// for the tenant. The scheduler feeds these into batch runs.
func (s *Store) ActivePairs(ctx context.Context, tenantID royalty.TenantID) ([]royalty.AuthorTitlePair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT author_id, title_id FROM contracts
		WHERE tenant_id = ? AND status = 'active'
		ORDER BY title_id, author_id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []royalty.AuthorTitlePair
	for rows.Next() {
		var p royalty.AuthorTitlePair
		if err := rows.Scan(&p.AuthorID, &p.TitleID); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// =============================================================================
// SALES SOURCE (royalty.SalesSource interface)
// =============================================================================

// SalesInPeriod returns sale transactions dated within [period.Start, period.End).
func (s *Store) SalesInPeriod(ctx context.Context, tenantID royalty.TenantID, titleID royalty.TitleID, period royalty.Period) ([]royalty.SaleTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, title_id, format, quantity, sold_at
		FROM sales
		WHERE tenant_id = ? AND title_id = ?
		  AND sold_at >= ? AND sold_at < ?
		ORDER BY sold_at ASC
	`, tenantID, titleID,
		period.Start.UTC().Format(time.RFC3339), period.End.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []royalty.SaleTransaction
	for rows.Next() {
		var (
			sale   royalty.SaleTransaction
			soldAt string
		)
		if err := rows.Scan(&sale.ID, &sale.TenantID, &sale.TitleID, &sale.Format, &sale.Quantity, &soldAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sale.SoldAt, _ = time.Parse(time.RFC3339, soldAt)
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// SaveSale records one sale transaction.
func (s *Store) SaveSale(ctx context.Context, sale royalty.SaleTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (id, tenant_id, title_id, format, quantity, sold_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sale.ID, sale.TenantID, sale.TitleID, sale.Format, sale.Quantity,
		sale.SoldAt.UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// AUTHORSHIP SOURCE (royalty.AuthorshipSource interface)
// =============================================================================

// Authorships returns a title's ownership rows, active or not.
func (s *Store) Authorships(ctx context.Context, tenantID royalty.TenantID, titleID royalty.TitleID) ([]royalty.TitleAuthorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT title_id, author_id, ownership_percent, active
		FROM title_authorships
		WHERE tenant_id = ? AND title_id = ?
		ORDER BY author_id
	`, tenantID, titleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query authorships: %w", err)
	}
	defer rows.Close()

	var result []royalty.TitleAuthorship
	for rows.Next() {
		var (
			a       royalty.TitleAuthorship
			percent string
		)
		if err := rows.Scan(&a.TitleID, &a.AuthorID, &percent, &a.Active); err != nil {
			return nil, fmt.Errorf("failed to scan authorship: %w", err)
		}
		a.OwnershipPercent, err = decimal.NewFromString(percent)
		if err != nil {
			return nil, fmt.Errorf("invalid ownership percent %q: %w", percent, err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// SaveAuthorship inserts or updates one ownership row.
func (s *Store) SaveAuthorship(ctx context.Context, tenantID royalty.TenantID, a royalty.TitleAuthorship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO title_authorships (tenant_id, title_id, author_id, ownership_percent, active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, title_id, author_id) DO UPDATE SET
			ownership_percent = excluded.ownership_percent,
			active = excluded.active
	`, tenantID, a.TitleID, a.AuthorID, a.OwnershipPercent.String(), a.Active)
	return err
}

// =============================================================================
// STATEMENT STORE (royalty.StatementStore interface)
// =============================================================================

const statementColumns = `id, tenant_id, author_id, contract_id, title_id,
	period_start, period_end, calculation_json, created_at`

// FindStatement returns the statement for (tenant, author, period), or
// (nil, nil) when none exists.
func (s *Store) FindStatement(ctx context.Context, tenantID royalty.TenantID, authorID royalty.AuthorID, period royalty.Period) (*royalty.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+statementColumns+`
		FROM statements
		WHERE tenant_id = ? AND author_id = ? AND period_start = ? AND period_end = ?
	`, tenantID, authorID,
		period.Start.UTC().Format(time.RFC3339), period.End.UTC().Format(time.RFC3339))

	stmt, err := scanStatement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stmt, err
}

// CreateStatement inserts the statement and applies the contract recoupment
// update in one SQL transaction. A unique-index violation on the statement
// insert maps to royalty.ErrDuplicateStatement and nothing is written.
func (s *Store) CreateStatement(ctx context.Context, stmt *royalty.Statement, contractID royalty.ContractID, newRecoupedTotal royalty.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	calcJSON, err := json.Marshal(stmt.Calculation)
	if err != nil {
		return fmt.Errorf("failed to encode calculation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO statements
		(id, tenant_id, author_id, contract_id, title_id, period_start, period_end,
		 calculation_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stmt.ID, stmt.TenantID, stmt.AuthorID, stmt.ContractID, stmt.TitleID,
		stmt.Period.Start.UTC().Format(time.RFC3339),
		stmt.Period.End.UTC().Format(time.RFC3339),
		string(calcJSON),
		stmt.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return royalty.ErrDuplicateStatement
		}
		return fmt.Errorf("failed to insert statement: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE contracts
		SET advance_recouped = ?, version = version + 1, updated_at = ?
		WHERE id = ?
	`, newRecoupedTotal.String(), time.Now().UTC().Format(time.RFC3339), contractID)
	if err != nil {
		return fmt.Errorf("failed to update contract recoupment: %w", err)
	}

	return tx.Commit()
}

// GetStatement retrieves a statement by ID.
func (s *Store) GetStatement(ctx context.Context, id royalty.StatementID) (*royalty.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE id = ?`, id)

	stmt, err := scanStatement(row)
	if err == sql.ErrNoRows {
		return nil, royalty.ErrStatementNotFound
	}
	return stmt, err
}

// StatementsByAuthor returns an author's statements, newest period first.
func (s *Store) StatementsByAuthor(ctx context.Context, tenantID royalty.TenantID, authorID royalty.AuthorID) ([]royalty.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+statementColumns+`
		FROM statements
		WHERE tenant_id = ? AND author_id = ?
		ORDER BY period_start DESC
	`, tenantID, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer rows.Close()

	var statements []royalty.Statement
	for rows.Next() {
		stmt, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, *stmt)
	}
	return statements, rows.Err()
}

func scanStatement(row rowScanner) (*royalty.Statement, error) {
	var (
		stmt        royalty.Statement
		periodStart string
		periodEnd   string
		calcJSON    string
		createdAt   string
	)
	err := row.Scan(&stmt.ID, &stmt.TenantID, &stmt.AuthorID, &stmt.ContractID,
		&stmt.TitleID, &periodStart, &periodEnd, &calcJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	stmt.Period.Start, _ = time.Parse(time.RFC3339, periodStart)
	stmt.Period.End, _ = time.Parse(time.RFC3339, periodEnd)
	stmt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if err := json.Unmarshal([]byte(calcJSON), &stmt.Calculation); err != nil {
		return nil, fmt.Errorf("failed to decode calculation snapshot: %w", err)
	}
	return &stmt, nil
}

// =============================================================================
// BATCH RUN STORE (for the period-end scheduler)
// =============================================================================

// BatchRun is one batch invocation's audit record.
type BatchRun struct {
	ID          string
	TenantID    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      string // running, completed, failed
	Succeeded   int
	Failed      int
	Duplicates  int
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// SaveBatchRun inserts or updates a batch run record.
func (s *Store) SaveBatchRun(ctx context.Context, r BatchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_runs (id, tenant_id, period_start, period_end, status,
			succeeded, failed, duplicates, error, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			duplicates = excluded.duplicates,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, r.ID, r.TenantID,
		r.PeriodStart.UTC().Format(time.RFC3339), r.PeriodEnd.UTC().Format(time.RFC3339),
		r.Status, r.Succeeded, r.Failed, r.Duplicates, nullString(r.Error),
		nullTime(r.StartedAt), nullTime(r.CompletedAt),
		r.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// ListBatchRuns returns a tenant's batch runs, newest first.
func (s *Store) ListBatchRuns(ctx context.Context, tenantID royalty.TenantID) ([]BatchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, period_start, period_end, status,
		       succeeded, failed, duplicates, error, started_at, completed_at, created_at
		FROM batch_runs
		WHERE tenant_id = ?
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []BatchRun
	for rows.Next() {
		var (
			r                               BatchRun
			periodStart, periodEnd          string
			createdAt                       string
			errText, startedAt, completedAt sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.TenantID, &periodStart, &periodEnd, &r.Status,
			&r.Succeeded, &r.Failed, &r.Duplicates, &errText, &startedAt, &completedAt, &createdAt); err != nil {
			return nil, err
		}
		r.PeriodStart, _ = time.Parse(time.RFC3339, periodStart)
		r.PeriodEnd, _ = time.Parse(time.RFC3339, periodEnd)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.Error = errText.String
		if startedAt.Valid {
			t, _ := time.Parse(time.RFC3339, startedAt.String)
			r.StartedAt = &t
		}
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// HasCompletedBatchRun reports whether a completed run exists for the period.
// The scheduler uses this to skip periods already processed; statement
// uniqueness still protects against the check racing a concurrent run.
func (s *Store) HasCompletedBatchRun(ctx context.Context, tenantID royalty.TenantID, period royalty.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM batch_runs
		WHERE tenant_id = ? AND period_start = ? AND period_end = ? AND status = 'completed'
	`, tenantID,
		period.Start.UTC().Format(time.RFC3339), period.End.UTC().Format(time.RFC3339),
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"statements", "batch_runs", "contract_tiers", "contracts", "sales", "title_authorships"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
