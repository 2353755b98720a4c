/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines the boundary between the calculation pipeline and storage. The
  engine reads contracts, sales, and authorships, and writes statements.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  ContractSource:   Active contract + tiers per (tenant, author, title)
                    (defined in contract.go next to its resolver)
  SalesSource:      Sales transactions per (tenant, title, period)
                    (defined in sales.go next to its aggregator)
  AuthorshipSource: Ownership rows per (tenant, title)
  StatementStore:   Transactional statement sink

IDEMPOTENCY CONTRACT:
  StatementStore.CreateStatement MUST enforce uniqueness on
  (tenant, author, period_start, period_end) and return
  ErrDuplicateStatement on violation. The assembler's pre-check is a
  fast path; the store constraint is the real lock. CreateStatement also
  updates the contract's advance_recouped value in the SAME transaction:
  either the statement and the recoupment update both land, or neither.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - royalty/store/memory.go: In-memory for testing

SEE ALSO:
  - statement.go: The assembler that drives StatementStore
*/
package royalty

import "context"

// =============================================================================
// AUTHORSHIP SOURCE
// =============================================================================

// AuthorshipSource provides read access to title ownership rows.
type AuthorshipSource interface {
	// Authorships returns all authorship rows for the title, active or not.
	Authorships(ctx context.Context, tenantID TenantID, titleID TitleID) ([]TitleAuthorship, error)
}

// =============================================================================
// STATEMENT STORE
// =============================================================================

// StatementStore persists statements. Statements are append-only: no update
// or delete exists. Corrections are new statements.
type StatementStore interface {
	// FindStatement returns the statement for (tenant, author, period), or
	// (nil, nil) when none exists.
	FindStatement(ctx context.Context, tenantID TenantID, authorID AuthorID, period Period) (*Statement, error)

	// CreateStatement inserts the statement and sets the contract's
	// advance_recouped to newRecoupedTotal atomically. Returns
	// ErrDuplicateStatement when a statement already exists for the
	// statement's (tenant, author, period) key.
	CreateStatement(ctx context.Context, stmt *Statement, contractID ContractID, newRecoupedTotal Money) error

	// GetStatement returns a statement by ID, or ErrStatementNotFound.
	GetStatement(ctx context.Context, id StatementID) (*Statement, error)

	// StatementsByAuthor returns an author's statements, newest period first.
	StatementsByAuthor(ctx context.Context, tenantID TenantID, authorID AuthorID) ([]Statement, error)
}
