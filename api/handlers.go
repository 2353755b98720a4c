/*
handlers.go - HTTP API handlers for the royalty engine

PURPOSE:
  Exposes the royalty calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Statements:
    POST   /api/statements/generate       Generate one author's statement
    POST   /api/statements/batch          Generate statements for many pairs
    GET    /api/statements/{id}           Get statement by ID
    GET    /api/authors/{id}/statements   Author's statements, newest first

  Admin:
    POST   /api/admin/contracts           Create/replace a contract with tiers
    GET    /api/admin/contracts           Get a contract by pair
    POST   /api/admin/sales               Record a sale transaction
    POST   /api/admin/authorships         Set a title ownership row
    GET    /api/admin/batch-runs          Batch run audit records
    POST   /api/reset                     Database reset (dev only)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, invalid period
  - 404: Statement or contract not found
  - 422: Configuration errors (tier gap, ownership split mismatch)
  - 500: Internal errors

  A duplicate statement is NOT an error: generation returns 200 with
  duplicate=true and the existing statement, so retries converge.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - royalty/engine.go: The pipeline these handlers invoke
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quill/royalty-engine/royalty"
	"github.com/quill/royalty-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	Engine       *royalty.Engine
	Orchestrator *royalty.BatchOrchestrator

	currentScenario string
}

// NewHandler creates a new handler with the given store. The store backs
// every engine boundary (contracts, sales, authorships, statements).
func NewHandler(store *sqlite.Store, workers int) *Handler {
	engine := royalty.NewEngine(store, store, store, store)
	return &Handler{
		Store:        store,
		Engine:       engine,
		Orchestrator: royalty.NewBatchOrchestrator(engine, workers),
	}
}

// =============================================================================
// STATEMENT HANDLERS
// =============================================================================

// GenerateStatement generates one author's statement for one title and period.
func (h *Handler) GenerateStatement(w http.ResponseWriter, r *http.Request) {
	var req GenerateStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TenantID == "" || req.AuthorID == "" || req.TitleID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id, author_id and title_id are required", nil)
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	result, err := h.Engine.GenerateStatement(r.Context(),
		royalty.TenantID(req.TenantID),
		royalty.AuthorID(req.AuthorID),
		royalty.TitleID(req.TitleID),
		period)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateStatementResponse{
		Statement: toStatementDTO(result.Statement),
		Duplicate: result.Duplicate,
	})
}

// RunBatch generates statements for many pairs in one period. Re-running a
// batch is safe: already generated statements come back as duplicates.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required", nil)
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	tenantID := royalty.TenantID(req.TenantID)

	pairs := make([]royalty.AuthorTitlePair, 0, len(req.Pairs))
	for _, p := range req.Pairs {
		pairs = append(pairs, royalty.AuthorTitlePair{
			AuthorID: royalty.AuthorID(p.AuthorID),
			TitleID:  royalty.TitleID(p.TitleID),
		})
	}
	if len(pairs) == 0 {
		pairs, err = h.Store.ActivePairs(r.Context(), tenantID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list active contracts", err)
			return
		}
	}

	orchestrator := h.Orchestrator
	if req.Workers > 0 {
		orchestrator = royalty.NewBatchOrchestrator(h.Engine, req.Workers)
	}

	result, err := orchestrator.RunBatch(r.Context(), tenantID, period, pairs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.recordBatchRun(r, tenantID, period, result)
	writeJSON(w, http.StatusOK, toBatchResponse(result))
}

func (h *Handler) recordBatchRun(r *http.Request, tenantID royalty.TenantID, period royalty.Period, result *royalty.BatchResult) {
	now := time.Now().UTC()
	run := sqlite.BatchRun{
		ID:          fmt.Sprintf("run-%s", uuid.NewString()),
		TenantID:    string(tenantID),
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Status:      "completed",
		Succeeded:   len(result.Succeeded),
		Failed:      len(result.Failed),
		Duplicates:  result.Duplicates(),
		StartedAt:   &now,
		CompletedAt: &now,
		CreatedAt:   now,
	}
	if len(result.Failed) > 0 {
		run.Status = "failed"
		run.Error = fmt.Sprintf("%d of %d pairs failed", len(result.Failed),
			len(result.Failed)+len(result.Succeeded))
	}
	if err := h.Store.SaveBatchRun(r.Context(), run); err != nil {
		log.Printf("[API] Failed to record batch run %s: %v", run.ID, err)
	}
}

// GetStatement returns a single statement by ID.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id := royalty.StatementID(chi.URLParam(r, "id"))

	stmt, err := h.Store.GetStatement(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatementDTO(stmt))
}

// ListAuthorStatements returns an author's statements, newest period first.
func (h *Handler) ListAuthorStatements(w http.ResponseWriter, r *http.Request) {
	authorID := royalty.AuthorID(chi.URLParam(r, "id"))
	tenantID := royalty.TenantID(r.URL.Query().Get("tenant_id"))
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id query parameter is required", nil)
		return
	}

	statements, err := h.Store.StatementsByAuthor(r.Context(), tenantID, authorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list statements", err)
		return
	}

	dtos := make([]StatementDTO, len(statements))
	for i := range statements {
		dtos[i] = toStatementDTO(&statements[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS - Contracts, sales, authorships
// =============================================================================

// CreateContract creates or replaces a contract with its rate tiers.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TenantID == "" || req.AuthorID == "" || req.TitleID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id, author_id and title_id are required", nil)
		return
	}

	advance, err := royalty.MoneyFromString(req.AdvanceAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid advance_amount", err)
		return
	}
	paid, err := royalty.MoneyFromString(req.AdvancePaid)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid advance_paid", err)
		return
	}

	status := royalty.ContractStatus(req.Status)
	if status == "" {
		status = royalty.ContractActive
	}

	id := royalty.ContractID(req.ID)
	if id == "" {
		id = royalty.ContractID(uuid.NewString())
	}

	tiers := make([]royalty.ContractTier, len(req.Tiers))
	for i, t := range req.Tiers {
		rate, err := royalty.RateFromString(t.Rate)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid rate in tier %d", i), err)
			return
		}
		tiers[i] = royalty.ContractTier{
			Format:      royalty.Format(t.Format),
			MinQuantity: t.MinQuantity,
			MaxQuantity: t.MaxQuantity,
			Rate:        rate,
		}
	}

	contract := &royalty.Contract{
		ID:              id,
		TenantID:        royalty.TenantID(req.TenantID),
		AuthorID:        royalty.AuthorID(req.AuthorID),
		TitleID:         royalty.TitleID(req.TitleID),
		Status:          status,
		AdvanceAmount:   advance,
		AdvancePaid:     paid,
		AdvanceRecouped: royalty.ZeroMoney(),
		Tiers:           tiers,
	}

	if err := h.Store.SaveContract(r.Context(), contract); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContractDTO(contract))
}

// GetContract returns the active contract for a (tenant, author, title) pair.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := royalty.TenantID(q.Get("tenant_id"))
	authorID := royalty.AuthorID(q.Get("author_id"))
	titleID := royalty.TitleID(q.Get("title_id"))
	if tenantID == "" || authorID == "" || titleID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id, author_id and title_id query parameters are required", nil)
		return
	}

	contract, err := h.Store.ActiveContract(r.Context(), tenantID, authorID, titleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load contract", err)
		return
	}
	if contract == nil {
		writeError(w, http.StatusNotFound, "No active contract for pair", nil)
		return
	}

	writeJSON(w, http.StatusOK, toContractDTO(contract))
}

// RecordSale records one sale transaction.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	format := royalty.Format(req.Format)
	if !format.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown format %q", req.Format), nil)
		return
	}
	if req.Quantity == 0 {
		writeError(w, http.StatusBadRequest, "quantity must be non-zero", nil)
		return
	}

	soldAt, err := parseTimestamp(req.SoldAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sold_at (use RFC3339 or YYYY-MM-DD)", err)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	sale := royalty.SaleTransaction{
		ID:       id,
		TenantID: royalty.TenantID(req.TenantID),
		TitleID:  royalty.TitleID(req.TitleID),
		Format:   format,
		Quantity: req.Quantity,
		SoldAt:   soldAt,
	}

	if err := h.Store.SaveSale(r.Context(), sale); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record sale", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// SaveAuthorship inserts or updates one title ownership row.
func (h *Handler) SaveAuthorship(w http.ResponseWriter, r *http.Request) {
	var req SaveAuthorshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	percent, err := decimal.NewFromString(req.OwnershipPercent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ownership_percent", err)
		return
	}

	authorship := royalty.TitleAuthorship{
		TitleID:          royalty.TitleID(req.TitleID),
		AuthorID:         royalty.AuthorID(req.AuthorID),
		OwnershipPercent: percent,
		Active:           req.Active,
	}

	if err := h.Store.SaveAuthorship(r.Context(), royalty.TenantID(req.TenantID), authorship); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save authorship", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// ListBatchRuns returns batch run audit records for a tenant.
func (h *Handler) ListBatchRuns(w http.ResponseWriter, r *http.Request) {
	tenantID := royalty.TenantID(r.URL.Query().Get("tenant_id"))
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id query parameter is required", nil)
		return
	}

	runs, err := h.Store.ListBatchRuns(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batch runs", err)
		return
	}

	dtos := make([]BatchRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toBatchRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase clears all data (dev only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

// parsePeriod builds a half-open period from YYYY-MM-DD bounds (UTC midnight).
func parsePeriod(start, end string) (royalty.Period, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return royalty.Period{}, fmt.Errorf("period_start: %w", err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return royalty.Period{}, fmt.Errorf("period_end: %w", err)
	}
	period := royalty.Period{Start: s.UTC(), End: e.UTC()}
	if err := period.Validate(); err != nil {
		return royalty.Period{}, err
	}
	return period, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case royalty.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case royalty.IsConfigurationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, royalty.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]string{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}
