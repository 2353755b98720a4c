/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONETARY FIELDS:
  All monetary amounts and rates travel as decimal strings ("800.00",
  "0.125"), never as JSON numbers. Clients must not parse them as floats.

DATES:
  Period boundaries use YYYY-MM-DD (interpreted as UTC midnight). The
  period is half-open: a sale dated exactly on period_end belongs to the
  next period.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - royalty/statement.go: The domain calculation snapshot these mirror
*/
package api

import (
	"time"

	"github.com/quill/royalty-engine/royalty"
	"github.com/quill/royalty-engine/store/sqlite"
)

// =============================================================================
// STATEMENT GENERATION
// =============================================================================

// GenerateStatementRequest asks for one author's statement on one title.
type GenerateStatementRequest struct {
	TenantID    string `json:"tenant_id"`
	AuthorID    string `json:"author_id"`
	TitleID     string `json:"title_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// BatchRequest asks for statements across many author/title pairs. When
// Pairs is empty, every pair with an active contract in the tenant is used.
type BatchRequest struct {
	TenantID    string    `json:"tenant_id"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	Pairs       []PairDTO `json:"pairs,omitempty"`
	Workers     int       `json:"workers,omitempty"`
}

// PairDTO identifies one author/title unit of work.
type PairDTO struct {
	AuthorID string `json:"author_id"`
	TitleID  string `json:"title_id"`
}

// GenerateStatementResponse wraps a single generation outcome. Duplicate
// is true when an earlier run already produced the statement; the returned
// statement is that earlier record.
type GenerateStatementResponse struct {
	Statement StatementDTO `json:"statement"`
	Duplicate bool         `json:"duplicate"`
}

// BatchResponse reports the partitioned outcome of one batch invocation.
type BatchResponse struct {
	Succeeded  []BatchItemDTO    `json:"succeeded"`
	Failed     []BatchFailureDTO `json:"failed"`
	Duplicates int               `json:"duplicates"`
}

// BatchItemDTO is one successfully processed pair.
type BatchItemDTO struct {
	AuthorID    string `json:"author_id"`
	TitleID     string `json:"title_id"`
	StatementID string `json:"statement_id"`
	NetPayable  string `json:"net_payable"`
	Duplicate   bool   `json:"duplicate"`
}

// BatchFailureDTO records why a pair produced no statement.
type BatchFailureDTO struct {
	AuthorID string `json:"author_id"`
	TitleID  string `json:"title_id"`
	Reason   string `json:"reason"`
}

// =============================================================================
// STATEMENTS
// =============================================================================

// StatementDTO represents a royalty statement in API responses.
type StatementDTO struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	AuthorID    string         `json:"author_id"`
	ContractID  string         `json:"contract_id"`
	TitleID     string         `json:"title_id"`
	PeriodStart string         `json:"period_start"`
	PeriodEnd   string         `json:"period_end"`
	Calculation CalculationDTO `json:"calculation"`
	CreatedAt   string         `json:"created_at"`
}

// CalculationDTO mirrors the statement's calculation snapshot. Split is
// present exactly when kind is "split_author".
type CalculationDTO struct {
	Kind        CalculationKindDTO `json:"kind"`
	FormatGross map[string]string  `json:"format_gross"`
	TotalGross  string             `json:"total_gross"`
	Recoupment  RecoupmentDTO      `json:"recoupment"`
	NetPayable  string             `json:"net_payable"`
	Split       *SplitDTO          `json:"split,omitempty"`
}

type CalculationKindDTO string

// RecoupmentDTO is the advance breakdown for one statement.
type RecoupmentDTO struct {
	OriginalAdvance      string `json:"original_advance"`
	PreviouslyRecouped   string `json:"previously_recouped"`
	ThisPeriodRecoupment string `json:"this_period_recoupment"`
	RemainingAdvance     string `json:"remaining_advance"`
	NetPayable           string `json:"net_payable"`
}

// SplitDTO is the allocation context on co-authored statements.
type SplitDTO struct {
	OwnershipPercent string `json:"ownership_percent"`
	TitleGross       string `json:"title_gross"`
}

// =============================================================================
// CONTRACTS
// =============================================================================

// CreateContractRequest creates or replaces the contract for its
// (tenant, author, title) pair.
type CreateContractRequest struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	AuthorID      string    `json:"author_id"`
	TitleID       string    `json:"title_id"`
	Status        string    `json:"status,omitempty"`
	AdvanceAmount string    `json:"advance_amount"`
	AdvancePaid   string    `json:"advance_paid"`
	Tiers         []TierDTO `json:"tiers"`
}

// TierDTO is one graduated rate band. A null max_quantity marks the
// unbounded top band.
type TierDTO struct {
	Format      string `json:"format"`
	MinQuantity int64  `json:"min_quantity"`
	MaxQuantity *int64 `json:"max_quantity"`
	Rate        string `json:"rate"`
}

// ContractDTO represents a contract in API responses.
type ContractDTO struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	AuthorID        string    `json:"author_id"`
	TitleID         string    `json:"title_id"`
	Status          string    `json:"status"`
	AdvanceAmount   string    `json:"advance_amount"`
	AdvancePaid     string    `json:"advance_paid"`
	AdvanceRecouped string    `json:"advance_recouped"`
	Tiers           []TierDTO `json:"tiers"`
	Version         int       `json:"version"`
}

// =============================================================================
// SALES AND AUTHORSHIPS
// =============================================================================

// RecordSaleRequest records one sale transaction.
type RecordSaleRequest struct {
	ID       string `json:"id,omitempty"`
	TenantID string `json:"tenant_id"`
	TitleID  string `json:"title_id"`
	Format   string `json:"format"`
	Quantity int64  `json:"quantity"`
	SoldAt   string `json:"sold_at"` // RFC3339 or YYYY-MM-DD
}

// SaveAuthorshipRequest inserts or updates one ownership row.
type SaveAuthorshipRequest struct {
	TenantID         string `json:"tenant_id"`
	TitleID          string `json:"title_id"`
	AuthorID         string `json:"author_id"`
	OwnershipPercent string `json:"ownership_percent"`
	Active           bool   `json:"active"`
}

// =============================================================================
// BATCH RUNS
// =============================================================================

// BatchRunDTO is one batch invocation's audit record.
type BatchRunDTO struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Status      string `json:"status"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	Duplicates  int    `json:"duplicates"`
	Error       string `json:"error,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// =============================================================================
// DOMAIN -> DTO CONVERSIONS
// =============================================================================

func toStatementDTO(s *royalty.Statement) StatementDTO {
	return StatementDTO{
		ID:          string(s.ID),
		TenantID:    string(s.TenantID),
		AuthorID:    string(s.AuthorID),
		ContractID:  string(s.ContractID),
		TitleID:     string(s.TitleID),
		PeriodStart: s.Period.Start.UTC().Format("2006-01-02"),
		PeriodEnd:   s.Period.End.UTC().Format("2006-01-02"),
		Calculation: toCalculationDTO(s.Calculation),
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func toCalculationDTO(c royalty.StatementCalculation) CalculationDTO {
	formatGross := make(map[string]string, len(c.FormatGross))
	for format, amount := range c.FormatGross {
		formatGross[string(format)] = amount.Round().String()
	}

	dto := CalculationDTO{
		Kind:        CalculationKindDTO(c.Kind),
		FormatGross: formatGross,
		TotalGross:  c.TotalGross.Round().String(),
		NetPayable:  c.NetPayable.Round().String(),
		Recoupment: RecoupmentDTO{
			OriginalAdvance:      c.Recoupment.OriginalAdvance.Round().String(),
			PreviouslyRecouped:   c.Recoupment.PreviouslyRecouped.Round().String(),
			ThisPeriodRecoupment: c.Recoupment.ThisPeriodRecoupment.Round().String(),
			RemainingAdvance:     c.Recoupment.RemainingAdvance.Round().String(),
			NetPayable:           c.Recoupment.NetPayable.Round().String(),
		},
	}
	if c.Split != nil {
		dto.Split = &SplitDTO{
			OwnershipPercent: c.Split.OwnershipPercent.String(),
			TitleGross:       c.Split.TitleGross.Round().String(),
		}
	}
	return dto
}

func toContractDTO(c *royalty.Contract) ContractDTO {
	tiers := make([]TierDTO, len(c.Tiers))
	for i, t := range c.Tiers {
		tiers[i] = TierDTO{
			Format:      string(t.Format),
			MinQuantity: t.MinQuantity,
			MaxQuantity: t.MaxQuantity,
			Rate:        t.Rate.Value.String(),
		}
	}
	return ContractDTO{
		ID:              string(c.ID),
		TenantID:        string(c.TenantID),
		AuthorID:        string(c.AuthorID),
		TitleID:         string(c.TitleID),
		Status:          string(c.Status),
		AdvanceAmount:   c.AdvanceAmount.Round().String(),
		AdvancePaid:     c.AdvancePaid.Round().String(),
		AdvanceRecouped: c.AdvanceRecouped.Round().String(),
		Tiers:           tiers,
		Version:         c.Version,
	}
}

func toBatchResponse(r *royalty.BatchResult) BatchResponse {
	resp := BatchResponse{
		Succeeded:  make([]BatchItemDTO, 0, len(r.Succeeded)),
		Failed:     make([]BatchFailureDTO, 0, len(r.Failed)),
		Duplicates: r.Duplicates(),
	}
	for _, item := range r.Succeeded {
		resp.Succeeded = append(resp.Succeeded, BatchItemDTO{
			AuthorID:    string(item.AuthorID),
			TitleID:     string(item.TitleID),
			StatementID: string(item.StatementID),
			NetPayable:  item.NetPayable.Round().String(),
			Duplicate:   item.Duplicate,
		})
	}
	for _, f := range r.Failed {
		resp.Failed = append(resp.Failed, BatchFailureDTO{
			AuthorID: string(f.AuthorID),
			TitleID:  string(f.TitleID),
			Reason:   f.Reason,
		})
	}
	return resp
}

func toBatchRunDTO(r sqlite.BatchRun) BatchRunDTO {
	dto := BatchRunDTO{
		ID:          r.ID,
		TenantID:    r.TenantID,
		PeriodStart: r.PeriodStart.UTC().Format("2006-01-02"),
		PeriodEnd:   r.PeriodEnd.UTC().Format("2006-01-02"),
		Status:      r.Status,
		Succeeded:   r.Succeeded,
		Failed:      r.Failed,
		Duplicates:  r.Duplicates,
		Error:       r.Error,
	}
	if r.CompletedAt != nil {
		dto.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return dto
}
