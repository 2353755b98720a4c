/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates contracts, title
	ownerships, and sales that demonstrate specific calculation features.

AVAILABLE SCENARIOS:

	debut-novel:       Single author, advance recoupment across months
	co-authored:       60/40 ownership split with independent advances
	bestseller:        Multi-format sales crossing graduated tier thresholds

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create contracts with rate tiers
 3. Register title ownership rows
 4. Record sale transactions across several months

	No statements are generated; run a batch (or generate per author) to
	see the calculations on the seeded data.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "co-authored"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Admin handlers the loaders mirror
  - royalty/engine.go: The pipeline that consumes the seeded data
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quill/royalty-engine/royalty"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "debut-novel",
		Name:        "Debut Novel",
		Description: "Single author with a 5000.00 advance recouped over three months of sales",
		Category:    "recoupment",
	},
	{
		ID:          "co-authored",
		Name:        "Co-Authored Title",
		Description: "Two authors at 60/40 ownership with independent advance balances",
		Category:    "splits",
	},
	{
		ID:          "bestseller",
		Name:        "Bestseller",
		Description: "Physical, ebook and audiobook sales crossing graduated tier thresholds",
		Category:    "tiers",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "debut-novel":
		err = h.loadDebutNovelScenario(ctx)
	case "co-authored":
		err = h.loadCoAuthoredScenario(ctx)
	case "bestseller":
		err = h.loadBestsellerScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func standardTiers() []royalty.ContractTier {
	threshold := int64(5000)
	return []royalty.ContractTier{
		{Format: royalty.FormatPhysical, MinQuantity: 0, MaxQuantity: &threshold, Rate: royalty.MustRate("0.10")},
		{Format: royalty.FormatPhysical, MinQuantity: 5000, Rate: royalty.MustRate("0.15")},
		{Format: royalty.FormatEbook, MinQuantity: 0, Rate: royalty.MustRate("0.25")},
		{Format: royalty.FormatAudiobook, MinQuantity: 0, Rate: royalty.MustRate("0.20")},
	}
}

func (h *Handler) seedContract(ctx context.Context, id, authorID, titleID, advance string) error {
	return h.Store.SaveContract(ctx, &royalty.Contract{
		ID:              royalty.ContractID(id),
		TenantID:        "demo-press",
		AuthorID:        royalty.AuthorID(authorID),
		TitleID:         royalty.TitleID(titleID),
		Status:          royalty.ContractActive,
		AdvanceAmount:   royalty.MustMoney(advance),
		AdvancePaid:     royalty.MustMoney(advance),
		AdvanceRecouped: royalty.ZeroMoney(),
		Tiers:           standardTiers(),
	})
}

func (h *Handler) seedSales(ctx context.Context, titleID string, format royalty.Format, monthly map[time.Month]int64) error {
	for month, quantity := range monthly {
		sale := royalty.SaleTransaction{
			ID:       fmt.Sprintf("sale-%s-%s-%d", titleID, format, month),
			TenantID: "demo-press",
			TitleID:  royalty.TitleID(titleID),
			Format:   format,
			Quantity: quantity,
			SoldAt:   time.Date(2025, month, 15, 12, 0, 0, 0, time.UTC),
		}
		if err := h.Store.SaveSale(ctx, sale); err != nil {
			return err
		}
	}
	return nil
}

// loadDebutNovelScenario: one author, one title, a 5000.00 advance, and
// three months of growing sales. January and February gross recoups the
// advance; March finally pays out.
func (h *Handler) loadDebutNovelScenario(ctx context.Context) error {
	if err := h.seedContract(ctx, "contract-debut", "author-morgan", "title-debut", "5000.00"); err != nil {
		return err
	}
	return h.seedSales(ctx, "title-debut", royalty.FormatPhysical, map[time.Month]int64{
		time.January:  12000,
		time.February: 18000,
		time.March:    25000,
	})
}

// loadCoAuthoredScenario: two authors share one title 60/40. Each has a
// separate contract, so recoupment runs independently against each split.
func (h *Handler) loadCoAuthoredScenario(ctx context.Context) error {
	if err := h.seedContract(ctx, "contract-lead", "author-avery", "title-duet", "2000.00"); err != nil {
		return err
	}
	if err := h.seedContract(ctx, "contract-second", "author-blake", "title-duet", "500.00"); err != nil {
		return err
	}

	rows := []struct {
		author  string
		percent string
	}{
		{"author-avery", "60"},
		{"author-blake", "40"},
	}
	for _, row := range rows {
		err := h.Store.SaveAuthorship(ctx, "demo-press", royalty.TitleAuthorship{
			TitleID:          "title-duet",
			AuthorID:         royalty.AuthorID(row.author),
			OwnershipPercent: decimal.RequireFromString(row.percent),
			Active:           true,
		})
		if err != nil {
			return err
		}
	}

	return h.seedSales(ctx, "title-duet", royalty.FormatPhysical, map[time.Month]int64{
		time.January:  8000,
		time.February: 6000,
	})
}

// loadBestsellerScenario: one no-advance title selling in every format,
// with physical volume far past the 5000-unit tier threshold.
func (h *Handler) loadBestsellerScenario(ctx context.Context) error {
	if err := h.seedContract(ctx, "contract-hit", "author-quinn", "title-hit", "0"); err != nil {
		return err
	}
	if err := h.seedSales(ctx, "title-hit", royalty.FormatPhysical, map[time.Month]int64{
		time.January: 40000,
	}); err != nil {
		return err
	}
	if err := h.seedSales(ctx, "title-hit", royalty.FormatEbook, map[time.Month]int64{
		time.January: 15000,
	}); err != nil {
		return err
	}
	return h.seedSales(ctx, "title-hit", royalty.FormatAudiobook, map[time.Month]int64{
		time.January: 5000,
	})
}
