package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cloudcanvas/backend/internal/models"
	"github.com/cloudcanvas/backend/internal/pricing"
)

// CostHandler computes cost estimates for node lists.
type CostHandler struct {
	calculator *pricing.Calculator
	logger     *slog.Logger
}

// NewCostHandler creates a new cost handler.
func NewCostHandler(calculator *pricing.Calculator, logger *slog.Logger) *CostHandler {
	return &CostHandler{
		calculator: calculator,
		logger:     logger,
	}
}

// CalculateCostRequest is the request body for a cost calculation.
type CalculateCostRequest struct {
	Nodes []models.Node `json:"nodes"`
}

// Calculate handles POST /api/cost/calculate - prices a list of nodes and
// returns the total with an itemized breakdown. The calculation itself never
// fails; unknown components price at zero.
func (h *CostHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	estimate := h.calculator.TotalCost(req.Nodes)

	WriteJSON(w, http.StatusOK, estimate)
}
