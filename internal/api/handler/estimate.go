package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dwporter/dwporter/internal/api/response"
	"github.com/dwporter/dwporter/internal/estimate"
)

// NewListModelsHandler returns the translation model catalog.
func NewListModelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Collection(w, estimate.Catalog, len(estimate.Catalog))
	}
}

// NewEstimateHandler projects migration costs. Pure math, no side effects.
func NewEstimateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params estimate.Params
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if params.NumTables < 0 || params.NumViews < 0 || params.NumProcedures < 0 || params.DataSizeGB < 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "counts and sizes must be non-negative", nil)
			return
		}
		response.JSON(w, estimate.MigrationCost(params))
	}
}
