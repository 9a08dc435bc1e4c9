package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dwporter/dwporter/internal/api/response"
	"github.com/dwporter/dwporter/internal/inventory"
)

// SourceExtractor is the connected-source view the handler needs.
type SourceExtractor interface {
	Extract(ctx context.Context, schema string) (*inventory.Inventory, error)
	Close()
}

// ConnectFunc opens a source connection. Production wires inventory.Connect;
// tests substitute a fake.
type ConnectFunc func(ctx context.Context, params inventory.ConnectionParams) (SourceExtractor, error)

type extractRequest struct {
	inventory.ConnectionParams
	Schema string `json:"schema"`
}

// NewExtractInventoryHandler connects to a source system and returns its
// schema object inventory.
func NewExtractInventoryHandler(connect ConnectFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.SourceType == "" || req.Host == "" || req.Database == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"source_type, host, and database are required", nil)
			return
		}
		if req.Schema == "" {
			req.Schema = "public"
		}

		extractor, err := connect(r.Context(), req.ConnectionParams)
		if err != nil {
			switch {
			case errors.Is(err, inventory.ErrUnsupportedSource):
				response.Error(w, http.StatusBadRequest, "UNSUPPORTED_SOURCE", err.Error(),
					map[string]any{"supported": inventory.SupportedSources()})
			case errors.Is(err, inventory.ErrSourceUnreachable):
				response.Error(w, http.StatusBadGateway, "SOURCE_UNREACHABLE", err.Error(), nil)
			default:
				response.Error(w, http.StatusInternalServerError, "EXTRACTION_FAILED", err.Error(), nil)
			}
			return
		}
		defer extractor.Close()

		inv, err := extractor.Extract(r.Context(), req.Schema)
		if err != nil {
			response.Error(w, http.StatusBadGateway, "EXTRACTION_FAILED", err.Error(), nil)
			return
		}

		response.JSON(w, map[string]any{
			"inventory":         inv,
			"objects_extracted": inv.TotalObjects(),
			"schema":            req.Schema,
		})
	}
}
