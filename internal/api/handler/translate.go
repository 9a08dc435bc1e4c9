package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dwporter/dwporter/internal/api/response"
	"github.com/dwporter/dwporter/internal/translate"
	"github.com/dwporter/dwporter/pkg/models"
)

type translateRequest struct {
	SourceSystem  string `json:"source_system"`
	SourceSQL     string `json:"source_sql"`
	ModelID       string `json:"model_id"`
	TargetCatalog string `json:"target_catalog"`
	TargetSchema  string `json:"target_schema"`
}

// NewTranslateHandler translates a single statement without starting a job.
func NewTranslateHandler(translator models.Translator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.SourceSystem == "" || req.SourceSQL == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"source_system and source_sql are required", nil)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		result, err := translator.Translate(ctx, models.TranslationRequest{
			SourceSystem:  req.SourceSystem,
			SourceSQL:     req.SourceSQL,
			ModelID:       req.ModelID,
			TargetCatalog: req.TargetCatalog,
			TargetSchema:  req.TargetSchema,
		})
		if err != nil {
			status, code := classifyTranslationError(err)
			response.Error(w, status, code, err.Error(), nil)
			return
		}

		response.JSON(w, map[string]any{
			"translated_sql": result.TranslatedSQL,
			"warnings":       result.Warnings,
			"model_used":     result.ModelUsed,
			"total_tokens":   result.TotalTokens,
			"duration_ms":    result.DurationMS,
			"provider":       translator.Name(),
		})
	}
}

func classifyTranslationError(err error) (int, string) {
	switch {
	case errors.Is(err, translate.ErrTranslationTimeout):
		return http.StatusGatewayTimeout, "TRANSLATION_TIMEOUT"
	case errors.Is(err, translate.ErrTranslatorUnavailable):
		return http.StatusBadGateway, "TRANSLATOR_UNAVAILABLE"
	case errors.Is(err, translate.ErrEmptyTranslation):
		return http.StatusBadGateway, "EMPTY_TRANSLATION"
	default:
		return http.StatusInternalServerError, "TRANSLATION_FAILED"
	}
}
