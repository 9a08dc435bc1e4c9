// Package agent translates SQL through a self-hosted LLM agent service with
// a plain convert endpoint.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dwporter/dwporter/internal/translate/translateerr"
	"github.com/dwporter/dwporter/pkg/models"
)

// Provider calls the agent's /convert-ddl endpoint.
type Provider struct {
	client *resty.Client
}

var _ models.Translator = (*Provider)(nil)

// Config holds the agent endpoint settings.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// NewProvider builds a provider for the given agent endpoint.
func NewProvider(cfg Config) *Provider {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Provider{client: client}
}

func (p *Provider) Name() string { return "agent" }

type convertRequest struct {
	SourceSystem  string `json:"source_system"`
	SourceSQL     string `json:"source_sql"`
	TargetCatalog string `json:"target_catalog,omitempty"`
	TargetSchema  string `json:"target_schema,omitempty"`
}

type convertResponse struct {
	TranslatedSQL string   `json:"translated_sql"`
	Warnings      []string `json:"warnings"`
}

func (p *Provider) Translate(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
	started := time.Now()
	var out convertResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(convertRequest{
			SourceSystem:  req.SourceSystem,
			SourceSQL:     req.SourceSQL,
			TargetCatalog: req.TargetCatalog,
			TargetSchema:  req.TargetSchema,
		}).
		SetResult(&out).
		Post("/convert-ddl")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return models.TranslationResult{}, fmt.Errorf("%w: %v", translateerr.ErrTranslationTimeout, err)
		}
		return models.TranslationResult{}, fmt.Errorf("%w: %v", translateerr.ErrTranslatorUnavailable, err)
	}
	if resp.IsError() {
		return models.TranslationResult{}, fmt.Errorf("%w: agent returned %s: %s",
			translateerr.ErrTranslatorUnavailable, resp.Status(), resp.String())
	}
	sql := strings.TrimSpace(out.TranslatedSQL)
	if sql == "" {
		return models.TranslationResult{}, translateerr.ErrEmptyTranslation
	}
	return models.TranslationResult{
		TranslatedSQL: sql,
		Warnings:      out.Warnings,
		ModelUsed:     "agent",
		DurationMS:    time.Since(started).Milliseconds(),
	}, nil
}
