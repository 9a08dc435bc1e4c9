// Package databricks translates SQL through a Databricks model serving
// endpoint speaking the OpenAI chat-completions protocol.
package databricks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dwporter/dwporter/internal/translate/translateerr"
	"github.com/dwporter/dwporter/pkg/models"
)

const (
	completionsPath = "/serving-endpoints/chat/completions"
	maxTokens       = 2000
	temperature     = 0.1
)

// codeFence strips markdown fences the model sometimes wraps around its SQL.
var codeFence = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")

// Provider calls a Databricks serving endpoint.
type Provider struct {
	client       *resty.Client
	defaultModel string
}

var _ models.Translator = (*Provider)(nil)

// Config holds the serving endpoint settings.
type Config struct {
	Host    string
	Token   string
	Model   string
	Timeout time.Duration
}

// NewProvider builds a provider for the given workspace host.
func NewProvider(cfg Config) *Provider {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Host, "/")).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Provider{client: client, defaultModel: cfg.Model}
}

func (p *Provider) Name() string { return "databricks" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Translate sends one statement to the serving endpoint and returns the
// converted SQL with the fences stripped.
func (p *Provider) Translate(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
	model := req.ModelID
	if model == "" {
		model = p.defaultModel
	}

	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req)},
			{Role: "user", Content: req.SourceSQL},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	started := time.Now()
	var out chatResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(completionsPath)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return models.TranslationResult{}, fmt.Errorf("%w: %v", translateerr.ErrTranslationTimeout, err)
		}
		return models.TranslationResult{}, fmt.Errorf("%w: %v", translateerr.ErrTranslatorUnavailable, err)
	}
	if resp.IsError() {
		return models.TranslationResult{}, fmt.Errorf("%w: serving endpoint returned %s: %s",
			translateerr.ErrTranslatorUnavailable, resp.Status(), resp.String())
	}
	if len(out.Choices) == 0 {
		return models.TranslationResult{}, translateerr.ErrEmptyTranslation
	}

	sql := stripFences(out.Choices[0].Message.Content)
	if sql == "" {
		return models.TranslationResult{}, translateerr.ErrEmptyTranslation
	}

	return models.TranslationResult{
		TranslatedSQL:    sql,
		ModelUsed:        model,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		TotalTokens:      out.Usage.TotalTokens,
		DurationMS:       time.Since(started).Milliseconds(),
	}, nil
}

func systemPrompt(req models.TranslationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert SQL translator. Convert the following %s SQL to Databricks SQL.\n", req.SourceSystem)
	if req.TargetCatalog != "" {
		fmt.Fprintf(&b, "Target catalog: %s\n", req.TargetCatalog)
	}
	if req.TargetSchema != "" {
		fmt.Fprintf(&b, "Target schema: %s\n", req.TargetSchema)
	}
	b.WriteString("Only output the converted SQL, no explanations.")
	return b.String()
}

func stripFences(content string) string {
	if m := codeFence.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}
