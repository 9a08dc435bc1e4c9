package models

import "context"

// Translator is the core interface all SQL translation backends must
// implement. Never call a specific backend directly; always inject this
// interface.
type Translator interface {
	// Translate converts one SQL statement from the source dialect to the
	// target dialect.
	Translate(ctx context.Context, req TranslationRequest) (TranslationResult, error)
	// Name returns the backend identifier (e.g., "databricks", "agent").
	Name() string
}

// TranslationRequest is the input to a translation operation.
type TranslationRequest struct {
	SourceSystem  string
	SourceSQL     string
	ModelID       string
	TargetCatalog string
	TargetSchema  string
}

// TranslationResult is the output of a translation operation. Token counts
// and duration are zero when the backend does not report them.
type TranslationResult struct {
	TranslatedSQL    string   `json:"translated_sql"`
	Warnings         []string `json:"warnings,omitempty"`
	ModelUsed        string   `json:"model_used,omitempty"`
	PromptTokens     int      `json:"prompt_tokens,omitempty"`
	CompletionTokens int      `json:"completion_tokens,omitempty"`
	TotalTokens      int      `json:"total_tokens,omitempty"`
	DurationMS       int64    `json:"duration_ms,omitempty"`
}
