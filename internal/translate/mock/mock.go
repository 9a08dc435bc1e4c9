// Package mock provides a configurable Translator for tests.
package mock

import (
	"context"
	"fmt"

	"github.com/dwporter/dwporter/pkg/models"
)

// Translator lets tests plug in behavior per call.
type Translator struct {
	TranslateFunc func(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error)
	NameFunc      func() string
}

var _ models.Translator = (*Translator)(nil)

func (m *Translator) Translate(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, req)
	}
	return models.TranslationResult{
		TranslatedSQL: fmt.Sprintf("-- translated from %s\n%s", req.SourceSystem, req.SourceSQL),
		ModelUsed:     "mock",
	}, nil
}

func (m *Translator) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "mock"
}

// NewTranslator returns a mock that echoes the source SQL with a comment.
func NewTranslator() *Translator {
	return &Translator{}
}

// NewFixedTranslator returns a mock that always yields the given SQL.
func NewFixedTranslator(sql string) *Translator {
	return &Translator{
		TranslateFunc: func(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
			return models.TranslationResult{TranslatedSQL: sql, ModelUsed: "mock"}, nil
		},
	}
}

// NewFailingTranslator returns a mock whose Translate always fails with err.
func NewFailingTranslator(err error) *Translator {
	return &Translator{
		TranslateFunc: func(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
			return models.TranslationResult{}, err
		},
	}
}

// NewTimeoutTranslator returns a mock that blocks until the context expires.
func NewTimeoutTranslator() *Translator {
	return &Translator{
		TranslateFunc: func(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
			<-ctx.Done()
			return models.TranslationResult{}, ctx.Err()
		},
	}
}
