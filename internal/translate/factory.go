package translate

import (
	"fmt"

	"github.com/dwporter/dwporter/internal/config"
	"github.com/dwporter/dwporter/internal/translate/agent"
	"github.com/dwporter/dwporter/internal/translate/databricks"
	"github.com/dwporter/dwporter/pkg/models"
)

// NewTranslator builds the configured translation backend.
func NewTranslator(cfg config.TranslatorConfig) (models.Translator, error) {
	switch cfg.Backend {
	case "databricks":
		return databricks.NewProvider(databricks.Config{
			Host:    cfg.DatabricksHost,
			Token:   cfg.DatabricksToken,
			Model:   cfg.DefaultModel,
			Timeout: cfg.Timeout,
		}), nil
	case "agent":
		return agent.NewProvider(agent.Config{
			Endpoint: cfg.AgentEndpoint,
			Token:    cfg.AgentToken,
			Timeout:  cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown translator backend: %q", cfg.Backend)
	}
}
