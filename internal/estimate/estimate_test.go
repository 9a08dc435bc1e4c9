package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name       string
		objects    int
		complexity string
		wantPrompt int
		wantTotal  int
	}{
		{"medium baseline", 10, "medium", 5000, 8000},
		{"low halves the counts", 10, "low", 2500, 4000},
		{"high doubles the counts", 10, "high", 10000, 16000},
		{"unknown complexity counts as medium", 10, "extreme", 5000, 8000},
		{"zero objects", 0, "medium", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateTokens(tt.objects, tt.complexity)
			assert.Equal(t, tt.wantPrompt, got.PromptTokens)
			assert.Equal(t, tt.wantTotal, got.TotalTokens)
			assert.Equal(t, got.PromptTokens+got.CompletionTokens, got.TotalTokens)
		})
	}
}

func TestLLMCost(t *testing.T) {
	// One million prompt tokens and one million completion tokens at the
	// default model's rates.
	cost := LLMCost(DefaultModelID, 1_000_000, 1_000_000)
	assert.InDelta(t, 0.75, cost, 1e-9)

	// Unknown models price at the default rates.
	assert.InDelta(t, cost, LLMCost("databricks-unknown", 1_000_000, 1_000_000), 1e-9)

	// A pricier model must cost more for the same tokens.
	opus := LLMCost("databricks-claude-opus-4-1", 1_000_000, 1_000_000)
	assert.Greater(t, opus, cost)
}

func TestLookup(t *testing.T) {
	m, ok := Lookup(DefaultModelID)
	require.True(t, ok)
	assert.Equal(t, "Llama 4 Maverick", m.Name)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestMigrationCost(t *testing.T) {
	result := MigrationCost(Params{
		SourceType:    "postgres",
		NumTables:     80,
		NumViews:      15,
		NumProcedures: 5,
		DataSizeGB:    500,
		TotalRows:     1_000_000_000,
		ModelID:       DefaultModelID,
		Complexity:    "medium",
	})

	b := result.Breakdown
	assert.Greater(t, b.Total, 0.0)
	assert.InDelta(t, b.LLMTranslation+b.ComputeMigration+b.StorageAnnual+b.NetworkTransfer, b.Total, 0.05)

	// 100 objects at 30s each is 50 minutes.
	assert.InDelta(t, 0.83, result.EstimatedDurationHours, 0.01)

	// Storage: 500 GB * 0.023 * 12 months.
	assert.InDelta(t, 138.0, b.StorageAnnual, 0.01)

	// Network: 10% overhead on 500 GB at 0.09/GB.
	assert.InDelta(t, 4.5, b.NetworkTransfer, 0.01)

	assert.Equal(t, 100, result.Details["num_objects"])
}

func TestMigrationCostDefaultsModel(t *testing.T) {
	result := MigrationCost(Params{NumTables: 1, Complexity: "medium"})
	assert.Equal(t, DefaultModelID, result.Details["llm_model"])
}

func TestMigrationCostZeroObjects(t *testing.T) {
	result := MigrationCost(Params{DataSizeGB: 10})
	assert.Equal(t, 0.0, result.Breakdown.LLMTranslation)
	assert.Equal(t, 0.0, result.Breakdown.ComputeMigration)
	assert.Greater(t, result.Breakdown.StorageAnnual, 0.0)
}
