package estimate

import "math"

// Approximate SQL Serverless rates in USD.
const (
	dbuRateServerless     = 0.22  // per DBU hour
	storageRatePerGBMonth = 0.023 // Delta Lake storage
	networkRatePerGB      = 0.09  // data transfer
)

// warehouseDBURates maps SQL warehouse sizes to DBUs per hour.
var warehouseDBURates = map[string]int{
	"X-Small":  1,
	"Small":    2,
	"Medium":   4,
	"Large":    8,
	"X-Large":  16,
	"2X-Large": 32,
	"3X-Large": 64,
	"4X-Large": 128,
}

var complexityMultipliers = map[string]float64{
	"low":    0.5,
	"medium": 1.0,
	"high":   2.0,
}

// TokenEstimate is the projected token usage for translating a set of
// objects.
type TokenEstimate struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EstimateTokens projects token usage for translating numObjects statements
// of the given complexity ("low", "medium", or "high"; unknown values count
// as medium).
func EstimateTokens(numObjects int, complexity string) TokenEstimate {
	const (
		basePrompt     = 500 // system prompt plus context per object
		baseCompletion = 300
	)
	multiplier, ok := complexityMultipliers[complexity]
	if !ok {
		multiplier = 1.0
	}
	prompt := int(basePrompt*multiplier) * numObjects
	completion := int(baseCompletion*multiplier) * numObjects
	return TokenEstimate{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// LLMCost prices the given token counts against the model catalog. Unknown
// models fall back to the default model's pricing.
func LLMCost(modelID string, promptTokens, completionTokens int) float64 {
	pricing := Pricing{InputPerMTok: 0.15, OutputPerMTok: 0.60}
	if m, ok := Lookup(modelID); ok {
		pricing = m.Pricing
	}
	input := float64(promptTokens) / 1_000_000 * pricing.InputPerMTok
	output := float64(completionTokens) / 1_000_000 * pricing.OutputPerMTok
	return input + output
}

// Params describes the migration to estimate.
type Params struct {
	SourceType    string  `json:"source_type"`
	NumTables     int     `json:"num_tables"`
	NumViews      int     `json:"num_views"`
	NumProcedures int     `json:"num_procedures"`
	DataSizeGB    float64 `json:"data_size_gb"`
	TotalRows     int64   `json:"total_rows"`
	ModelID       string  `json:"model_id"`
	Complexity    string  `json:"avg_sql_complexity"`
}

// Breakdown splits the projected cost by category, in USD.
type Breakdown struct {
	LLMTranslation   float64 `json:"llm_translation"`
	ComputeMigration float64 `json:"compute_migration"`
	StorageAnnual    float64 `json:"storage_annual"`
	NetworkTransfer  float64 `json:"network_transfer"`
	Total            float64 `json:"total"`
}

// Result is the full cost projection for one migration.
type Result struct {
	Breakdown              Breakdown      `json:"breakdown"`
	EstimatedDurationHours float64        `json:"estimated_duration_hours"`
	Details                map[string]any `json:"details"`
}

// MigrationCost projects LLM, compute, storage, and network costs for the
// described migration. Compute assumes a Medium warehouse and roughly thirty
// seconds of translation plus validation per object.
func MigrationCost(p Params) Result {
	totalObjects := p.NumTables + p.NumViews + p.NumProcedures

	modelID := p.ModelID
	if modelID == "" {
		modelID = DefaultModelID
	}

	tokens := EstimateTokens(totalObjects, p.Complexity)
	llmCost := LLMCost(modelID, tokens.PromptTokens, tokens.CompletionTokens)

	timeMultiplier, ok := complexityMultipliers[p.Complexity]
	if !ok {
		timeMultiplier = 1.0
	}
	estimatedSeconds := float64(totalObjects) * 30 * timeMultiplier
	estimatedHours := estimatedSeconds / 3600

	migrationDBUs := warehouseDBURates["Medium"]
	computeCost := estimatedHours * float64(migrationDBUs) * dbuRateServerless

	storageCost := p.DataSizeGB * storageRatePerGBMonth * 12

	// Roughly 10% of the data size moves over the network as overhead.
	networkCost := p.DataSizeGB * networkRatePerGB * 0.1

	total := llmCost + computeCost + storageCost + networkCost

	return Result{
		Breakdown: Breakdown{
			LLMTranslation:   round2(llmCost),
			ComputeMigration: round2(computeCost),
			StorageAnnual:    round2(storageCost),
			NetworkTransfer:  round2(networkCost),
			Total:            round2(total),
		},
		EstimatedDurationHours: round2(estimatedHours),
		Details: map[string]any{
			"num_objects":       totalObjects,
			"token_estimate":    tokens,
			"llm_model":         modelID,
			"warehouse_size":    "Medium",
			"warehouse_dbus":    migrationDBUs,
			"estimated_seconds": int(estimatedSeconds),
			"data_size_gb":      p.DataSizeGB,
			"total_rows":        p.TotalRows,
			"source_type":       p.SourceType,
			"complexity":        p.Complexity,
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
