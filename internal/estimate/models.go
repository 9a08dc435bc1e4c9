// Package estimate provides the model catalog and rough migration cost math.
// Every number here is an estimate; none of it is a billing source of truth.
package estimate

// Pricing is USD per million tokens.
type Pricing struct {
	InputPerMTok  float64 `json:"input"`
	OutputPerMTok float64 `json:"output"`
}

// Model describes one foundation model available for SQL translation.
type Model struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Pricing     Pricing `json:"pricing"`
}

// DefaultModelID is used when a request does not pick a model.
const DefaultModelID = "databricks-llama-4-maverick"

// Catalog lists the serving-endpoint models offered for translation.
var Catalog = []Model{
	{
		ID:          "databricks-llama-4-maverick",
		Name:        "Llama 4 Maverick",
		Description: "Fast and efficient for general tasks (Default)",
		Pricing:     Pricing{InputPerMTok: 0.15, OutputPerMTok: 0.60},
	},
	{
		ID:          "databricks-meta-llama-3-3-70b-instruct",
		Name:        "Llama 3.3 70B",
		Description: "Powerful model for complex reasoning",
		Pricing:     Pricing{InputPerMTok: 0.20, OutputPerMTok: 0.80},
	},
	{
		ID:          "databricks-meta-llama-3-1-405b-instruct",
		Name:        "Llama 3.1 405B",
		Description: "Largest Llama model for most complex tasks",
		Pricing:     Pricing{InputPerMTok: 0.50, OutputPerMTok: 2.00},
	},
	{
		ID:          "databricks-claude-sonnet-4-5",
		Name:        "Claude Sonnet 4.5",
		Description: "Latest Claude model with superior reasoning",
		Pricing:     Pricing{InputPerMTok: 3.00, OutputPerMTok: 15.00},
	},
	{
		ID:          "databricks-claude-opus-4-1",
		Name:        "Claude Opus 4.1",
		Description: "Most powerful Claude model",
		Pricing:     Pricing{InputPerMTok: 15.00, OutputPerMTok: 75.00},
	},
	{
		ID:          "databricks-gpt-5",
		Name:        "GPT-5",
		Description: "Latest OpenAI model",
		Pricing:     Pricing{InputPerMTok: 2.50, OutputPerMTok: 10.00},
	},
	{
		ID:          "databricks-gemini-2-5-pro",
		Name:        "Gemini 2.5 Pro",
		Description: "Google's most capable model",
		Pricing:     Pricing{InputPerMTok: 1.25, OutputPerMTok: 5.00},
	},
}

// Lookup finds a model by id.
func Lookup(id string) (Model, bool) {
	for _, m := range Catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
