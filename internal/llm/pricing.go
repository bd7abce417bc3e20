package llm

import "github.com/fyrsmithlabs/agentmesh/internal/config"

// Price is the cost of a model per million tokens.
type Price struct {
	InputPerMillion  float64 `json:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million"`
}

// PriceTable maps model names to prices.
type PriceTable map[string]Price

// NewPriceTable converts the pricing section of the config.
func NewPriceTable(p map[string]config.PricingConfig) PriceTable {
	t := make(PriceTable, len(p))
	for model, price := range p {
		t[model] = Price{InputPerMillion: price.InputPerMillion, OutputPerMillion: price.OutputPerMillion}
	}
	return t
}

// Cost returns the cost of usage on model, and false when the model has no
// price.
func (t PriceTable) Cost(model string, u Usage) (float64, bool) {
	p, ok := t[model]
	if !ok {
		return 0, false
	}
	return float64(u.InputTokens)/1e6*p.InputPerMillion + float64(u.OutputTokens)/1e6*p.OutputPerMillion, true
}
