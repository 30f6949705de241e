package domain

import "strings"

// ModelPricing is the USD price per million tokens.
type ModelPricing struct {
	InputPerMTok  float64 `json:"input_per_mtok" toml:"input_per_mtok"`
	OutputPerMTok float64 `json:"output_per_mtok" toml:"output_per_mtok"`
}

// Cost returns the price of the given token counts.
func (p ModelPricing) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1e6*p.InputPerMTok + float64(outputTokens)/1e6*p.OutputPerMTok
}

// PricingTable maps model names to pricing.
type PricingTable map[string]ModelPricing

// DefaultPricing returns list prices for the supported models.
func DefaultPricing() PricingTable {
	return PricingTable{
		"gemini-1.5-flash":  {InputPerMTok: 0.075, OutputPerMTok: 0.30},
		"gemini-2.0-flash":  {InputPerMTok: 0.10, OutputPerMTok: 0.40},
		"gpt-4o-mini":       {InputPerMTok: 0.15, OutputPerMTok: 0.60},
		"gpt-4o":            {InputPerMTok: 2.50, OutputPerMTok: 10.00},
		"claude-3-5-haiku":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
		"claude-3-5-sonnet": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	}
}

// Lookup finds pricing for model. Exact names win; otherwise the longest
// table key that prefixes the model name is used, so dated model versions
// resolve to their family.
func (t PricingTable) Lookup(model string) (ModelPricing, bool) {
	if p, ok := t[model]; ok {
		return p, true
	}
	best := ""
	for name := range t {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return ModelPricing{}, false
	}
	return t[best], true
}

// CostEstimate is advisory cost telemetry. It never influences control flow.
type CostEstimate struct {
	Model                  string  `json:"model"`
	PricingKnown           bool    `json:"pricing_known"`
	SessionCost            float64 `json:"session_cost_usd"`
	PerDocument            float64 `json:"per_document_usd"`
	RemainingDocuments     int     `json:"remaining_documents"`
	ProjectedRemainingCost float64 `json:"projected_remaining_usd"`
}

// EstimateCost computes the session cost from token estimates and projects
// the remaining cost from the session's per-document average.
func EstimateCost(table PricingTable, stats RunStatistics, remaining int) CostEstimate {
	est := CostEstimate{Model: stats.Model, RemainingDocuments: remaining}
	pricing, ok := table.Lookup(stats.Model)
	if !ok {
		return est
	}
	est.PricingKnown = true
	est.SessionCost = pricing.Cost(stats.InputTokens, stats.OutputTokens)
	if stats.DocumentsProcessed > 0 {
		est.PerDocument = est.SessionCost / float64(stats.DocumentsProcessed)
	}
	if remaining > 0 {
		est.ProjectedRemainingCost = est.PerDocument * float64(remaining)
	}
	return est
}
