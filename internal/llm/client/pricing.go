package client

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

// Pricing is USD per 1M tokens, kept as an embedded asset so adding a model
// is a data edit. Unknown models fall back to the provider default entry.
//
//go:embed pricing.json
var pricingData []byte

type rawPricedModel struct {
	Name             string  `json:"name"`
	InputPerMillion  float64 `json:"inputPerMillion"`
	OutputPerMillion float64 `json:"outputPerMillion"`
}

type rawPricingProvider struct {
	ID           string           `json:"id"`
	DefaultModel string           `json:"defaultModel"`
	Models       []rawPricedModel `json:"models"`
}

type rawPricingFile struct {
	Providers []rawPricingProvider `json:"providers"`
}

type modelPricing struct {
	Input  float64
	Output float64
}

type pricingCatalog struct {
	tables   map[string]map[string]modelPricing
	defaults map[string]string
}

var (
	pricingOnce   sync.Once
	pricingTables *pricingCatalog
	pricingErr    error
)

func loadPricing() (*pricingCatalog, error) {
	pricingOnce.Do(func() {
		var parsed rawPricingFile
		if err := json.Unmarshal(pricingData, &parsed); err != nil {
			pricingErr = fmt.Errorf("parse pricing asset: %w", err)
			return
		}

		catalog := &pricingCatalog{
			tables:   make(map[string]map[string]modelPricing),
			defaults: make(map[string]string),
		}
		for _, provider := range parsed.Providers {
			table := make(map[string]modelPricing, len(provider.Models))
			for _, mdl := range provider.Models {
				table[mdl.Name] = modelPricing{
					Input:  mdl.InputPerMillion,
					Output: mdl.OutputPerMillion,
				}
			}
			catalog.tables[provider.ID] = table
			catalog.defaults[provider.ID] = provider.DefaultModel
		}
		pricingTables = catalog
	})
	return pricingTables, pricingErr
}

// CalculateCost computes the USD cost of a completion from the embedded
// pricing tables, falling back to the provider's default model entry when
// the model id is unrecognized. Unknown providers cost zero.
func CalculateCost(provider, model string, inputTokens, outputTokens int) float64 {
	catalog, err := loadPricing()
	if err != nil {
		return 0
	}

	table, ok := catalog.tables[provider]
	if !ok {
		return 0
	}

	pricing, ok := table[model]
	if !ok {
		pricing = table[catalog.defaults[provider]]
	}

	inputCost := float64(inputTokens) / 1_000_000 * pricing.Input
	outputCost := float64(outputTokens) / 1_000_000 * pricing.Output
	return inputCost + outputCost
}
