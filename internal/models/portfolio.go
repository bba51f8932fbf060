package models

import "strings"

// Holding is a position in the portfolio: quantity and average cost.
// Current value and P&L are derived only when a live price exists.
type Holding struct {
	Quantity    float64 `json:"qty"`
	AverageCost float64 `json:"avg"`
}

// PortfolioRecord is the persisted application state: holdings keyed by
// normalized identifier, the analysis set, and lightweight view state.
type PortfolioRecord struct {
	Holdings  map[string]Holding      `json:"holdings"`
	Analysis  map[string]*AssetRecord `json:"analysis"`
	Order     []string                `json:"order"` // analysis-set insertion order
	ActiveView string                 `json:"active_view,omitempty"`
	CardViews map[string]string       `json:"card_views,omitempty"`
}

// NewPortfolioRecord returns an empty record with all maps initialized.
func NewPortfolioRecord() *PortfolioRecord {
	return &PortfolioRecord{
		Holdings:  map[string]Holding{},
		Analysis:  map[string]*AssetRecord{},
		CardViews: map[string]string{},
	}
}

// Normalize repairs a record loaded from storage: nil maps become empty,
// legacy keys are re-normalized (analysis and view entries follow), and the
// order list is rebuilt to cover exactly the holdings present.
func (r *PortfolioRecord) Normalize() {
	if r.Holdings == nil {
		r.Holdings = map[string]Holding{}
	}
	if r.Analysis == nil {
		r.Analysis = map[string]*AssetRecord{}
	}
	if r.CardViews == nil {
		r.CardViews = map[string]string{}
	}

	for key, h := range r.Holdings {
		clean := NormalizeIdentifier(key)
		if clean == key {
			continue
		}
		delete(r.Holdings, key)
		r.Holdings[clean] = h
		if rec, ok := r.Analysis[key]; ok {
			delete(r.Analysis, key)
			rec.Identifier = clean
			r.Analysis[clean] = rec
		}
		if view, ok := r.CardViews[key]; ok {
			delete(r.CardViews, key)
			r.CardViews[clean] = view
		}
	}

	// Rebuild order: keep surviving entries in place, append newcomers.
	seen := map[string]bool{}
	order := make([]string, 0, len(r.Holdings))
	for _, id := range r.Order {
		id = NormalizeIdentifier(id)
		if _, ok := r.Holdings[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	for id := range r.Holdings {
		if !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	r.Order = order
}

// SanitizeHoldings returns a copy of the holdings map with invalid keys
// dropped: reserved envelope keys, keys over 20 characters, and keys
// containing whitespace.
func SanitizeHoldings(raw map[string]Holding) map[string]Holding {
	clean := map[string]Holding{}
	for key, h := range raw {
		if IsBlacklistedKey(key) {
			continue
		}
		if len(key) > 20 || strings.ContainsAny(key, " \t\n") {
			continue
		}
		clean[key] = h
	}
	return clean
}

// PortfolioTotals aggregates invested capital and current value across
// holdings that have a live price.
type PortfolioTotals struct {
	Invested     float64 `json:"invested"`
	CurrentValue float64 `json:"current_value"`
	PnL          float64 `json:"pnl"`
}

// SectorExposure is one industry's share of scored portfolio value
type SectorExposure struct {
	Industry  string  `json:"industry"`
	WeightPct float64 `json:"weight_pct"`
}

// RiskSummary captures diversification posture
type RiskSummary struct {
	DivScore float64          `json:"div_score"` // 0-100, higher is more diversified
	Sectors  []SectorExposure `json:"sectors,omitempty"`
	Alerts   []string         `json:"alerts,omitempty"`
}

// EfficiencyFlag marks capital deployed against asset quality
type EfficiencyFlag struct {
	Type string `json:"type"` // "good" or "bad"
	Text string `json:"text"`
}

// PortfolioAggregates are the derived analytics the conversational engine
// reads for SUMMARY / RISK / EFFICIENCY answers.
type PortfolioAggregates struct {
	HealthScore float64          `json:"health_score"`
	TotalValue  float64          `json:"total_value"`
	ScoredValue float64          `json:"scored_value"`
	Risk        RiskSummary      `json:"risk"`
	Efficiency  []EfficiencyFlag `json:"efficiency,omitempty"`
}
