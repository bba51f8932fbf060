package stocky

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bobmcallan/stocksight/internal/models"
)

// Keyword sets for intent selection. Partial words like "concentrat" and
// "efficien" match their inflections through substring containment.
var (
	summaryKeywords    = []string{"health", "summary", "overview", "score"}
	riskKeywords       = []string{"risk", "concentrat", "diversif", "exposure"}
	efficiencyKeywords = []string{"allocation", "efficien", "trap", "size"}
	explainKeywords    = []string{"explain", "score", "analysis", "buy", "sell", "why"}
	whyKeywords        = []string{"why", "explain", "reason"}
	compareKeywords    = []string{"compare", " vs ", "better"}

	// followUpKeywords let a bare follow-up query inherit the previous
	// turn's asset.
	followUpKeywords = []string{
		"target", "entry", "stop", "score", "why", "buy", "sell",
		"analysis", "fundamental", "it", "this",
	}
)

// Amount patterns, tried in order. Unit factors: k=1e3, l=1e5 (lakh),
// cr=1e7 (crore), m=1e6. "b" is matched by the suffix class but carries no
// factor, so "2b" parses as 2; kept as-is for input compatibility.
var (
	currencyAmountRe = regexp.MustCompile(`(?:rs\.?|₹|inr)\s*([0-9,]+(?:\.[0-9]+)?)\s*(k|l|cr|m|b)?`)
	bareUnitRe       = regexp.MustCompile(`\b([0-9,]+(?:\.[0-9]+)?)\s*(k|l|cr|m|b)\b`)
	verbAmountRe     = regexp.MustCompile(`(?:allocate|have|invest)\s*(?:rs\.?|₹|inr)?\s*([0-9,]+(?:\.[0-9]+)?)\s*(k|l|cr|m|b)?`)
)

var unitFactors = map[string]float64{
	"k":  1e3,
	"l":  1e5,
	"cr": 1e7,
	"m":  1e6,
	"b":  1,
}

// classify maps a query to an intent against the live analysis set,
// mutating the conversation state's lastAsset along the way.
func (s *Service) classify(query string, order []string, names map[string]string) models.Intent {
	lower := strings.ToLower(query)

	assets := matchAssets(lower, order, names)

	// Follow-up carry-over: a bare "is it a buy" inherits the last asset.
	if len(assets) == 0 && s.state.LastAsset != "" && containsAny(lower, followUpKeywords) {
		assets = []string{s.state.LastAsset}
	}

	// Comparative carry-over: "vs the last one" prepends the previous asset.
	if containsAny(lower, compareKeywords) && len(assets) == 1 &&
		s.state.LastAsset != "" && s.state.LastAsset != assets[0] {
		assets = append([]string{s.state.LastAsset}, assets...)
	}

	if len(assets) > 0 {
		s.state.LastAsset = assets[0]
	}

	switch {
	case containsAny(lower, compareKeywords) && len(assets) >= 2:
		return models.Intent{Type: models.IntentCompare, Assets: assets[:2]}

	case len(assets) >= 1 && (containsAny(lower, explainKeywords) || len(assets) == 1):
		return models.Intent{Type: models.IntentExplain, Assets: assets[:1]}

	case containsAny(lower, summaryKeywords):
		return models.Intent{Type: models.IntentSummary}

	case containsAny(lower, riskKeywords):
		return models.Intent{Type: models.IntentRisk}
	}

	if amount, ok := parseAmount(lower); ok {
		return models.Intent{Type: models.IntentAllocationSim, Amount: amount, Assets: assets}
	}

	switch {
	case s.state.LastAllocation != nil && containsAny(lower, whyKeywords) &&
		(strings.Contains(lower, "allocation") || strings.Contains(lower, "chose") || strings.Contains(lower, "this")):
		return models.Intent{Type: models.IntentExplainAllocation}

	case containsAny(lower, efficiencyKeywords):
		return models.Intent{Type: models.IntentEfficiency}
	}

	return models.Intent{Type: models.IntentUnsupported}
}

// matchAssets collects assets whose identifier or display name appears in
// the query, preserving the analysis set's stored order.
func matchAssets(lowerQuery string, order []string, names map[string]string) []string {
	var matched []string
	for _, id := range order {
		if strings.Contains(lowerQuery, strings.ToLower(id)) {
			matched = append(matched, id)
			continue
		}
		if name := strings.ToLower(names[id]); name != "" && strings.Contains(lowerQuery, name) {
			matched = append(matched, id)
		}
	}
	return matched
}

// parseAmount extracts a rupee amount from the query, trying the currency
// marker, bare unit, and verb patterns in order.
func parseAmount(lowerQuery string) (float64, bool) {
	for _, re := range []*regexp.Regexp{currencyAmountRe, bareUnitRe, verbAmountRe} {
		m := re.FindStringSubmatch(lowerQuery)
		if m == nil {
			continue
		}

		raw := strings.ReplaceAll(m[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			continue
		}

		factor := 1.0
		if len(m) > 2 && m[2] != "" {
			factor = unitFactors[m[2]]
		}
		return value * factor, true
	}
	return 0, false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
