package models

// FundamentalScore is the bounded quality score for a single asset.
// Components are 0-100 before industry weighting; Total is clamped to [0,99]
// after weighting and missing-data penalties.
type FundamentalScore struct {
	Business    float64  `json:"business"`
	Moat        float64  `json:"moat"`
	Management  float64  `json:"management"`
	Risk        float64  `json:"risk"`
	Total       float64  `json:"total"`
	Explanation []string `json:"explanation"` // ordered annotations, oldest first
	Industry    string   `json:"industry,omitempty"`
}

// HasAnnotation reports whether the explanation already carries the given entry.
func (s *FundamentalScore) HasAnnotation(entry string) bool {
	for _, e := range s.Explanation {
		if e == entry {
			return true
		}
	}
	return false
}

// IndustryProfile names the metrics an industry is expected to report and the
// per-component score multipliers applied during normalization.
type IndustryProfile struct {
	Name     string             `json:"name"`
	Required []string           `json:"required"`
	Weights  map[string]float64 `json:"weights"` // business/moat/management/risk, default 1.0
}

// Weight returns the multiplier for a component, defaulting to 1.0.
func (p *IndustryProfile) Weight(component string) float64 {
	if p.Weights == nil {
		return 1.0
	}
	if w, ok := p.Weights[component]; ok {
		return w
	}
	return 1.0
}

// IndustryGeneral is the fallback industry tag when classification fails.
const IndustryGeneral = "GENERAL"
