package scoring

import (
	"github.com/bobmcallan/stocksight/internal/models"
)

// RawScorer produces the unweighted component scores for a record.
// Implementations return nil when the record's fundamentals are
// insufficient to score.
type RawScorer interface {
	Score(record *models.AssetRecord) *models.FundamentalScore
}

// HeuristicScorer derives component scores from the fundamental ratio set.
// Each component lands in roughly 0-25 so a flawless record sums near 100
// before the normalizer's penalty and clamp.
type HeuristicScorer struct{}

func (HeuristicScorer) Score(record *models.AssetRecord) *models.FundamentalScore {
	if record == nil || record.Fundamentals == nil {
		return nil
	}
	f := record.Fundamentals

	score := &models.FundamentalScore{
		Business:   scaled((f.ROE+f.ROCE)/2, 25),
		Moat:       0.6*scaled(f.OperatingMargin, 30) + 0.4*capScore(f.MarketCap),
		Management: scaled((f.SalesGrowth3Y+f.ProfitGrowth3Y)/2, 20),
		Risk:       0.6*valuationScore(f.PE) + 0.4*betaScore(f.Beta),
	}

	if f.ROE >= 18 {
		score.Explanation = append(score.Explanation, "High ROE")
	}
	if f.OperatingMargin >= 25 {
		score.Explanation = append(score.Explanation, "Strong margins")
	}
	if f.SalesGrowth3Y >= 15 && f.ProfitGrowth3Y >= 15 {
		score.Explanation = append(score.Explanation, "Consistent growth")
	}
	if f.PE > 60 {
		score.Explanation = append(score.Explanation, "Expensive valuation")
	}

	return score
}

// scaled maps a value linearly onto 0-25, saturating at full.
func scaled(value, full float64) float64 {
	if value <= 0 {
		return 0
	}
	if value >= full {
		return 25
	}
	return value / full * 25
}

// capScore rewards market size in crore rupees.
func capScore(marketCap float64) float64 {
	switch {
	case marketCap >= 100000:
		return 25
	case marketCap >= 20000:
		return 15
	case marketCap >= 5000:
		return 8
	case marketCap > 0:
		return 3
	default:
		return 0
	}
}

// valuationScore rewards cheap earnings multiples. An unreported P/E takes
// a neutral score rather than the top band.
func valuationScore(pe float64) float64 {
	switch {
	case pe <= 0:
		return 10
	case pe <= 15:
		return 25
	case pe <= 25:
		return 18
	case pe <= 40:
		return 12
	case pe <= 60:
		return 6
	default:
		return 2
	}
}

// betaScore rewards low market sensitivity, neutral when unreported.
func betaScore(beta float64) float64 {
	switch {
	case beta <= 0:
		return 12
	case beta <= 0.8:
		return 25
	case beta <= 1.1:
		return 18
	case beta <= 1.4:
		return 12
	default:
		return 6
	}
}
