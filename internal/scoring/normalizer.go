// Package scoring turns raw asset fundamentals into a bounded,
// industry-weighted quality score with an explanation trail.
package scoring

import (
	"math"
	"strings"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

// missingMetricPenalty is charged per required metric that is absent or
// exactly zero. A legitimate zero value draws the same penalty as missing
// data; this is a known quirk kept for score stability across records that
// never distinguished the two.
const missingMetricPenalty = 25

// Signal thresholds on the normalized total.
const (
	signalBuyThreshold  = 70
	signalHoldThreshold = 40

	SignalHold  = "HOLD"
	SignalAvoid = "AVOID"
)

// Normalize applies the industry profile to a raw score: charges the
// missing-data penalty per required metric, weights and rounds each
// component, sums, floors at zero, clamps to 99, and tags the industry.
// A nil raw score passes through unchanged. Pure function of its inputs
// and the static profile table.
func Normalize(score *models.FundamentalScore, fundamentals *models.Fundamentals, industry string) *models.FundamentalScore {
	if score == nil {
		return nil
	}

	profile := ProfileFor(industry)

	penalty := 0.0
	for _, metric := range profile.Required {
		if fundamentals.Metric(metric) == 0 {
			penalty += missingMetricPenalty
			score.Explanation = append(score.Explanation, "Missing "+strings.ToUpper(metric))
		}
	}

	score.Business = math.Round(score.Business * profile.Weight("business"))
	score.Moat = math.Round(score.Moat * profile.Weight("moat"))
	score.Management = math.Round(score.Management * profile.Weight("management"))
	score.Risk = math.Round(score.Risk * profile.Weight("risk"))

	total := score.Business + score.Moat + score.Management + score.Risk
	total = math.Max(0, total-penalty)
	total = math.Min(99, total)
	score.Total = total
	score.Industry = profile.Name

	if profile.Name != models.IndustryGeneral {
		tag := "(" + profile.Name + ")"
		if !hasTag(score.Explanation, tag) {
			score.Explanation = append(score.Explanation, tag)
		}
	}

	return score
}

// hasTag reports whether any explanation entry already contains the tag.
func hasTag(explanation []string, tag string) bool {
	for _, entry := range explanation {
		if strings.Contains(entry, tag) {
			return true
		}
	}
	return false
}

// Engine implements interfaces.Scorer by chaining the raw scorer, the
// industry classifier, and the normalizer. Scores are recomputed on every
// call, never cached.
type Engine struct {
	raw    RawScorer
	logger *common.Logger
}

// NewEngine creates a scoring engine with the default heuristic scorer.
func NewEngine(logger *common.Logger) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Engine{raw: HeuristicScorer{}, logger: logger}
}

// NewEngineWithScorer creates an engine over a custom raw scorer.
func NewEngineWithScorer(raw RawScorer, logger *common.Logger) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Engine{raw: raw, logger: logger}
}

// Score produces the normalized score for a record, or nil when the record
// cannot be scored.
func (e *Engine) Score(record *models.AssetRecord) *models.FundamentalScore {
	if record == nil {
		return nil
	}
	raw := e.raw.Score(record)
	if raw == nil {
		return nil
	}
	return Normalize(raw, record.Fundamentals, ClassifyIndustry(record))
}

// SignalFor derives the conviction label from the normalized total.
// Unscoreable records get no signal.
func (e *Engine) SignalFor(record *models.AssetRecord) string {
	score := e.Score(record)
	if score == nil {
		return ""
	}
	switch {
	case score.Total >= signalBuyThreshold:
		return models.SignalBuy
	case score.Total >= signalHoldThreshold:
		return SignalHold
	default:
		return SignalAvoid
	}
}

// Ensure Engine implements Scorer
var _ interfaces.Scorer = (*Engine)(nil)
