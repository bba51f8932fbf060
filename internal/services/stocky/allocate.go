package stocky

import (
	"context"
	"math"
	"sort"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/models"
)

const (
	// defaultScore stands in for candidates the scorer cannot score
	defaultScore = 50.0

	// fallbackScoreThreshold admits candidates without a buy signal when
	// nothing carries one
	fallbackScoreThreshold = 60.0

	strategySpecific   = "Specific Selection"
	strategyConviction = "Top Conviction Picks"
)

// candidate is one asset eligible for allocation.
type candidate struct {
	id     string
	record *models.AssetRecord
	score  float64
}

// allocate simulates deploying the amount across candidates, weighting by
// normalized score. Integer shares only; candidates priced out of the
// amount are dropped and their capital reported as unused.
func (s *Service) allocate(ctx context.Context, amount float64, requested []string, order []string) (*models.AllocationPlan, error) {
	if amount <= 0 {
		return nil, &common.ValidationError{Reason: "allocation amount must be positive"}
	}

	candidates, strategy := s.selectCandidates(ctx, requested, order)
	if len(candidates) == 0 {
		return nil, &common.ValidationError{Reason: "no high-conviction assets"}
	}

	var scoreSum float64
	for _, c := range candidates {
		scoreSum += c.score
	}

	plan := &models.AllocationPlan{Strategy: strategy}
	var spent float64
	for _, c := range candidates {
		weight := c.score / scoreSum
		allocated := amount * weight
		quantity := int64(math.Floor(allocated / c.record.Price))
		if quantity <= 0 {
			continue
		}
		cost := float64(quantity) * c.record.Price
		spent += cost
		plan.Entries = append(plan.Entries, models.AllocationEntry{
			Identifier: c.id,
			Name:       c.record.Name,
			Price:      c.record.Price,
			Quantity:   quantity,
			Cost:       cost,
			WeightPct:  weight * 100,
		})
	}

	if len(plan.Entries) == 0 {
		return nil, &common.ValidationError{Reason: "amount too small"}
	}
	plan.UnusedCash = amount - spent

	s.state.LastAllocation = snapshotTopPicks(plan)
	return plan, nil
}

// selectCandidates picks the allocation universe: caller-named assets when
// given, else buy-signal assets, else anything scoring above the fallback
// threshold. Unscoreable candidates take the default score.
func (s *Service) selectCandidates(ctx context.Context, requested []string, order []string) ([]candidate, string) {
	if len(requested) > 0 {
		var out []candidate
		for _, id := range requested {
			record, ok := s.portfolio.Analysis(ctx, id)
			if !ok || record.Price <= 0 {
				continue
			}
			out = append(out, candidate{id: id, record: record, score: s.scoreOf(record)})
		}
		return out, strategySpecific
	}

	var buys, scored []candidate
	for _, id := range order {
		record, ok := s.portfolio.Analysis(ctx, id)
		if !ok || record.Price <= 0 {
			continue
		}
		c := candidate{id: id, record: record, score: s.scoreOf(record)}
		if record.Signal == models.SignalBuy {
			buys = append(buys, c)
		}
		if c.score > fallbackScoreThreshold {
			scored = append(scored, c)
		}
	}

	if len(buys) > 0 {
		return buys, strategyConviction
	}
	return scored, strategyConviction
}

// scoreOf returns the normalized score total, defaulting when the record
// cannot be scored.
func (s *Service) scoreOf(record *models.AssetRecord) float64 {
	if score := s.scorer.Score(record); score != nil {
		return score.Total
	}
	return defaultScore
}

// snapshotTopPicks persists the top three entries by weight.
func snapshotTopPicks(plan *models.AllocationPlan) *models.AllocationSnapshot {
	picks := make([]models.AllocationEntry, len(plan.Entries))
	copy(picks, plan.Entries)
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].WeightPct > picks[j].WeightPct
	})
	if len(picks) > 3 {
		picks = picks[:3]
	}
	return &models.AllocationSnapshot{TopPicks: picks, Strategy: plan.Strategy}
}
