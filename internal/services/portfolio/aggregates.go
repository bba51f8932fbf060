package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobmcallan/stocksight/internal/models"
	"github.com/bobmcallan/stocksight/internal/scoring"
)

const (
	// sectorAlertPct flags a single industry holding too much capital
	sectorAlertPct = 40.0

	// efficiency thresholds: heavy capital behind a weak score is a trap,
	// meaningful capital behind a strong score is working well
	heavyWeightPct  = 25.0
	weakScore       = 50.0
	strongScore     = 70.0
	strongWeightPct = 10.0
)

// Aggregates computes health, risk, and efficiency analytics from the
// current record. Scores are recomputed on each call.
func (s *Service) Aggregates(ctx context.Context) *models.PortfolioAggregates {
	s.mu.Lock()
	record := s.snapshotLocked()
	s.mu.Unlock()

	agg := &models.PortfolioAggregates{}

	var positions []position

	for _, id := range record.Order {
		holding, ok := record.Holdings[id]
		if !ok {
			continue
		}
		analysis, ok := record.Analysis[id]
		if !ok || analysis.Price <= 0 {
			continue
		}

		value := holding.Quantity * analysis.Price
		agg.TotalValue += value
		if value <= 0 {
			continue
		}

		pos := position{id: id, name: analysis.Name, value: value}
		if score := s.scorer.Score(analysis); score != nil {
			pos.score = score
			pos.industry = score.Industry
			agg.ScoredValue += value
		} else {
			pos.industry = scoring.ClassifyIndustry(analysis)
		}
		positions = append(positions, pos)
	}

	// Health: value-weighted normalized score over scored positions.
	if agg.ScoredValue > 0 {
		var weighted float64
		for _, pos := range positions {
			if pos.score != nil {
				weighted += pos.score.Total * pos.value
			}
		}
		agg.HealthScore = weighted / agg.ScoredValue
	}

	agg.Risk = riskSummary(positions, agg.TotalValue)
	agg.Efficiency = efficiencyFlags(positions, agg.TotalValue)
	return agg
}

// position is one valued holding with its recomputed score and industry.
type position struct {
	id       string
	name     string
	value    float64
	score    *models.FundamentalScore
	industry string
}

func riskSummary(positions []position, totalValue float64) models.RiskSummary {
	summary := models.RiskSummary{}
	if totalValue <= 0 {
		return summary
	}

	byIndustry := map[string]float64{}
	for _, pos := range positions {
		byIndustry[pos.industry] += pos.value
	}

	var herfindahl float64
	for industry, value := range byIndustry {
		weight := value / totalValue
		herfindahl += weight * weight
		pct := weight * 100
		summary.Sectors = append(summary.Sectors, models.SectorExposure{
			Industry:  industry,
			WeightPct: pct,
		})
		if pct > sectorAlertPct {
			summary.Alerts = append(summary.Alerts,
				fmt.Sprintf("%s holds %.0f%% of portfolio value", industry, pct))
		}
	}

	sort.Slice(summary.Sectors, func(i, j int) bool {
		if summary.Sectors[i].WeightPct != summary.Sectors[j].WeightPct {
			return summary.Sectors[i].WeightPct > summary.Sectors[j].WeightPct
		}
		return summary.Sectors[i].Industry < summary.Sectors[j].Industry
	})
	sort.Strings(summary.Alerts)

	summary.DivScore = (1 - herfindahl) * 100
	return summary
}

func efficiencyFlags(positions []position, totalValue float64) []models.EfficiencyFlag {
	if totalValue <= 0 {
		return nil
	}

	var flags []models.EfficiencyFlag
	for _, pos := range positions {
		if pos.score == nil {
			continue
		}
		pct := pos.value / totalValue * 100
		switch {
		case pct > heavyWeightPct && pos.score.Total < weakScore:
			flags = append(flags, models.EfficiencyFlag{
				Type: "bad",
				Text: fmt.Sprintf("%s holds %.0f%% of capital but scores only %.0f", pos.name, pct, pos.score.Total),
			})
		case pct >= strongWeightPct && pos.score.Total >= strongScore:
			flags = append(flags, models.EfficiencyFlag{
				Type: "good",
				Text: fmt.Sprintf("%s is %.0f%% of capital with a strong score of %.0f", pos.name, pct, pos.score.Total),
			})
		}
	}
	return flags
}
