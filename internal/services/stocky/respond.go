package stocky

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/stocksight/internal/models"
)

// Response composers. Output is plain text with light markdown; ambiguous
// or missing data degrades to a clarifying sentence, never an error.

func (s *Service) composeSummary(ctx context.Context) string {
	totals := s.portfolio.Totals(ctx)
	agg := s.portfolio.Aggregates(ctx)

	if agg.TotalValue <= 0 {
		return "Your portfolio has no valued holdings yet. Add assets and set quantities to see a summary."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Portfolio health: %.0f/99**\n", agg.HealthScore)
	fmt.Fprintf(&b, "Current value ₹%s against ₹%s invested (P&L ₹%s).\n",
		formatAmount(totals.CurrentValue), formatAmount(totals.Invested), formatAmount(totals.PnL))
	if agg.ScoredValue < agg.TotalValue {
		fmt.Fprintf(&b, "%.0f%% of value is in scoreable assets; funds and ETFs sit outside the health score.\n",
			agg.ScoredValue/agg.TotalValue*100)
	}
	if len(agg.Risk.Alerts) > 0 {
		fmt.Fprintf(&b, "Watch out: %s.", strings.Join(agg.Risk.Alerts, "; "))
	}
	return strings.TrimSpace(b.String())
}

func (s *Service) composeRisk(ctx context.Context) string {
	agg := s.portfolio.Aggregates(ctx)

	if agg.TotalValue <= 0 {
		return "No valued holdings to assess risk on yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Diversification score: %.0f/100**\n", agg.Risk.DivScore)
	for _, sector := range agg.Risk.Sectors {
		fmt.Fprintf(&b, "- %s: %.0f%%\n", sector.Industry, sector.WeightPct)
	}
	if len(agg.Risk.Alerts) > 0 {
		fmt.Fprintf(&b, "Concentration alerts: %s.", strings.Join(agg.Risk.Alerts, "; "))
	} else {
		b.WriteString("No single sector dominates your capital.")
	}
	return strings.TrimSpace(b.String())
}

func (s *Service) composeEfficiency(ctx context.Context) string {
	agg := s.portfolio.Aggregates(ctx)

	if len(agg.Efficiency) == 0 {
		return "No sizing traps found. Capital weight and asset quality look aligned."
	}

	var b strings.Builder
	b.WriteString("**Capital efficiency**\n")
	for _, flag := range agg.Efficiency {
		marker := "✓"
		if flag.Type == "bad" {
			marker = "⚠"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, flag.Text)
	}
	return strings.TrimSpace(b.String())
}

func (s *Service) composeExplain(ctx context.Context, identifier string) string {
	record, ok := s.portfolio.Analysis(ctx, identifier)
	if !ok {
		return fmt.Sprintf("I haven't resolved %s yet. Give it a moment or re-add it.", identifier)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (₹%s", record.Name, formatAmount(record.Price))
	if record.Signal != "" {
		fmt.Fprintf(&b, ", %s", record.Signal)
	}
	b.WriteString(")\n")

	if score := s.scorer.Score(record); score != nil {
		fmt.Fprintf(&b, "Fundamental score %.0f/99 (business %.0f, moat %.0f, management %.0f, risk %.0f).\n",
			score.Total, score.Business, score.Moat, score.Management, score.Risk)
		if len(score.Explanation) > 0 {
			fmt.Fprintf(&b, "Notes: %s.\n", strings.Join(score.Explanation, ", "))
		}
	} else if record.Kind == models.AssetKindFund {
		fmt.Fprintf(&b, "Mutual fund from %s; scored by returns rather than fundamentals.\n", record.FundHouse)
	} else {
		b.WriteString("No fundamentals available to score this asset.\n")
	}

	if record.Returns != nil && (record.Returns.R1Y != 0 || record.Returns.R3Y != 0 || record.Returns.R5Y != 0) {
		fmt.Fprintf(&b, "Trailing returns: 1y %.1f%%, 3y %.1f%%, 5y %.1f%%.",
			record.Returns.R1Y, record.Returns.R3Y, record.Returns.R5Y)
	}
	return strings.TrimSpace(b.String())
}

func (s *Service) composeCompare(ctx context.Context, first, second string) string {
	a, okA := s.portfolio.Analysis(ctx, first)
	bRec, okB := s.portfolio.Analysis(ctx, second)
	if !okA || !okB {
		return "I need both assets resolved before comparing them."
	}

	scoreA := s.scoreOf(a)
	scoreB := s.scoreOf(bRec)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s vs %s**\n", a.Name, bRec.Name)
	fmt.Fprintf(&b, "- %s: ₹%s, score %.0f\n", a.Name, formatAmount(a.Price), scoreA)
	fmt.Fprintf(&b, "- %s: ₹%s, score %.0f\n", bRec.Name, formatAmount(bRec.Price), scoreB)

	switch {
	case scoreA > scoreB:
		fmt.Fprintf(&b, "%s looks stronger on fundamentals.", a.Name)
	case scoreB > scoreA:
		fmt.Fprintf(&b, "%s looks stronger on fundamentals.", bRec.Name)
	default:
		b.WriteString("They score evenly; the difference is in what you already hold.")
	}
	return b.String()
}

func (s *Service) composeAllocation(ctx context.Context, amount float64, requested []string) string {
	order := s.portfolio.AnalysisOrder(ctx)
	plan, err := s.allocate(ctx, amount, requested, order)
	if err != nil {
		return fmt.Sprintf("I couldn't build an allocation: %s. Try a larger amount or add scored assets first.",
			strings.TrimPrefix(err.Error(), "validation failure: "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Allocating ₹%s (%s)**\n", formatAmount(amount), plan.Strategy)
	for _, entry := range plan.Entries {
		fmt.Fprintf(&b, "- %s: %d × ₹%s = ₹%s (%.0f%% weight)\n",
			entry.Name, entry.Quantity, formatAmount(entry.Price), formatAmount(entry.Cost), entry.WeightPct)
	}
	fmt.Fprintf(&b, "Unused cash: ₹%s.", formatAmount(plan.UnusedCash))
	return b.String()
}

func (s *Service) composeExplainAllocation() string {
	snapshot := s.state.LastAllocation
	if snapshot == nil {
		return "I haven't simulated an allocation yet. Try \"invest 50k\" first."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The last plan used the %q strategy, weighting capital by fundamental score.\n", snapshot.Strategy)
	b.WriteString("Top picks by weight:\n")
	for _, pick := range snapshot.TopPicks {
		fmt.Fprintf(&b, "- %s at %.0f%%\n", pick.Name, pick.WeightPct)
	}
	b.WriteString("Higher-scoring assets draw proportionally more capital; integer share counts leave the remainder as cash.")
	return b.String()
}

// formatAmount renders a rupee amount with Indian-style digit grouping.
func formatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	whole := int64(v)
	frac := v - float64(whole)

	digits := fmt.Sprintf("%d", whole)
	var grouped string
	if len(digits) > 3 {
		head := digits[:len(digits)-3]
		tail := digits[len(digits)-3:]
		for len(head) > 2 {
			grouped = "," + head[len(head)-2:] + grouped
			head = head[:len(head)-2]
		}
		grouped = head + grouped + "," + tail
	} else {
		grouped = digits
	}

	if frac >= 0.005 {
		grouped += strings.TrimPrefix(fmt.Sprintf("%.2f", frac), "0")
	}
	if neg {
		return "-" + grouped
	}
	return grouped
}
