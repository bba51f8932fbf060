package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocksight/internal/models"
)

func aggregatesService(t *testing.T, totals map[string]float64) *Service {
	t.Helper()
	store := &memStore{}
	svc := NewService(store, &stubResolver{}, &stubScorer{totals: totals},
		WithSaveDelay(10*time.Millisecond))
	require.NoError(t, svc.Load(context.Background()))
	t.Cleanup(func() { svc.Close() })
	return svc
}

func seedPosition(svc *Service, id string, qty, price float64, kind models.AssetKind, name string) {
	svc.mu.Lock()
	svc.record.Holdings[id] = models.Holding{Quantity: qty, AverageCost: price}
	svc.record.Order = append(svc.record.Order, id)
	svc.record.Analysis[id] = &models.AssetRecord{
		Identifier: id,
		Name:       name,
		Price:      price,
		Kind:       kind,
	}
	svc.mu.Unlock()
}

func TestAggregatesHealthIsValueWeighted(t *testing.T) {
	svc := aggregatesService(t, map[string]float64{"A": 90, "B": 30})
	seedPosition(svc, "A", 10, 100, models.AssetKindStock, "Alpha Ltd") // value 1000
	seedPosition(svc, "B", 30, 100, models.AssetKindStock, "Beta Ltd")  // value 3000

	agg := svc.Aggregates(context.Background())

	assert.InDelta(t, 4000.0, agg.TotalValue, 0.001)
	assert.InDelta(t, 4000.0, agg.ScoredValue, 0.001)
	// (90*1000 + 30*3000) / 4000 = 45
	assert.InDelta(t, 45.0, agg.HealthScore, 0.001)
}

func TestAggregatesUnscoredValueExcludedFromHealth(t *testing.T) {
	svc := aggregatesService(t, map[string]float64{"A": 80})
	seedPosition(svc, "A", 10, 100, models.AssetKindStock, "Alpha Ltd")
	seedPosition(svc, "GOLDBEES", 100, 50, models.AssetKindETF, "Gold BeES")

	agg := svc.Aggregates(context.Background())

	assert.InDelta(t, 6000.0, agg.TotalValue, 0.001)
	assert.InDelta(t, 1000.0, agg.ScoredValue, 0.001)
	assert.InDelta(t, 80.0, agg.HealthScore, 0.001)
}

func TestAggregatesSectorAlert(t *testing.T) {
	svc := aggregatesService(t, map[string]float64{"HDFCBANK": 70, "ICICIBANK": 65, "TCS": 60})
	seedPosition(svc, "HDFCBANK", 10, 150, models.AssetKindStock, "HDFC Bank Ltd")   // 1500
	seedPosition(svc, "ICICIBANK", 10, 120, models.AssetKindStock, "ICICI Bank Ltd") // 1200
	seedPosition(svc, "TCS", 10, 30, models.AssetKindStock, "TCS Ltd")               // 300

	agg := svc.Aggregates(context.Background())

	// stubScorer tags every score GENERAL, so concentration lands there.
	require.NotEmpty(t, agg.Risk.Alerts)
	assert.Contains(t, agg.Risk.Alerts[0], "100%")
}

func TestAggregatesEfficiencyFlags(t *testing.T) {
	svc := aggregatesService(t, map[string]float64{"WEAK": 30, "STRONG": 85})
	seedPosition(svc, "WEAK", 10, 100, models.AssetKindStock, "Weak Ltd")     // 1000 of 1500, 67%
	seedPosition(svc, "STRONG", 10, 50, models.AssetKindStock, "Strong Ltd") // 500 of 1500, 33%

	agg := svc.Aggregates(context.Background())

	var bad, good int
	for _, flag := range agg.Efficiency {
		switch flag.Type {
		case "bad":
			bad++
			assert.Contains(t, flag.Text, "Weak Ltd")
		case "good":
			good++
			assert.Contains(t, flag.Text, "Strong Ltd")
		}
	}
	assert.Equal(t, 1, bad)
	assert.Equal(t, 1, good)
}

func TestAggregatesEmptyPortfolio(t *testing.T) {
	svc := aggregatesService(t, nil)

	agg := svc.Aggregates(context.Background())

	assert.Zero(t, agg.TotalValue)
	assert.Zero(t, agg.HealthScore)
	assert.Empty(t, agg.Risk.Alerts)
	assert.Empty(t, agg.Efficiency)
}
