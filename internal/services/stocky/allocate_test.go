package stocky

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocksight/internal/models"
)

// fakePortfolio serves a fixed analysis set.
type fakePortfolio struct {
	order    []string
	analysis map[string]*models.AssetRecord
	totals   models.PortfolioTotals
	agg      *models.PortfolioAggregates
}

func (f *fakePortfolio) Load(ctx context.Context) error { return nil }
func (f *fakePortfolio) AddAssets(ctx context.Context, input string) ([]string, error) {
	return nil, nil
}
func (f *fakePortfolio) RemoveAsset(ctx context.Context, identifier string) error { return nil }
func (f *fakePortfolio) UpdateHolding(ctx context.Context, identifier string, quantity, averageCost float64) error {
	return nil
}
func (f *fakePortfolio) ResolveAsset(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	return nil, nil
}
func (f *fakePortfolio) StoreAnalysis(ctx context.Context, identifier string, record *models.AssetRecord) {
}
func (f *fakePortfolio) Record(ctx context.Context) *models.PortfolioRecord { return nil }
func (f *fakePortfolio) Analysis(ctx context.Context, identifier string) (*models.AssetRecord, bool) {
	record, ok := f.analysis[identifier]
	return record, ok
}
func (f *fakePortfolio) AnalysisOrder(ctx context.Context) []string { return f.order }
func (f *fakePortfolio) Totals(ctx context.Context) models.PortfolioTotals {
	return f.totals
}
func (f *fakePortfolio) Aggregates(ctx context.Context) *models.PortfolioAggregates {
	if f.agg != nil {
		return f.agg
	}
	return &models.PortfolioAggregates{}
}
func (f *fakePortfolio) SyncFromCloud(ctx context.Context) error { return nil }
func (f *fakePortfolio) Offline() bool                           { return false }
func (f *fakePortfolio) Flush(ctx context.Context) error         { return nil }
func (f *fakePortfolio) Close() error                            { return nil }

// tableScorer scores by identifier.
type tableScorer struct {
	totals map[string]float64
}

func (t *tableScorer) Score(record *models.AssetRecord) *models.FundamentalScore {
	if record == nil {
		return nil
	}
	total, ok := t.totals[record.Identifier]
	if !ok {
		return nil
	}
	return &models.FundamentalScore{Total: total}
}

func (t *tableScorer) SignalFor(record *models.AssetRecord) string { return "" }

func allocService(totals map[string]float64, records map[string]*models.AssetRecord, order []string) *Service {
	return NewService(
		&fakePortfolio{order: order, analysis: records},
		&tableScorer{totals: totals},
		WithPacingDelay(0),
	)
}

func threeAssetUniverse() (map[string]*models.AssetRecord, []string) {
	records := map[string]*models.AssetRecord{
		"A": {Identifier: "A", Name: "Alpha Ltd", Price: 100, Signal: models.SignalBuy},
		"B": {Identifier: "B", Name: "Beta Ltd", Price: 250, Signal: models.SignalBuy},
		"C": {Identifier: "C", Name: "Gamma Ltd", Price: 50},
	}
	return records, []string{"A", "B", "C"}
}

func TestAllocateConservation(t *testing.T) {
	records, order := threeAssetUniverse()
	s := allocService(map[string]float64{"A": 80, "B": 60, "C": 40}, records, order)

	for _, amount := range []float64{500, 10000, 99999, 123456.78} {
		plan, err := s.allocate(context.Background(), amount, nil, order)
		require.NoError(t, err)

		var spent float64
		for _, entry := range plan.Entries {
			assert.GreaterOrEqual(t, entry.Quantity, int64(1))
			spent += entry.Cost
		}
		assert.LessOrEqual(t, spent, amount)
		assert.InDelta(t, amount-spent, plan.UnusedCash, 0.0001)
		assert.GreaterOrEqual(t, plan.UnusedCash, 0.0)
	}
}

func TestAllocateDeterminism(t *testing.T) {
	records, order := threeAssetUniverse()
	s := allocService(map[string]float64{"A": 80, "B": 60}, records, order)

	first, err := s.allocate(context.Background(), 50000, nil, order)
	require.NoError(t, err)
	second, err := s.allocate(context.Background(), 50000, nil, order)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAllocateBuySignalsWinOverFallback(t *testing.T) {
	records, order := threeAssetUniverse()
	// C scores above the fallback threshold but carries no buy signal.
	s := allocService(map[string]float64{"A": 80, "B": 60, "C": 90}, records, order)

	plan, err := s.allocate(context.Background(), 10000, nil, order)
	require.NoError(t, err)

	assert.Equal(t, strategyConviction, plan.Strategy)
	for _, entry := range plan.Entries {
		assert.NotEqual(t, "C", entry.Identifier)
	}
}

func TestAllocateFallbackThreshold(t *testing.T) {
	records := map[string]*models.AssetRecord{
		"X": {Identifier: "X", Name: "Xi Ltd", Price: 100},
		"Y": {Identifier: "Y", Name: "Yo Ltd", Price: 100},
	}
	order := []string{"X", "Y"}
	s := allocService(map[string]float64{"X": 75, "Y": 55}, records, order)

	plan, err := s.allocate(context.Background(), 10000, nil, order)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "X", plan.Entries[0].Identifier)
}

func TestAllocateSpecificSelection(t *testing.T) {
	records, order := threeAssetUniverse()
	s := allocService(map[string]float64{"C": 40}, records, order)

	plan, err := s.allocate(context.Background(), 1000, []string{"C"}, order)
	require.NoError(t, err)

	assert.Equal(t, strategySpecific, plan.Strategy)
	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "C", plan.Entries[0].Identifier)
	assert.InDelta(t, 100.0, plan.Entries[0].WeightPct, 0.001)
}

func TestAllocateDefaultScoreForUnscoreable(t *testing.T) {
	records := map[string]*models.AssetRecord{
		"F": {Identifier: "F", Name: "Some Fund", Price: 80, Kind: models.AssetKindFund, Signal: models.SignalBuy},
	}
	s := allocService(nil, records, []string{"F"})

	plan, err := s.allocate(context.Background(), 1000, nil, []string{"F"})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	assert.Equal(t, int64(12), plan.Entries[0].Quantity)
}

func TestAllocateNoCandidates(t *testing.T) {
	s := allocService(nil, map[string]*models.AssetRecord{}, nil)

	_, err := s.allocate(context.Background(), 10000, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no high-conviction assets")
}

func TestAllocateAmountTooSmall(t *testing.T) {
	records := map[string]*models.AssetRecord{
		"A": {Identifier: "A", Name: "Alpha Ltd", Price: 5000, Signal: models.SignalBuy},
	}
	s := allocService(map[string]float64{"A": 80}, records, []string{"A"})

	_, err := s.allocate(context.Background(), 100, nil, []string{"A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestAllocateSnapshotsTopThree(t *testing.T) {
	records := map[string]*models.AssetRecord{
		"A": {Identifier: "A", Name: "Alpha", Price: 10, Signal: models.SignalBuy},
		"B": {Identifier: "B", Name: "Beta", Price: 10, Signal: models.SignalBuy},
		"C": {Identifier: "C", Name: "Gamma", Price: 10, Signal: models.SignalBuy},
		"D": {Identifier: "D", Name: "Delta", Price: 10, Signal: models.SignalBuy},
	}
	order := []string{"A", "B", "C", "D"}
	s := allocService(map[string]float64{"A": 90, "B": 80, "C": 70, "D": 60}, records, order)

	_, err := s.allocate(context.Background(), 10000, nil, order)
	require.NoError(t, err)

	snapshot := s.state.LastAllocation
	require.NotNil(t, snapshot)
	require.Len(t, snapshot.TopPicks, 3)
	assert.Equal(t, "A", snapshot.TopPicks[0].Identifier)
	assert.Equal(t, "B", snapshot.TopPicks[1].Identifier)
	assert.Equal(t, "C", snapshot.TopPicks[2].Identifier)
}
