// Package portfolio owns the shared portfolio record: holdings, the
// analysis set, derived analytics, debounced persistence, and best-effort
// cloud sync.
package portfolio

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

const DefaultSaveDelay = 2 * time.Second

// Service implements interfaces.PortfolioService. All record access goes
// through the mutex; resolutions run as independent background chains and
// land via StoreAnalysis, where writes for removed assets become no-ops.
type Service struct {
	store    interfaces.PortfolioStore
	resolver interfaces.AssetResolver
	scorer   interfaces.Scorer
	ledger   interfaces.LedgerClient
	logger   *common.Logger

	mu      sync.Mutex
	record  *models.PortfolioRecord
	offline bool

	saveDelay time.Duration
	saveTimer *time.Timer
	closed    bool
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithSaveDelay sets the debounce window for persistence writes
func WithSaveDelay(delay time.Duration) ServiceOption {
	return func(s *Service) {
		s.saveDelay = delay
	}
}

// WithLedger sets the cloud ledger client; nil disables sync
func WithLedger(ledger interfaces.LedgerClient) ServiceOption {
	return func(s *Service) {
		s.ledger = ledger
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the portfolio service.
func NewService(store interfaces.PortfolioStore, resolver interfaces.AssetResolver, scorer interfaces.Scorer, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		resolver:  resolver,
		scorer:    scorer,
		logger:    common.NewSilentLogger(),
		record:    models.NewPortfolioRecord(),
		saveDelay: DefaultSaveDelay,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads the persisted record into memory.
func (s *Service) Load(ctx context.Context) error {
	record, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.record = record
	s.mu.Unlock()

	s.logger.Info().
		Int("holdings", len(record.Holdings)).
		Int("analysis", len(record.Analysis)).
		Msg("Portfolio loaded")
	return nil
}

// AddAssets parses comma-separated identifiers, registers new holdings,
// and starts background resolution for each accepted one.
func (s *Service) AddAssets(ctx context.Context, input string) ([]string, error) {
	var accepted []string

	s.mu.Lock()
	for _, part := range strings.Split(input, ",") {
		id := models.NormalizeIdentifier(part)
		if id == "" || models.ContainsBlacklistedKey(id) {
			continue
		}
		if _, exists := s.record.Holdings[id]; exists {
			continue
		}
		s.record.Holdings[id] = models.Holding{}
		s.record.Order = append(s.record.Order, id)
		accepted = append(accepted, id)
	}
	s.mu.Unlock()

	if len(accepted) == 0 {
		return nil, &common.ValidationError{Reason: "no valid asset identifiers in input"}
	}

	for _, id := range accepted {
		go func(identifier string) {
			// Detached from the request context; removal mid-flight makes
			// the completion a no-op write.
			if _, err := s.ResolveAsset(context.Background(), identifier); err != nil {
				s.logger.Warn().
					Str("identifier", identifier).
					Err(err).
					Msg("Background resolution failed")
			}
		}(id)
	}

	s.scheduleSave()
	return accepted, nil
}

// RemoveAsset removes a holding and its analysis.
func (s *Service) RemoveAsset(ctx context.Context, identifier string) error {
	id := models.NormalizeIdentifier(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.record.Holdings[id]; !exists {
		return &common.NotFoundError{Identifier: id}
	}

	delete(s.record.Holdings, id)
	delete(s.record.Analysis, id)
	delete(s.record.CardViews, id)
	for i, o := range s.record.Order {
		if o == id {
			s.record.Order = append(s.record.Order[:i], s.record.Order[i+1:]...)
			break
		}
	}

	s.scheduleSaveLocked()
	return nil
}

// UpdateHolding sets quantity and average cost for a holding.
func (s *Service) UpdateHolding(ctx context.Context, identifier string, quantity, averageCost float64) error {
	id := models.NormalizeIdentifier(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.record.Holdings[id]; !exists {
		return &common.NotFoundError{Identifier: id}
	}
	if quantity < 0 || averageCost < 0 {
		return &common.ValidationError{Reason: "quantity and average cost must be non-negative"}
	}

	s.record.Holdings[id] = models.Holding{Quantity: quantity, AverageCost: averageCost}
	s.scheduleSaveLocked()
	return nil
}

// ResolveAsset synchronously resolves one asset, derives its conviction
// signal, and stores the result in the analysis set.
func (s *Service) ResolveAsset(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	record, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	record.Signal = s.scorer.SignalFor(record)
	s.StoreAnalysis(ctx, record.Identifier, record)
	return record, nil
}

// StoreAnalysis replaces the analysis record for an identifier. The write
// is dropped when the identifier is no longer held.
func (s *Service) StoreAnalysis(ctx context.Context, identifier string, record *models.AssetRecord) {
	id := models.NormalizeIdentifier(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.record.Holdings[id]; !held {
		s.logger.Debug().
			Str("identifier", id).
			Msg("Dropping analysis for removed asset")
		return
	}

	s.record.Analysis[id] = record
	s.scheduleSaveLocked()
}

// Record returns a shallow snapshot of the current record.
func (s *Service) Record(ctx context.Context) *models.PortfolioRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Analysis returns the analysis record for one identifier.
func (s *Service) Analysis(ctx context.Context, identifier string) (*models.AssetRecord, bool) {
	id := models.NormalizeIdentifier(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.record.Analysis[id]
	return record, ok
}

// AnalysisOrder returns identifiers in insertion order.
func (s *Service) AnalysisOrder(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := make([]string, len(s.record.Order))
	copy(order, s.record.Order)
	return order
}

// Totals aggregates invested capital and current value across holdings
// with a live price. Holdings still awaiting resolution contribute to
// neither sum, so pending assets never skew P&L.
func (s *Service) Totals(ctx context.Context) models.PortfolioTotals {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totals models.PortfolioTotals
	for id, holding := range s.record.Holdings {
		analysis, ok := s.record.Analysis[id]
		if !ok || analysis.Price <= 0 {
			continue
		}
		totals.Invested += holding.Quantity * holding.AverageCost
		totals.CurrentValue += holding.Quantity * analysis.Price
	}
	totals.PnL = totals.CurrentValue - totals.Invested
	return totals
}

// SyncFromCloud pulls the remote holdings. A non-empty remote replaces the
// local map; an empty remote receives a push of local state. Pull failure
// marks the service offline without failing the caller.
func (s *Service) SyncFromCloud(ctx context.Context) error {
	if s.ledger == nil {
		return nil
	}

	remote, err := s.ledger.Pull(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cloud pull failed, continuing offline")
		s.setOffline(true)
		return nil
	}
	s.setOffline(false)

	if len(remote) == 0 {
		s.logger.Debug().Msg("Remote ledger empty, pushing local holdings")
		return s.pushHoldings(ctx)
	}

	s.mu.Lock()
	s.record.Holdings = models.SanitizeHoldings(remote)
	s.record.Normalize()
	s.scheduleSaveLocked()
	s.mu.Unlock()

	s.logger.Info().Int("holdings", len(remote)).Msg("Holdings synced from cloud")
	return nil
}

// Offline reports whether the last cloud operation failed.
func (s *Service) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

func (s *Service) setOffline(offline bool) {
	s.mu.Lock()
	s.offline = offline
	s.mu.Unlock()
}

// Flush persists the current record immediately.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return s.persist(ctx, snapshot)
}

// Close stops the debounced writer and flushes pending state.
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return s.Flush(context.Background())
}

// scheduleSave arms (or re-arms) the debounce timer.
func (s *Service) scheduleSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleSaveLocked()
}

func (s *Service) scheduleSaveLocked() {
	if s.closed {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, func() {
		s.mu.Lock()
		snapshot := s.snapshotLocked()
		s.mu.Unlock()

		if err := s.persist(context.Background(), snapshot); err != nil {
			s.logger.Warn().Err(err).Msg("Debounced save failed")
		}
	})
}

// persist writes the snapshot to local storage and pushes the sanitized
// holdings to the cloud ledger.
func (s *Service) persist(ctx context.Context, snapshot *models.PortfolioRecord) error {
	if err := s.store.Save(ctx, snapshot); err != nil {
		return err
	}

	if s.ledger != nil {
		if err := s.ledger.Push(ctx, models.SanitizeHoldings(snapshot.Holdings)); err != nil {
			s.logger.Warn().Err(err).Msg("Cloud push degraded")
			s.setOffline(true)
			return nil
		}
		s.setOffline(false)
	}
	return nil
}

// pushHoldings pushes the current sanitized holdings map.
func (s *Service) pushHoldings(ctx context.Context) error {
	s.mu.Lock()
	holdings := models.SanitizeHoldings(s.record.Holdings)
	s.mu.Unlock()

	if err := s.ledger.Push(ctx, holdings); err != nil {
		s.logger.Warn().Err(err).Msg("Cloud push degraded")
		s.setOffline(true)
	}
	return nil
}

// snapshotLocked copies the record under the held mutex. Maps are copied
// one level deep; analysis records are shared read-only.
func (s *Service) snapshotLocked() *models.PortfolioRecord {
	snapshot := &models.PortfolioRecord{
		Holdings:   make(map[string]models.Holding, len(s.record.Holdings)),
		Analysis:   make(map[string]*models.AssetRecord, len(s.record.Analysis)),
		Order:      make([]string, len(s.record.Order)),
		ActiveView: s.record.ActiveView,
		CardViews:  make(map[string]string, len(s.record.CardViews)),
	}
	for k, v := range s.record.Holdings {
		snapshot.Holdings[k] = v
	}
	for k, v := range s.record.Analysis {
		snapshot.Analysis[k] = v
	}
	copy(snapshot.Order, s.record.Order)
	for k, v := range s.record.CardViews {
		snapshot.CardViews[k] = v
	}
	return snapshot
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
