// Package stocky is the rule-based conversational engine. It classifies
// free-text queries into intents against the live analysis set, simulates
// capital allocations, and composes lightly marked-up text responses.
// Conversation state lives for the process lifetime and is mutated only
// here.
package stocky

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

// DefaultPacingDelay is the fixed artificial delay before each response.
// It paces the conversation; it is not a concurrency primitive.
const DefaultPacingDelay = 600 * time.Millisecond

// Service implements interfaces.ChatService. Turns are strictly
// sequential; the mutex serializes concurrent callers.
type Service struct {
	portfolio interfaces.PortfolioService
	scorer    interfaces.Scorer
	logger    *common.Logger

	mu          sync.Mutex
	state       models.ConversationState
	pacingDelay time.Duration
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithPacingDelay sets the artificial response delay; zero disables it
func WithPacingDelay(delay time.Duration) ServiceOption {
	return func(s *Service) {
		s.pacingDelay = delay
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the conversational engine.
func NewService(portfolio interfaces.PortfolioService, scorer interfaces.Scorer, opts ...ServiceOption) *Service {
	s := &Service{
		portfolio:   portfolio,
		scorer:      scorer,
		logger:      common.NewSilentLogger(),
		pacingDelay: DefaultPacingDelay,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ask processes one conversational turn.
func (s *Service) Ask(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pacingDelay > 0 {
		select {
		case <-time.After(s.pacingDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	order := s.portfolio.AnalysisOrder(ctx)
	names := map[string]string{}
	for _, id := range order {
		if record, ok := s.portfolio.Analysis(ctx, id); ok {
			names[id] = record.Name
		}
	}

	intent := s.classify(query, order, names)
	s.logger.Debug().
		Str("intent", string(intent.Type)).
		Strs("assets", intent.Assets).
		Float64("amount", intent.Amount).
		Msg("Query classified")

	return s.respond(ctx, intent)
}

// respond dispatches to the per-intent composer.
func (s *Service) respond(ctx context.Context, intent models.Intent) (string, error) {
	switch intent.Type {
	case models.IntentSummary:
		return s.composeSummary(ctx), nil
	case models.IntentRisk:
		return s.composeRisk(ctx), nil
	case models.IntentEfficiency:
		return s.composeEfficiency(ctx), nil
	case models.IntentExplain:
		return s.composeExplain(ctx, intent.Assets[0]), nil
	case models.IntentCompare:
		return s.composeCompare(ctx, intent.Assets[0], intent.Assets[1]), nil
	case models.IntentAllocationSim:
		return s.composeAllocation(ctx, intent.Amount, intent.Assets), nil
	case models.IntentExplainAllocation:
		return s.composeExplainAllocation(), nil
	default:
		return "I can summarise your portfolio, assess risk, explain an asset, compare two, or simulate an allocation (try \"invest 50k\").", nil
	}
}

// Ensure Service implements ChatService
var _ interfaces.ChatService = (*Service)(nil)
