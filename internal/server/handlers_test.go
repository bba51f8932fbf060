package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/stocksight/internal/app"
	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/models"
)

type stubPortfolio struct {
	record     *models.PortfolioRecord
	totals     models.PortfolioTotals
	agg        *models.PortfolioAggregates
	offline    bool
	syncErr    error
	addErr     error
	removeErr  error
	updateErr  error
	resolved   *models.AssetRecord
	resolveErr error

	removed []string
	updated []string
}

func (p *stubPortfolio) Load(ctx context.Context) error { return nil }

func (p *stubPortfolio) AddAssets(ctx context.Context, input string) ([]string, error) {
	if p.addErr != nil {
		return nil, p.addErr
	}
	var accepted []string
	for _, part := range strings.Split(input, ",") {
		if id := models.NormalizeIdentifier(part); id != "" {
			accepted = append(accepted, id)
		}
	}
	return accepted, nil
}

func (p *stubPortfolio) RemoveAsset(ctx context.Context, identifier string) error {
	p.removed = append(p.removed, identifier)
	return p.removeErr
}

func (p *stubPortfolio) UpdateHolding(ctx context.Context, identifier string, quantity, averageCost float64) error {
	p.updated = append(p.updated, identifier)
	return p.updateErr
}

func (p *stubPortfolio) ResolveAsset(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	return p.resolved, p.resolveErr
}

func (p *stubPortfolio) StoreAnalysis(ctx context.Context, identifier string, record *models.AssetRecord) {
}

func (p *stubPortfolio) Record(ctx context.Context) *models.PortfolioRecord {
	if p.record == nil {
		return models.NewPortfolioRecord()
	}
	return p.record
}

func (p *stubPortfolio) Analysis(ctx context.Context, identifier string) (*models.AssetRecord, bool) {
	if p.record == nil {
		return nil, false
	}
	rec, ok := p.record.Analysis[identifier]
	return rec, ok
}

func (p *stubPortfolio) AnalysisOrder(ctx context.Context) []string {
	if p.record == nil {
		return nil
	}
	return p.record.Order
}

func (p *stubPortfolio) Totals(ctx context.Context) models.PortfolioTotals { return p.totals }

func (p *stubPortfolio) Aggregates(ctx context.Context) *models.PortfolioAggregates {
	if p.agg == nil {
		return &models.PortfolioAggregates{}
	}
	return p.agg
}

func (p *stubPortfolio) SyncFromCloud(ctx context.Context) error { return p.syncErr }
func (p *stubPortfolio) Offline() bool                           { return p.offline }
func (p *stubPortfolio) Flush(ctx context.Context) error         { return nil }
func (p *stubPortfolio) Close() error                            { return nil }

type stubResolver struct {
	inFlight int64
}

func (r *stubResolver) Resolve(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	return nil, common.ErrAssetNotFound
}

func (r *stubResolver) InFlight() int64 { return r.inFlight }

type stubScorer struct {
	score  *models.FundamentalScore
	signal string
}

func (s *stubScorer) Score(record *models.AssetRecord) *models.FundamentalScore { return s.score }
func (s *stubScorer) SignalFor(record *models.AssetRecord) string               { return s.signal }

type stubChat struct {
	reply string
	err   error
	asked []string
}

func (c *stubChat) Ask(ctx context.Context, query string) (string, error) {
	c.asked = append(c.asked, query)
	return c.reply, c.err
}

type serverFixture struct {
	portfolio *stubPortfolio
	resolver  *stubResolver
	scorer    *stubScorer
	chat      *stubChat
	mux       *http.ServeMux
}

func newServerFixture() *serverFixture {
	f := &serverFixture{
		portfolio: &stubPortfolio{},
		resolver:  &stubResolver{},
		scorer:    &stubScorer{},
		chat:      &stubChat{reply: "ok"},
	}

	a := &app.App{
		Config:           common.NewDefaultConfig(),
		Logger:           common.NewSilentLogger(),
		Resolver:         f.resolver,
		Scorer:           f.scorer,
		PortfolioService: f.portfolio,
		ChatService:      f.chat,
		StartupTime:      time.Now(),
	}

	s := &Server{app: a, logger: a.Logger}
	f.mux = http.NewServeMux()
	s.registerRoutes(f.mux)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rr.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	f := newServerFixture()
	rr := f.do(t, http.MethodGet, "/api/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	decodeBody(t, rr, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["offline"] != false {
		t.Errorf("expected offline false, got %v", body["offline"])
	}
}

func TestHandleVersion(t *testing.T) {
	f := newServerFixture()
	rr := f.do(t, http.MethodGet, "/api/version", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	decodeBody(t, rr, &body)
	if body["version"] == "" {
		t.Error("expected a version string")
	}
}

func TestHandlePortfolioSummary(t *testing.T) {
	f := newServerFixture()
	f.portfolio.totals = models.PortfolioTotals{Invested: 10000, CurrentValue: 12000, PnL: 2000}
	f.portfolio.agg = &models.PortfolioAggregates{HealthScore: 72, TotalValue: 12000}

	rr := f.do(t, http.MethodGet, "/api/portfolio/summary", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Totals     models.PortfolioTotals     `json:"totals"`
		Aggregates models.PortfolioAggregates `json:"aggregates"`
		Offline    bool                       `json:"offline"`
	}
	decodeBody(t, rr, &body)
	if body.Totals.PnL != 2000 {
		t.Errorf("expected pnl 2000, got %v", body.Totals.PnL)
	}
	if body.Aggregates.HealthScore != 72 {
		t.Errorf("expected health 72, got %v", body.Aggregates.HealthScore)
	}
}

func TestHandlePortfolioSync_Offline(t *testing.T) {
	f := newServerFixture()
	f.portfolio.offline = true

	rr := f.do(t, http.MethodPost, "/api/portfolio/sync", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	decodeBody(t, rr, &body)
	if body["offline"] != true {
		t.Errorf("expected offline true, got %v", body["offline"])
	}
}

func TestHandleAssetsAdd(t *testing.T) {
	f := newServerFixture()
	rr := f.do(t, http.MethodPost, "/api/assets", `{"identifiers":"reliance, goldbees"}`)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Accepted []string `json:"accepted"`
	}
	decodeBody(t, rr, &body)
	if len(body.Accepted) != 2 || body.Accepted[0] != "RELIANCE" || body.Accepted[1] != "GOLDBEES" {
		t.Errorf("unexpected accepted list: %v", body.Accepted)
	}
}

func TestHandleAssetsAdd_ValidationError(t *testing.T) {
	f := newServerFixture()
	f.portfolio.addErr = &common.ValidationError{Reason: "no valid identifiers"}

	rr := f.do(t, http.MethodPost, "/api/assets", `{"identifiers":",,,"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleAssetsAdd_WrongMethod(t *testing.T) {
	f := newServerFixture()
	rr := f.do(t, http.MethodGet, "/api/assets", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestHandleAssetGet(t *testing.T) {
	f := newServerFixture()
	f.portfolio.record = models.NewPortfolioRecord()
	f.portfolio.record.Analysis["RELIANCE"] = &models.AssetRecord{
		Identifier: "RELIANCE",
		Name:       "Reliance Industries",
		Price:      2875.50,
	}

	rr := f.do(t, http.MethodGet, "/api/assets/RELIANCE", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var rec models.AssetRecord
	decodeBody(t, rr, &rec)
	if rec.Price != 2875.50 {
		t.Errorf("expected price 2875.50, got %v", rec.Price)
	}

	rr = f.do(t, http.MethodGet, "/api/assets/UNKNOWN", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown asset, got %d", rr.Code)
	}
}

func TestHandleAssetRemove_NotFound(t *testing.T) {
	f := newServerFixture()
	f.portfolio.removeErr = &common.NotFoundError{Identifier: "TCS"}

	rr := f.do(t, http.MethodDelete, "/api/assets/TCS", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if len(f.portfolio.removed) != 1 || f.portfolio.removed[0] != "TCS" {
		t.Errorf("expected remove call for TCS, got %v", f.portfolio.removed)
	}
}

func TestHandleAssetHolding(t *testing.T) {
	f := newServerFixture()
	rr := f.do(t, http.MethodPut, "/api/assets/RELIANCE/holding", `{"qty":10,"avg":2500}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(f.portfolio.updated) != 1 {
		t.Fatalf("expected one update call, got %d", len(f.portfolio.updated))
	}

	rr = f.do(t, http.MethodPost, "/api/assets/RELIANCE/holding", `{"qty":10}`)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", rr.Code)
	}
}

func TestHandleAssetResolve(t *testing.T) {
	f := newServerFixture()
	f.portfolio.resolved = &models.AssetRecord{Identifier: "RELIANCE", Price: 2875.50, Source: "screener"}

	rr := f.do(t, http.MethodPost, "/api/assets/RELIANCE/resolve", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var rec models.AssetRecord
	decodeBody(t, rr, &rec)
	if rec.Source != "screener" {
		t.Errorf("expected source screener, got %q", rec.Source)
	}
}

func TestHandleAssetResolve_NotFound(t *testing.T) {
	f := newServerFixture()
	f.portfolio.resolveErr = &common.NotFoundError{Identifier: "NOPE"}

	rr := f.do(t, http.MethodPost, "/api/assets/NOPE/resolve", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHandleAssetScore(t *testing.T) {
	f := newServerFixture()
	f.portfolio.record = models.NewPortfolioRecord()
	f.portfolio.record.Analysis["RELIANCE"] = &models.AssetRecord{
		Identifier:   "RELIANCE",
		Kind:         models.AssetKindStock,
		Fundamentals: &models.Fundamentals{PE: 25, ROE: 18},
	}
	f.scorer.score = &models.FundamentalScore{Total: 72, Industry: "ENERGY"}

	rr := f.do(t, http.MethodGet, "/api/assets/RELIANCE/score", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var score models.FundamentalScore
	decodeBody(t, rr, &score)
	if score.Total != 72 {
		t.Errorf("expected total 72, got %v", score.Total)
	}
}

func TestHandleAssetScore_Unscoreable(t *testing.T) {
	f := newServerFixture()
	f.portfolio.record = models.NewPortfolioRecord()
	f.portfolio.record.Analysis["GOLDBEES"] = &models.AssetRecord{
		Identifier: "GOLDBEES",
		Kind:       models.AssetKindETF,
	}

	rr := f.do(t, http.MethodGet, "/api/assets/GOLDBEES/score", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestHandleChat(t *testing.T) {
	f := newServerFixture()
	f.chat.reply = "Your portfolio health is 72/99."

	rr := f.do(t, http.MethodPost, "/api/chat", `{"query":"how is my portfolio"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	decodeBody(t, rr, &body)
	if body["reply"] != "Your portfolio health is 72/99." {
		t.Errorf("unexpected reply: %q", body["reply"])
	}
	if len(f.chat.asked) != 1 || f.chat.asked[0] != "how is my portfolio" {
		t.Errorf("expected query forwarded, got %v", f.chat.asked)
	}
}

func TestHandleChat_EmptyQuery(t *testing.T) {
	f := newServerFixture()
	rr := f.do(t, http.MethodPost, "/api/chat", `{"query":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleResolverStatus(t *testing.T) {
	f := newServerFixture()
	f.resolver.inFlight = 3

	rr := f.do(t, http.MethodGet, "/api/resolver/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]float64
	decodeBody(t, rr, &body)
	if body["in_flight"] != 3 {
		t.Errorf("expected in_flight 3, got %v", body["in_flight"])
	}
}

func TestRouteAssets_UnknownAction(t *testing.T) {
	f := newServerFixture()
	rr := f.do(t, http.MethodGet, "/api/assets/RELIANCE/history", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
