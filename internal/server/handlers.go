package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/bobmcallan/stocksight/internal/common"
)

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"offline": s.app.PortfolioService.Offline(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleConfig handles GET /api/config with a redacted view.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":  cfg.Environment,
		"storage_path": cfg.Storage.Path,
		"save_delay":   cfg.Storage.GetSaveDelay().String(),
		"ledger":       cfg.Clients.Ledger.URL != "",
		"log_level":    cfg.Logging.Level,
	})
}

// handlePortfolio handles GET /api/portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, s.app.PortfolioService.Record(r.Context()))
}

// handlePortfolioSummary handles GET /api/portfolio/summary.
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"totals":     s.app.PortfolioService.Totals(ctx),
		"aggregates": s.app.PortfolioService.Aggregates(ctx),
		"offline":    s.app.PortfolioService.Offline(),
	})
}

// handlePortfolioSync handles POST /api/portfolio/sync.
func (s *Server) handlePortfolioSync(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.app.PortfolioService.SyncFromCloud(r.Context()); err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"offline": s.app.PortfolioService.Offline(),
	})
}

// handleAssetsAdd handles POST /api/assets.
func (s *Server) handleAssetsAdd(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Identifiers string `json:"identifiers"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	accepted, err := s.app.PortfolioService.AddAssets(r.Context(), req.Identifiers)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": accepted,
	})
}

// handleAssetGet returns the analysis record for one asset.
func (s *Server) handleAssetGet(w http.ResponseWriter, r *http.Request, identifier string) {
	record, ok := s.app.PortfolioService.Analysis(r.Context(), identifier)
	if !ok {
		WriteError(w, http.StatusNotFound, "No analysis for asset: "+identifier)
		return
	}
	WriteJSON(w, http.StatusOK, record)
}

// handleAssetRemove handles DELETE /api/assets/{identifier}.
func (s *Server) handleAssetRemove(w http.ResponseWriter, r *http.Request, identifier string) {
	if err := s.app.PortfolioService.RemoveAsset(r.Context(), identifier); err != nil {
		if errors.Is(err, common.ErrAssetNotFound) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleAssetHolding handles PUT /api/assets/{identifier}/holding.
func (s *Server) handleAssetHolding(w http.ResponseWriter, r *http.Request, identifier string) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	var req struct {
		Quantity    float64 `json:"qty"`
		AverageCost float64 `json:"avg"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := s.app.PortfolioService.UpdateHolding(r.Context(), identifier, req.Quantity, req.AverageCost); err != nil {
		if errors.Is(err, common.ErrAssetNotFound) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleAssetResolve handles POST /api/assets/{identifier}/resolve.
func (s *Server) handleAssetResolve(w http.ResponseWriter, r *http.Request, identifier string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	record, err := s.app.PortfolioService.ResolveAsset(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, common.ErrAssetNotFound) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, record)
}

// handleAssetScore handles GET /api/assets/{identifier}/score.
func (s *Server) handleAssetScore(w http.ResponseWriter, r *http.Request, identifier string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	record, ok := s.app.PortfolioService.Analysis(r.Context(), identifier)
	if !ok {
		WriteError(w, http.StatusNotFound, "No analysis for asset: "+identifier)
		return
	}

	score := s.app.Scorer.Score(record)
	if score == nil {
		WriteError(w, http.StatusUnprocessableEntity, "Asset has no scoreable fundamentals: "+identifier)
		return
	}
	WriteJSON(w, http.StatusOK, score)
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	reply, err := s.app.ChatService.Ask(r.Context(), req.Query)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// handleResolverStatus handles GET /api/resolver/status.
func (s *Server) handleResolverStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"in_flight": s.app.Resolver.InFlight(),
	})
}
