package server

import (
	"net/http"
	"strings"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)

	// Portfolio
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/portfolio/summary", s.handlePortfolioSummary)
	mux.HandleFunc("/api/portfolio/sync", s.handlePortfolioSync)

	// Assets
	mux.HandleFunc("/api/assets", s.handleAssetsAdd)
	mux.HandleFunc("/api/assets/", s.routeAssets)

	// Conversational engine
	mux.HandleFunc("/api/chat", s.handleChat)

	// Resolver observability
	mux.HandleFunc("/api/resolver/status", s.handleResolverStatus)
}

// routeAssets dispatches /api/assets/{identifier}[/action] requests.
func (s *Server) routeAssets(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/assets/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)

	identifier := parts[0]
	if identifier == "" {
		WriteError(w, http.StatusBadRequest, "Asset identifier is required")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.handleAssetGet(w, r, identifier)
		case http.MethodDelete:
			s.handleAssetRemove(w, r, identifier)
		default:
			RequireMethod(w, r, http.MethodGet, http.MethodDelete)
		}
	case "holding":
		s.handleAssetHolding(w, r, identifier)
	case "resolve":
		s.handleAssetResolve(w, r, identifier)
	case "score":
		s.handleAssetScore(w, r, identifier)
	default:
		WriteError(w, http.StatusNotFound, "Unknown asset action: "+action)
	}
}
