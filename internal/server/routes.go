package server

import (
	"net/http"

	"github.com/finanalyse/finanalyse/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// News
	mux.HandleFunc("/api/news", s.handleNews)

	// Market data
	mux.HandleFunc("/api/entreprise/", s.handleCompany)
	mux.HandleFunc("/api/historique/", s.handleHistory)
	mux.HandleFunc("/api/advanced-metrics/", s.handleAdvancedMetrics)
	mux.HandleFunc("/api/dividends/", s.handleDividends)
	mux.HandleFunc("/api/screener", s.handleScreener)

	// Chat
	mux.HandleFunc("/api/chat", s.handleChat)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
