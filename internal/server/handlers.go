package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/finanalyse/finanalyse/internal/models"
)

// writeServiceError maps service-layer errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrUnavailable):
		WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// tickerParam extracts the ticker path segment, writing a 400 when absent.
func tickerParam(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	ticker := strings.TrimSpace(PathParam(r, prefix))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required in path")
		return "", false
	}
	return ticker, true
}

// --- News ---

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if s.app.NewsService.LiveEnabled() {
		articles, err := s.app.NewsService.LiveArticles(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("Live news fetch failed")
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"articles": articles})
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		WriteError(w, http.StatusBadRequest, "Query parameter 'source' is required")
		return
	}

	articles, err := s.app.NewsService.MockArticles(source)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"articles": articles})
}

// --- Market data ---

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := tickerParam(w, r, "/api/entreprise/")
	if !ok {
		return
	}

	snapshot, err := s.app.MarketService.GetSnapshot(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The comment generator degrades to a fixed sentence on any fault, so
	// the snapshot response never fails on account of the AI layer.
	snapshot.AnalysisComment = s.app.Comments.Comment(r.Context(), snapshot)

	WriteJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := tickerParam(w, r, "/api/historique/")
	if !ok {
		return
	}

	series, err := s.app.MarketService.GetHistory(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, series)
}

func (s *Server) handleAdvancedMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := tickerParam(w, r, "/api/advanced-metrics/")
	if !ok {
		return
	}

	metrics, err := s.app.MarketService.GetAdvancedMetrics(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleDividends(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := tickerParam(w, r, "/api/dividends/")
	if !ok {
		return
	}

	report, err := s.app.MarketService.GetDividends(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleScreener(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	filter := models.ScreenerFilter{
		Sector: r.URL.Query().Get("sector"),
	}

	if raw := r.URL.Query().Get("pe_max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid pe_max value")
			return
		}
		filter.PEMax = &v
	}

	if raw := r.URL.Query().Get("dividend_min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid dividend_min value")
			return
		}
		filter.DividendMin = &v
	}

	results := s.app.MarketService.Screen(r.Context(), filter)
	WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// --- Chat ---

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Message = strings.TrimSpace(req.Message)
	if req.SessionID == "" {
		WriteError(w, http.StatusBadRequest, "Field 'session_id' is required")
		return
	}
	if req.Message == "" {
		WriteError(w, http.StatusBadRequest, "Field 'message' is required")
		return
	}

	reply, err := s.app.ChatService.SendMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, chatResponse{Response: reply})
}
