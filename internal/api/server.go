// Package api exposes the radar's operational HTTP surface: scraper
// lifecycle control, manual tick triggers, alert CRUD, and token reads.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"token-radar/internal/core"
	"token-radar/internal/scraper"
	"token-radar/internal/store"
)

// Server wires the HTTP handlers to the scraper and stores.
type Server struct {
	ingestor  *scraper.Ingestor
	sweeper   *scraper.Sweeper
	ingestSch *scraper.Scheduler
	sweepSch  *scraper.Scheduler
	alerts    store.AlertStore
	tokens    store.TokenStore

	triggerTimeout time.Duration
}

// NewServer creates the operational API server.
func NewServer(ingestor *scraper.Ingestor, sweeper *scraper.Sweeper,
	ingestSch, sweepSch *scraper.Scheduler,
	alerts store.AlertStore, tokens store.TokenStore) *Server {
	return &Server{
		ingestor:       ingestor,
		sweeper:        sweeper,
		ingestSch:      ingestSch,
		sweepSch:       sweepSch,
		alerts:         alerts,
		tokens:         tokens,
		triggerTimeout: 2 * time.Minute,
	}
}

// Handler builds the route mux. More-specific prefixes must be registered
// before the catch-all /api/alerts/.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/scraper/start", cors(s.handleScraperStart))
	mux.HandleFunc("/api/scraper/stop", cors(s.handleScraperStop))
	mux.HandleFunc("/api/scraper/status", cors(s.handleScraperStatus))
	mux.HandleFunc("/api/scraper/run", cors(s.handleScraperRun))

	mux.HandleFunc("/api/alerts/check", cors(s.handleAlertsCheck))
	mux.HandleFunc("/api/alerts/", cors(s.handleAlertByID))
	mux.HandleFunc("/api/alerts", cors(s.handleAlerts))

	mux.HandleFunc("/api/tokens/bonded", cors(s.handleTokensBonded))
	mux.HandleFunc("/api/tokens", cors(s.handleTokens))

	return mux
}

// cors is the CORS middleware for dashboard callers.
func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": msg,
	})
}

// --- scraper lifecycle ---

func (s *Server) handleScraperStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	started := s.ingestSch.Start()
	s.sweepSch.Start()

	msg := "Continuous scraping started successfully"
	if !started {
		msg = "Scraper is already running"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": msg,
	})
}

func (s *Server) handleScraperStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stopped := s.ingestSch.Stop()
	s.sweepSch.Stop()

	msg := "Continuous scraping stopped successfully"
	if !stopped {
		msg = "Scraper was not running"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": msg,
	})
}

func (s *Server) handleScraperStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"ingestion": s.ingestSch.Status(),
		"sweep":     s.sweepSch.Status(),
	})
}

// handleScraperRun triggers one ingestion cycle synchronously. Failures come
// back as a structured result so operational tooling can alert on them.
func (s *Server) handleScraperRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.triggerTimeout)
	defer cancel()

	log.Println("🔍 Manual ingestion triggered...")
	result, err := s.ingestor.RunOnce(ctx)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"success": false,
			"message": fmt.Sprintf("Ingestion failed: %v", err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Ingestion completed successfully",
		"result":  result,
	})
}

// handleAlertsCheck triggers one alert sweep synchronously.
func (s *Server) handleAlertsCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.triggerTimeout)
	defer cancel()

	log.Println("🔔 Manual alert check triggered...")
	result, err := s.sweeper.RunOnce(ctx)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"success": false,
			"message": fmt.Sprintf("Alert check failed: %v", err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Alert check completed successfully",
		"result":  result,
	})
}

// --- alerts CRUD ---

type createAlertRequest struct {
	UserID      string  `json:"userId"`
	TokenID     string  `json:"tokenId"`
	TokenName   string  `json:"tokenName"`
	TokenSymbol string  `json:"tokenSymbol"`
	AlertType   string  `json:"alertType"`
	Condition   string  `json:"condition"`
	Threshold   float64 `json:"threshold"`
	Timeframe   string  `json:"timeframe,omitempty"`
}

type alertResponse struct {
	ID                  int64      `json:"id"`
	UserID              string     `json:"userId"`
	TokenID             string     `json:"tokenId"`
	TokenName           string     `json:"tokenName"`
	TokenSymbol         string     `json:"tokenSymbol"`
	AlertType           string     `json:"alertType"`
	Condition           string     `json:"condition"`
	Threshold           float64    `json:"threshold"`
	Timeframe           string     `json:"timeframe,omitempty"`
	IsActive            bool       `json:"isActive"`
	IsTriggered         bool       `json:"isTriggered"`
	TriggeredAt         *time.Time `json:"triggeredAt,omitempty"`
	TriggeredPrice      *float64   `json:"triggeredPrice,omitempty"`
	TriggeredPercentage *float64   `json:"triggeredPercentage,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func toAlertResponse(a *core.Alert) alertResponse {
	return alertResponse{
		ID:                  a.ID,
		UserID:              a.UserID,
		TokenID:             a.TokenID,
		TokenName:           a.TokenName,
		TokenSymbol:         a.TokenSymbol,
		AlertType:           string(a.Type),
		Condition:           string(a.Condition),
		Threshold:           a.Threshold,
		Timeframe:           string(a.Timeframe),
		IsActive:            a.IsActive,
		IsTriggered:         a.IsTriggered,
		TriggeredAt:         a.TriggeredAt,
		TriggeredPrice:      a.TriggeredPrice,
		TriggeredPercentage: a.TriggeredPercentage,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAlerts(w, r)
	case http.MethodPost:
		s.createAlert(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AlertFilter{
		UserID: q.Get("user"),
		Type:   core.AlertType(q.Get("type")),
	}
	if v := q.Get("active"); v != "" {
		b := v == "true"
		filter.IsActive = &b
	}
	if v := q.Get("triggered"); v != "" {
		b := v == "true"
		filter.IsTriggered = &b
	}

	alerts, err := s.alerts.List(r.Context(), filter)
	if err != nil {
		log.Printf("❌ Error fetching alerts: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	data := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		data = append(data, toAlertResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

func (s *Server) createAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID == "" || req.TokenID == "" || req.AlertType == "" || req.Condition == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	alert := &core.Alert{
		UserID:      req.UserID,
		TokenID:     req.TokenID,
		TokenName:   req.TokenName,
		TokenSymbol: req.TokenSymbol,
		Type:        core.AlertType(req.AlertType),
		Condition:   core.AlertCondition(req.Condition),
		Threshold:   req.Threshold,
		Timeframe:   core.Timeframe(req.Timeframe),
	}
	if err := alert.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.alerts.Create(r.Context(), alert); err != nil {
		if errors.Is(err, store.ErrDuplicateAlert) {
			writeError(w, http.StatusConflict, "Similar alert already exists")
			return
		}
		log.Printf("❌ Error creating alert: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    toAlertResponse(alert),
		"message": "Alert created successfully",
	})
}

type updateAlertRequest struct {
	Threshold *float64 `json:"threshold,omitempty"`
	IsActive  *bool    `json:"isActive,omitempty"`
}

func (s *Server) handleAlertByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid alert id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		alert, err := s.alerts.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Alert not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    toAlertResponse(alert),
		})

	case http.MethodPatch:
		var req updateAlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Threshold != nil && *req.Threshold < 0 {
			writeError(w, http.StatusBadRequest, "Threshold must be non-negative")
			return
		}
		err := s.alerts.Update(r.Context(), id, store.AlertUpdate{
			Threshold: req.Threshold,
			IsActive:  req.IsActive,
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Alert not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Alert updated successfully",
		})

	case http.MethodDelete:
		if err := s.alerts.Delete(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Alert not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Alert deleted successfully",
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// --- token reads ---

type tokenResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Symbol            string     `json:"symbol"`
	MarketCap         string     `json:"marketCap"`
	MarketCapUsd      float64    `json:"marketCapUsd"`
	PriceUsd          float64    `json:"priceUsd"`
	Bonded            bool       `json:"bonded"`
	BondedPercentage  int        `json:"bondedPercentage"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	FiveMin           *float64   `json:"fiveMin,omitempty"`
	OneHour           *float64   `json:"oneHour,omitempty"`
	SixHour           *float64   `json:"sixHour,omitempty"`
	TwentyFourHour    *float64   `json:"twentyFourHour,omitempty"`
	SevenDay          *float64   `json:"sevenDay,omitempty"`
	ScrapedAt         time.Time  `json:"scrapedAt"`
}

func toTokenResponse(t *core.TokenSnapshot) tokenResponse {
	resp := tokenResponse{
		ID:               t.Mint,
		Name:             t.Name,
		Symbol:           t.Symbol,
		MarketCap:        core.FormatMarketCap(t.MarketCapUsd),
		MarketCapUsd:     t.MarketCapUsd,
		PriceUsd:         t.PriceUsd,
		Bonded:           t.BondingComplete,
		BondedPercentage: t.BondingPercentage,
		FiveMin:          t.Change5m,
		OneHour:          t.Change1h,
		SixHour:          t.Change6h,
		TwentyFourHour:   t.Change24h,
		SevenDay:         t.Change7d,
		ScrapedAt:        t.ScrapedAt,
	}
	if !t.CreatedAt.IsZero() {
		c := t.CreatedAt
		resp.CreatedAt = &c
	}
	return resp
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	s.listTokens(w, r, s.tokens.List)
}

func (s *Server) handleTokensBonded(w http.ResponseWriter, r *http.Request) {
	s.listTokens(w, r, s.tokens.ListBonded)
}

func (s *Server) listTokens(w http.ResponseWriter, r *http.Request,
	load func(context.Context, int) ([]*core.TokenSnapshot, error)) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	tokens, err := load(r.Context(), limit)
	if err != nil {
		log.Printf("❌ Error fetching tokens: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	data := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		data = append(data, toTokenResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
		"total":   len(data),
	})
}
