// Why this file: ./internal/server/server.go
// This is the REST surface over the pipeline: chat, weather, prices,
// forecast, schemes, health, connectivity, offline engine and keep-alive
// controls. Handlers are thin - they parse parameters, call the
// application, and write JSON. All answering logic lives in the pipeline.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/krishimitra-assistant/internal/app"
	"github.com/yourusername/krishimitra-assistant/models"
)

// Server serves the REST API.
type Server struct {
	app    *app.Application
	logger *zap.Logger
	http   *http.Server
}

// New creates the REST server.
func New(application *app.Application) *Server {
	s := &Server{app: application, logger: application.Logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chatbot", s.handleChatbot)
	mux.HandleFunc("GET /v1/weather", s.handleWeather)
	mux.HandleFunc("GET /v1/market/prices", s.handleMarketPrices)
	mux.HandleFunc("GET /v1/price-forecast/forecast", s.handlePriceForecast)
	mux.HandleFunc("GET /v1/price-forecast/crops", s.handleForecastCrops)
	mux.HandleFunc("GET /v1/price-forecast/states", s.handleForecastStates)
	mux.HandleFunc("GET /v1/schemes", s.handleSchemes)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/connectivity", s.handleConnectivity)
	mux.HandleFunc("GET /v1/offline/status", s.handleOfflineStatus)
	mux.HandleFunc("POST /v1/offline/initialize", s.handleOfflineInitialize)
	mux.HandleFunc("GET /v1/offline/search", s.handleOfflineSearch)
	mux.HandleFunc("GET /v1/keep-alive/status", s.handleKeepAliveStatus)
	mux.HandleFunc("POST /v1/keep-alive/ping", s.handleKeepAlivePing)

	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe() error {
	s.logger.Info("REST server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type chatRequest struct {
	Message  string   `json:"message"`
	Query    string   `json:"query"` // frontend alias for message
	Language string   `json:"language"`
	State    string   `json:"state"`
	Crop     string   `json:"crop"`
	Location string   `json:"location"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

type chatResponse struct {
	OK bool `json:"ok"`
	models.FinalResponse
	// Response mirrors Message for frontend compatibility
	Response string `json:"response"`
}

func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text := req.Message
	if text == "" {
		text = req.Query
	}
	if text == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	query := &models.Query{
		ID:   uuid.New().String(),
		Text: text,
		Context: models.UserContext{
			Crop:     req.Crop,
			Location: req.Location,
			State:    req.State,
			Language: req.Language,
			Lat:      req.Lat,
			Lng:      req.Lng,
		},
		Timestamp: time.Now(),
	}

	final := s.app.Answer(r.Context(), query)
	writeJSON(w, http.StatusOK, chatResponse{OK: true, FinalResponse: final, Response: final.Message})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")
	crop := q.Get("crop")

	var lat, lng *float64
	if v, err := strconv.ParseFloat(q.Get("lat"), 64); err == nil {
		lat = &v
	}
	if v, err := strconv.ParseFloat(q.Get("lng"), 64); err == nil {
		lng = &v
	}
	if location == "" && lat == nil {
		location = s.app.Config.App.DefaultLocation
	}

	result := s.app.Weather().GetWeather(r.Context(), location, lat, lng, crop)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	crop := q.Get("crop")
	if crop == "" {
		crop = "Potato"
	}
	result := s.app.Mandi().GetMandiPrice(r.Context(), crop, q.Get("state"))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePriceForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	crop, state := q.Get("crop"), q.Get("state")
	if crop == "" || state == "" {
		writeError(w, http.StatusBadRequest, "crop and state are required")
		return
	}
	result := s.app.Forecast().ForecastPrice(r.Context(), crop, state)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       !result.Failed(),
		"crop":     crop,
		"state":    state,
		"forecast": result,
	})
}

func (s *Server) handleForecastCrops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
		"crops": []string{
			"Potato", "Tomato", "Onion", "Wheat", "Rice", "Maize",
			"Cotton", "Sugarcane", "Groundnut", "Soybean", "Chilli",
		},
	})
}

func (s *Server) handleForecastStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
		"states": []string{
			"Punjab", "Haryana", "Uttar Pradesh", "Madhya Pradesh",
			"Maharashtra", "Karnataka", "Tamil Nadu", "Andhra Pradesh",
			"Gujarat", "Rajasthan", "West Bengal", "Bihar",
		},
	})
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	retriever := s.app.Retriever()
	if retriever == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"schemes": []interface{}{}})
		return
	}

	text, err := retriever.RetrieveContext(r.Context(), "list all government schemes", "govt_schemes", 10)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"schemes": []interface{}{}, "error": err.Error()})
		return
	}

	schemes := make([]map[string]string, 0, 10)
	for _, line := range splitNonTrivialLines(text, 10) {
		title := line
		if len(title) > 100 {
			title = title[:100]
		}
		schemes = append(schemes, map[string]string{
			"title":       title,
			"description": line,
			"category":    "Government Scheme",
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schemes": schemes})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"app":     s.app.Config.App.Name,
		"version": s.app.Config.App.Version,
		"online":  s.app.IsOnline(),
		"offline": s.app.OfflineStatus(),
	})
}

func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	online := s.app.IsOnline()
	mode := "offline"
	if online {
		mode = "online"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"online": online,
		"mode":   mode,
	})
}

func (s *Server) handleOfflineStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.OfflineStatus())
}

func (s *Server) handleOfflineInitialize(w http.ResponseWriter, r *http.Request) {
	err := s.app.WarmupOffline()
	status := s.app.OfflineStatus()
	resp := map[string]interface{}{
		"success": err == nil,
		"status":  status,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOfflineSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	topK := 3
	if v, err := strconv.Atoi(r.URL.Query().Get("top_k")); err == nil && v > 0 {
		topK = v
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"results": s.app.SearchOffline(q, topK),
	})
}

func (s *Server) handleKeepAliveStatus(w http.ResponseWriter, r *http.Request) {
	ka := s.app.KeepAlive()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":  ka.Running(),
		"interval": ka.Interval().String(),
		"services": ka.Services(),
	})
}

func (s *Server) handleKeepAlivePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": s.app.KeepAlive().Ping(r.Context()),
	})
}

func splitNonTrivialLines(text string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) <= 20 {
			continue
		}
		lines = append(lines, trimmed)
		if len(lines) >= limit {
			break
		}
	}
	return lines
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "error": message})
}
