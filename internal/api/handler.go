package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"StockScout/internal/fetcher"
	"StockScout/internal/market"
	"StockScout/internal/model"
	"StockScout/internal/pipeline"
	"StockScout/internal/recorder"
)

// Version is stamped into health responses.
const Version = "1.2.0"

// Handler exposes the analysis pipeline over HTTP.
type Handler struct {
	Pipeline  *pipeline.Pipeline
	Recorder  recorder.Recorder
	Watchlist []string
	started   time.Time
}

// NewHandler creates the HTTP handler.
func NewHandler(p *pipeline.Pipeline, rec recorder.Recorder, watchlist []string) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{Pipeline: p, Recorder: rec, Watchlist: watchlist, started: time.Now()}
}

// Routes mounts all API endpoints onto a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", h.handleAnalyze)
	mux.HandleFunc("/api/quote/", h.handleQuote)
	mux.HandleFunc("/api/markets", h.handleMarkets)
	mux.HandleFunc("/api/health", h.handleHealth)
	return mux
}

// handleAnalyze runs the batch pipeline for the requested stocks (or the
// configured watchlist when the body lists none) and returns one ordered slot
// per stock.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	codes := req.Stocks
	if len(codes) == 0 && req.Code == "" {
		codes = h.Watchlist
	}
	if len(codes) == 0 && req.Code == "" {
		h.sendError(w, "no stocks requested and no watchlist configured", http.StatusBadRequest)
		return
	}

	p := *h.Pipeline
	if req.Days > 0 {
		p.WindowDays = req.Days
	}

	// The single-code form answers with the bare result, not a batch.
	if req.Code != "" && len(codes) == 0 {
		out := p.RunOne(r.Context(), req.Code)
		if !out.OK() {
			h.sendError(w, out.Err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if err := h.Recorder.RecordResult(out.Result); err != nil {
			log.Printf("[WARN] record result %s: %v", out.Code, err)
		}
		h.sendJSON(w, out.Result)
		return
	}

	outcomes := p.RunMany(r.Context(), codes)
	data := AnalyzeData{
		Results: make([]AnalyzeSlot, 0, len(outcomes)),
		Review:  pipeline.MarketReview(outcomes),
	}
	for _, o := range outcomes {
		slot := AnalyzeSlot{Code: o.Code, OK: o.OK()}
		if o.OK() {
			slot.Result = o.Result
			if err := h.Recorder.RecordResult(o.Result); err != nil {
				log.Printf("[WARN] record result %s: %v", o.Code, err)
			}
		} else {
			slot.Stage = string(o.Err.Stage)
			slot.Reason = o.Err.Reason.Error()
		}
		data.Results = append(data.Results, slot)
	}
	h.sendJSON(w, data)
}

// handleQuote fetches the latest bar for one code without running the scorer.
func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/api/quote/")
	if raw == "" {
		h.sendError(w, "missing stock code", http.StatusBadRequest)
		return
	}

	id, err := market.Resolve(raw)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	series, err := h.fetch(r, id)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if series.Len() == 0 {
		h.sendError(w, fetcher.ErrEmptySeries.Error(), http.StatusBadGateway)
		return
	}
	latest := series.Points[len(series.Points)-1]
	data := QuoteData{
		Code:      series.Code,
		Name:      series.Name,
		Market:    string(series.Market),
		Close:     latest.Close,
		PctChange: latest.PctChange,
		Date:      latest.Date.Format("2006-01-02"),
	}
	// US quotes can be fresher than the last daily bar; prefer the intraday
	// price when the source offers one. Failures keep the series values.
	if series.Market == model.MarketUS {
		if q, ok := h.Pipeline.US.(fetcher.Quoter); ok {
			if price, pct, err := q.Quote(series.Code); err == nil && price > 0 {
				data.Close = price
				data.PctChange = pct
			} else if err != nil {
				log.Printf("[WARN] intraday quote %s: %v", series.Code, err)
			}
		}
	}
	h.sendJSON(w, data)
}

func (h *Handler) fetch(r *http.Request, id model.Identifier) (*model.DataSeries, error) {
	// A short window is enough for a quote; the scorer never sees it.
	days := 10
	switch id.Market {
	case model.MarketUS:
		return h.Pipeline.US.FetchDaily(r.Context(), id.Code, days)
	default:
		series, err := h.Pipeline.TW.FetchDaily(r.Context(), id.Code, days)
		if err != nil && id.Market == model.MarketAuto {
			return h.Pipeline.US.FetchDaily(r.Context(), id.Code, days)
		}
		return series, err
	}
}

func (h *Handler) handleMarkets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.sendJSON(w, []MarketInfo{
		{ID: string(model.MarketTW), Name: "台股", CodePattern: "4-6 碼數字，可帶 .TW/.TWO 後綴", Example: "2330.TW"},
		{ID: string(model.MarketUS), Name: "美股", CodePattern: "1-5 個英文字母", Example: "AAPL"},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, HealthData{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) sendJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(Envelope{Success: true, Data: data}); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func (h *Handler) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(Envelope{Success: false, Error: message}); err != nil {
		log.Printf("[ERROR] encode error response: %v", err)
	}
}
