package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trade-analytics-go/internal/analytics"
	"trade-analytics-go/internal/trades"

	"go.uber.org/zap"
)

// supportedExtensions are the export formats the parser accepts, used when
// scanning the upload directory for the most recent file.
var supportedExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".xlsx": true,
	".xls":  true,
}

// AnalyticsHandler holds dependencies for the trade analytics endpoints.
type AnalyticsHandler struct {
	log       *zap.Logger
	parser    *trades.Parser
	uploadDir string
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(log *zap.Logger, parser *trades.Parser, uploadDir string) *AnalyticsHandler {
	return &AnalyticsHandler{log: log, parser: parser, uploadDir: uploadDir}
}

// UploadTradesHandler receives a terminal export, stores it in the upload
// directory, and parses it to report the trade count.
func (h *AnalyticsHandler) UploadTradesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	parsed, err := h.parser.Normalize(data, header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.log.Error("Could not create upload directory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	path := filepath.Join(h.uploadDir, filepath.Base(header.Filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.log.Error("Could not store upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"trades_count": len(parsed),
		"file_path":    path,
		"message":      "trade history loaded successfully",
	})
}

// loadLatest parses the most recently modified export in the upload
// directory. Directory discovery is a service-layer convenience; the
// parser itself always receives explicit bytes.
func (h *AnalyticsHandler) loadLatest() ([]trades.Trade, error) {
	entries, err := os.ReadDir(h.uploadDir)
	if err != nil {
		return nil, os.ErrNotExist
	}

	var latestPath string
	var latestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latestPath == "" || info.ModTime().After(latestMod) {
			latestPath = filepath.Join(h.uploadDir, entry.Name())
			latestMod = info.ModTime()
		}
	}
	if latestPath == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(latestPath)
	if err != nil {
		return nil, err
	}
	return h.parser.Normalize(data, latestPath)
}

// loadLatestOrFail wraps loadLatest with the shared error responses.
func (h *AnalyticsHandler) loadLatestOrFail(w http.ResponseWriter) ([]trades.Trade, bool) {
	ts, err := h.loadLatest()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "no trade history uploaded yet")
			return nil, false
		}
		h.log.Error("Failed to load trade history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return ts, true
}

// TradesHandler returns the normalized trade list with optional filters
// and pagination.
func (h *AnalyticsHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadLatestOrFail(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	if symbol := q.Get("symbol"); symbol != "" {
		ts = filterTrades(ts, func(t trades.Trade) bool { return t.Symbol == symbol })
	}
	if status := q.Get("status"); status != "" {
		ts = filterTrades(ts, func(t trades.Trade) bool { return t.Status == status })
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset > 0 {
		if offset > len(ts) {
			offset = len(ts)
		}
		ts = ts[offset:]
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit >= 0 && limit < len(ts) {
			ts = ts[:limit]
		}
	}

	writeJSON(w, http.StatusOK, ts)
}

// SummaryHandler returns the full analytics report.
func (h *AnalyticsHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadLatestOrFail(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.Compute(ts))
}

// FilterHandler returns trades matching multiple criteria, echoing the
// applied filters.
func (h *AnalyticsHandler) FilterHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadLatestOrFail(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	symbol := q.Get("symbol")
	status := q.Get("status")
	dateFrom := q.Get("date_from")
	dateTo := q.Get("date_to")
	minProfitStr := q.Get("min_profit")
	maxProfitStr := q.Get("max_profit")

	if symbol != "" {
		ts = filterTrades(ts, func(t trades.Trade) bool { return t.Symbol == symbol })
	}
	if status != "" {
		ts = filterTrades(ts, func(t trades.Trade) bool { return t.Status == status })
	}
	if from, err := parseDateParam(dateFrom); err == nil {
		ts = filterTrades(ts, func(t trades.Trade) bool { return !t.OpenTime.Before(from) })
	}
	if to, err := parseDateParam(dateTo); err == nil {
		ts = filterTrades(ts, func(t trades.Trade) bool { return !t.OpenTime.After(to) })
	}
	if min, err := strconv.ParseFloat(minProfitStr, 64); err == nil {
		ts = filterTrades(ts, func(t trades.Trade) bool { return t.ProfitUSD >= min })
	}
	if max, err := strconv.ParseFloat(maxProfitStr, 64); err == nil {
		ts = filterTrades(ts, func(t trades.Trade) bool { return t.ProfitUSD <= max })
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filters_applied": map[string]string{
			"symbol":     symbol,
			"status":     status,
			"date_from":  dateFrom,
			"date_to":    dateTo,
			"min_profit": minProfitStr,
			"max_profit": maxProfitStr,
		},
		"results_count": len(ts),
		"trades":        ts,
	})
}

// TimeseriesHandler returns the equity curve for charting.
func (h *AnalyticsHandler) TimeseriesHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadLatestOrFail(w)
	if !ok {
		return
	}
	report := analytics.Compute(ts)

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "equity"
	}
	groupBy := r.URL.Query().Get("groupby")
	if groupBy == "" {
		groupBy = "day"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"metric":  metric,
		"groupby": groupBy,
		"dates":   report.EquityDates,
		"values":  report.EquityCurve,
	})
}

// BySymbolHandler returns the per-symbol breakdown.
func (h *AnalyticsHandler) BySymbolHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadLatestOrFail(w)
	if !ok {
		return
	}
	report := analytics.Compute(ts)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":       report.SymbolStats,
		"total_symbols": len(report.SymbolStats),
	})
}

// HourlyHeatmapHandler returns profitability by hour of day.
func (h *AnalyticsHandler) HourlyHeatmapHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadLatestOrFail(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.HourlyHeatmap(ts))
}

// DailyStatsHandler returns the daily series.
func (h *AnalyticsHandler) DailyStatsHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadLatestOrFail(w)
	if !ok {
		return
	}
	report := analytics.Compute(ts)
	writeJSON(w, http.StatusOK, map[string]interface{}{"daily_stats": report.DailyStats})
}

// MonthlyStatsHandler returns the monthly series.
func (h *AnalyticsHandler) MonthlyStatsHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadLatestOrFail(w)
	if !ok {
		return
	}
	report := analytics.Compute(ts)
	writeJSON(w, http.StatusOK, map[string]interface{}{"monthly_stats": report.MonthlyStats})
}

func filterTrades(ts []trades.Trade, keep func(trades.Trade) bool) []trades.Trade {
	out := ts[:0:0]
	for _, t := range ts {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func parseDateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
