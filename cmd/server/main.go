package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"trade-analytics-go/internal/auth"
	"trade-analytics-go/internal/config"
	"trade-analytics-go/internal/database"
	"trade-analytics-go/internal/email"
	"trade-analytics-go/internal/logger"
	"trade-analytics-go/internal/trades"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Outbound email is optional; without it verification and reset
	// emails are skipped but the service still runs.
	mailer, err := email.NewMailer(&cfg.Email, log)
	if err != nil {
		log.Warn("Email delivery disabled", zap.Error(err))
		mailer = nil
	}

	tokens := auth.NewTokenIssuer(&cfg.Auth)
	authService := auth.NewService(db, log, tokens, mailer, &cfg.Auth)

	// Sweep expired sessions in the background.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := authService.CleanupExpiredSessions(); err != nil {
				log.Error("Session cleanup failed", zap.Error(err))
			}
		}
	}()

	parser := trades.NewParser(log)
	analyticsHandler := NewAnalyticsHandler(log, parser, cfg.Uploads.Dir)

	loginLimiter := rate.NewLimiter(rate.Limit(cfg.Server.LoginRateLimit), cfg.Server.LoginRateBurst)
	authHandler := NewAuthHandler(log, authService, loginLimiter)

	// Setup HTTP server
	mux := http.NewServeMux()

	// Auth endpoints
	mux.HandleFunc("/api/v1/auth/signup", authHandler.SignupHandler)
	mux.HandleFunc("/api/v1/auth/signin", authHandler.SigninHandler)
	mux.HandleFunc("/api/v1/auth/signout", authHandler.SignoutHandler)
	mux.HandleFunc("/api/v1/auth/session", authHandler.SessionHandler)
	mux.HandleFunc("/api/v1/auth/verify-email", authHandler.VerifyEmailHandler)
	mux.HandleFunc("/api/v1/auth/resend-verification", authHandler.ResendVerificationHandler)
	mux.HandleFunc("/api/v1/auth/forgot-password", authHandler.ForgotPasswordHandler)
	mux.HandleFunc("/api/v1/auth/reset-password", authHandler.ResetPasswordHandler)

	// Analytics endpoints, behind bearer auth
	protect := authHandler.RequireAuth
	mux.HandleFunc("/api/v1/analytics/upload-trades", protect(analyticsHandler.UploadTradesHandler))
	mux.HandleFunc("/api/v1/analytics/trades", protect(analyticsHandler.TradesHandler))
	mux.HandleFunc("/api/v1/analytics/summary", protect(analyticsHandler.SummaryHandler))
	mux.HandleFunc("/api/v1/analytics/filter", protect(analyticsHandler.FilterHandler))
	mux.HandleFunc("/api/v1/analytics/timeseries", protect(analyticsHandler.TimeseriesHandler))
	mux.HandleFunc("/api/v1/analytics/by-symbol", protect(analyticsHandler.BySymbolHandler))
	mux.HandleFunc("/api/v1/analytics/hourly-heatmap", protect(analyticsHandler.HourlyHeatmapHandler))
	mux.HandleFunc("/api/v1/analytics/daily-stats", protect(analyticsHandler.DailyStatsHandler))
	mux.HandleFunc("/api/v1/analytics/monthly-stats", protect(analyticsHandler.MonthlyStatsHandler))

	// Health checks
	mux.HandleFunc("/", rootHandler)
	mux.HandleFunc("/health", healthHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"service": "Trade Analytics API",
		"version": "1.0.0",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "Trade Analytics",
		"version": "1.0.0",
	})
}
