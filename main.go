package main

import (
	"context"
	"encoding/json"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/config"
	"github.com/username/perfolio/src/database"
	"github.com/username/perfolio/src/handlers"
	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/model"
	"github.com/username/perfolio/src/processors"
	"github.com/username/perfolio/src/security"
	"github.com/username/perfolio/src/services"
	"golang.org/x/time/rate"
)

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.FromContext(r.Context()).Warn("Rate limit exceeded",
					"method", r.Method,
					"path", r.URL.Path,
					"remoteAddr", r.RemoteAddr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func enableCORS(allowed []string) func(http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		allowedOrigins[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, X-Request-ID, If-None-Match")
				w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID")
			} else if origin == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			if r.Method == http.MethodOptions {
				logger.FromContext(r.Context()).Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func seedBenchmarkProxies(ctx context.Context, proxies map[string]string) {
	for symbol, proxy := range proxies {
		if err := model.UpsertProxy(ctx, database.DB, symbol, proxy); err != nil {
			logger.L.Error("Failed to store benchmark proxy", "symbol", symbol, "proxy", proxy, "error", err)
			continue
		}
		logger.L.Info("Benchmark proxy configured", "symbol", symbol, "proxy", proxy)
	}
}

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Perfolio backend server starting...", "baseCurrency", config.Cfg.BaseCurrency)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	defer database.DB.Close()
	logger.L.Info("Database initialized successfully.")
	seedBenchmarkProxies(context.Background(), config.Cfg.BenchmarkProxies)

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(config.Cfg.CacheExpiration, config.Cfg.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	classifier := processors.NewTransactionClassifier()
	attributionCalculator := processors.NewAttributionCalculator(classifier)
	sankeyAssembler := processors.NewSankeyAssembler()
	cashFlowProcessor := processors.NewCashFlowProcessor(classifier)
	replicator := processors.NewBenchmarkReplicator()

	holdingsService := services.NewHoldingsService(database.DB, config.Cfg.BaseCurrency)
	performanceService := services.NewPerformanceService(database.DB, config.Cfg.BaseCurrency, attributionCalculator, sankeyAssembler, reportCache)
	priceService := services.NewPriceService(database.DB, services.PriceServiceOptions{
		BaseURL:         config.Cfg.PriceBaseURL,
		HTTPTimeout:     config.Cfg.PriceHTTPTimeout,
		RequestInterval: config.Cfg.PriceRequestInterval,
	}, reportCache)
	benchmarkService := services.NewBenchmarkService(database.DB, config.Cfg.BaseCurrency, priceService, cashFlowProcessor, replicator)
	importService := services.NewImportService(database.DB, performanceService.(services.CacheInvalidator))

	holdingsHandler := handlers.NewHoldingsHandler(holdingsService)
	performanceHandler := handlers.NewPerformanceHandler(performanceService)
	benchmarkHandler := handlers.NewBenchmarkHandler(benchmarkService)
	importHandler := handlers.NewImportHandler(importService, config.Cfg.MaxUploadSizeBytes)

	var authService *security.AuthService
	if config.Cfg.JWTSecret != "" {
		authService = security.NewAuthService(config.Cfg.JWTSecret)
		logger.L.Info("Bearer token authentication enabled")
	}
	requireAuth := handlers.AuthMiddleware(authService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/fx-rates", holdingsHandler.HandleGetFxRates)
	apiRouter.HandleFunc("POST /api/holdings/sankey-columns", holdingsHandler.HandleGetSankeyColumns)
	apiRouter.HandleFunc("POST /api/holdings/sankey", holdingsHandler.HandleGetHoldingsSankey)
	apiRouter.HandleFunc("POST /api/holdings/available-dates", holdingsHandler.HandleGetAvailableDates)
	apiRouter.HandleFunc("POST /api/performance/attribution-sankey", performanceHandler.HandleGetAttributionSankey)
	apiRouter.HandleFunc("GET /api/performance/sankey-levels", performanceHandler.HandleGetSankeyLevels)
	apiRouter.HandleFunc("POST /api/benchmark/performance", benchmarkHandler.HandleGetBenchmarkPerformance)
	apiRouter.HandleFunc("POST /api/warehouse/import", importHandler.HandleImport)

	rootMux.Handle("/api/", requireAuth(apiRouter))

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Perfolio Backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.FromContext(r.Context()).Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	limiter := rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)
	finalHandler := handlers.RequestIDMiddleware(
		enableCORS(config.Cfg.AllowedOrigins)(
			rateLimitMiddleware(limiter)(rootMux)))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("Failed to start server", "error", err)
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logger.L.Info("Shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
		return
	}
	logger.L.Info("Server stopped gracefully.")
}
