package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	BaseCurrency       string
	JWTSecret          string // empty disables bearer auth
	AllowedOrigins     []string
	MaxUploadSizeBytes int64

	CacheExpiration      time.Duration
	CacheCleanupInterval time.Duration

	PriceRequestInterval time.Duration
	PriceHTTPTimeout     time.Duration
	PriceBaseURL         string
	BenchmarkProxies     map[string]string

	RateLimitInterval time.Duration
	RateLimitBurst    int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set. API endpoints are served without authentication.")
	} else if len(jwtSecret) < 32 {
		log.Fatalf("FATAL: JWT_SECRET must be at least 32 bytes long. Current length: %d", len(jwtSecret))
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./perfolio.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		BaseCurrency:       strings.ToUpper(getEnv("BASE_CURRENCY", "CAD")),
		JWTSecret:          jwtSecret,
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		CacheExpiration:      getEnvAsDuration("CACHE_EXPIRATION", 15*time.Minute),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		PriceRequestInterval: getEnvAsDuration("PRICE_REQUEST_INTERVAL", 250*time.Millisecond),
		PriceHTTPTimeout:     getEnvAsDuration("PRICE_HTTP_TIMEOUT", 20*time.Second),
		PriceBaseURL:         getEnv("PRICE_BASE_URL", "https://query2.finance.yahoo.com"),
		BenchmarkProxies:     ParseProxyMap(getEnv("BENCHMARK_PROXIES", "XEQT.TO:VTI")),

		RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", time.Second),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 20),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BaseCurrency=%s, AuthEnabled=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.BaseCurrency, Cfg.JWTSecret != "")
}

// ParseProxyMap reads "SYMBOL:PROXY" pairs separated by commas. Malformed
// pairs are skipped with a log line.
func ParseProxyMap(raw string) map[string]string {
	proxies := make(map[string]string)
	for _, pair := range splitList(raw) {
		symbol, proxy, ok := strings.Cut(pair, ":")
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		proxy = strings.ToUpper(strings.TrimSpace(proxy))
		if !ok || symbol == "" || proxy == "" {
			log.Printf("WARNING: Ignoring malformed benchmark proxy entry '%s'", pair)
			continue
		}
		proxies[symbol] = proxy
	}
	return proxies
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
