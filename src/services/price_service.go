package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/model"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	ckPrices = "res_prices_%s_%s_%s"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
)

// yahooChartResponse is the subset of the v8 chart payload we read.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PriceServiceOptions configures the Yahoo Finance client.
type PriceServiceOptions struct {
	BaseURL         string
	HTTPTimeout     time.Duration
	RequestInterval time.Duration
}

// priceServiceImpl implements PriceService on the Yahoo Finance chart API.
// Outbound requests share one limiter; the crumb is fetched lazily.
type priceServiceImpl struct {
	db         *sql.DB
	httpClient http.Client
	baseURL    string
	limiter    *rate.Limiter
	priceCache *cache.Cache

	mu    sync.Mutex
	crumb string
}

func NewPriceService(db *sql.DB, opts PriceServiceOptions, priceCache *cache.Cache) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 20 * time.Second
	}
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}

	return &priceServiceImpl{
		db: db,
		httpClient: http.Client{
			Jar:     jar,
			Timeout: opts.HTTPTimeout,
		},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		limiter:    rate.NewLimiter(limit, 1),
		priceCache: priceCache,
	}
}

// GetDailyPrices returns adjusted closes of symbol over [start, end]. When the
// symbol yields nothing and a proxy is registered, the proxy's series is
// returned instead. Fetch failures are logged and produce an empty series.
func (s *priceServiceImpl) GetDailyPrices(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	log := logger.FromContext(ctx)
	cacheKey := fmt.Sprintf(ckPrices, symbol, utils.FormatDate(start), utils.FormatDate(end))
	if cached, found := s.priceCache.Get(cacheKey); found {
		if series, ok := cached.(models.PriceSeries); ok {
			return series, nil
		}
	}

	fetchFailed := false
	series, err := s.fetchChart(ctx, symbol, start, end)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("Yahoo Fetch: Could not get prices", "symbol", symbol, "error", err)
		series = models.PriceSeries{}
		fetchFailed = true
	}

	if len(series) == 0 {
		proxies, err := model.GetProxiesBySymbols(ctx, s.db, []string{symbol})
		if err != nil {
			log.Error("Failed to look up benchmark proxy", "symbol", symbol, "error", err)
		} else if proxy, ok := proxies[symbol]; ok && proxy.ProxySymbol != symbol {
			log.Info("Using proxy symbol for benchmark", "symbol", symbol, "proxy", proxy.ProxySymbol)
			proxySeries, err := s.fetchChart(ctx, proxy.ProxySymbol, start, end)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Warn("Yahoo Fetch: Could not get proxy prices", "symbol", symbol, "proxy", proxy.ProxySymbol, "error", err)
				fetchFailed = true
			} else {
				series = proxySeries
				fetchFailed = false
			}
		}
	}

	// An empty series after a failed fetch is not cached, so the next request retries.
	if len(series) > 0 || !fetchFailed {
		s.priceCache.Set(cacheKey, series, cache.DefaultExpiration)
	}
	return series, nil
}

// initializeYahooSession collects the session cookies and the crumb that
// Yahoo expects on API calls.
func (s *priceServiceImpl) initializeYahooSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crumb != "" {
		return nil
	}

	logger.L.Info("Initializing Yahoo Finance session to get crumb and cookies...")
	body, status, err := s.get(ctx, s.baseURL+"/v1/test/getcrumb")
	if err != nil {
		return fmt.Errorf("failed to request Yahoo crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if status != http.StatusOK || crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return fmt.Errorf("could not obtain Yahoo crumb (status %d)", status)
	}

	s.crumb = crumb
	logger.L.Info("Successfully obtained Yahoo Finance crumb.")
	return nil
}

func (s *priceServiceImpl) currentCrumb() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crumb
}

func (s *priceServiceImpl) fetchChart(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	if err := s.initializeYahooSession(ctx); err != nil {
		// The chart endpoint usually answers without a crumb.
		logger.L.Warn("Yahoo session not initialized, continuing without crumb", "error", err)
	}

	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	// period2 is exclusive.
	q.Set("period2", fmt.Sprint(end.AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	if crumb := s.currentCrumb(); crumb != "" {
		q.Set("crumb", crumb)
	}
	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.baseURL, url.PathEscape(symbol), q.Encode())

	body, status, err := s.get(ctx, chartURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call Yahoo chart API for %s: %w", symbol, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart API returned non-OK status %d for %s", status, symbol)
	}

	var chart yahooChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("failed to decode Yahoo chart response for %s: %w", symbol, err)
	}
	return parseChart(chart, start, end)
}

// parseChart converts a chart payload into a date → adjusted close series,
// falling back to the raw close. Days with a null close are skipped.
func parseChart(chart yahooChartResponse, start, end time.Time) (models.PriceSeries, error) {
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	series := models.PriceSeries{}
	if len(chart.Chart.Result) == 0 {
		return series, nil
	}

	res := chart.Chart.Result[0]
	var closes []*float64
	if len(res.Indicators.AdjClose) > 0 {
		closes = res.Indicators.AdjClose[0].AdjClose
	} else if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}

	startDay, endDay := utils.TruncateToDay(start), utils.TruncateToDay(end)
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := utils.TruncateToDay(time.Unix(ts+res.Meta.GMTOffset, 0).UTC())
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		series[utils.FormatDate(day)] = decimal.NewFromFloat(*closes[i])
	}
	return series, nil
}

func (s *priceServiceImpl) get(ctx context.Context, target string) ([]byte, int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read Yahoo response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
