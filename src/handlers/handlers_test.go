package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/security"
	"github.com/username/perfolio/src/services"
)

type stubHoldingsService struct {
	graph    models.Graph
	err      error
	lastReq  models.SankeyRequest
	rates    models.FxRatesResponse
	ratesErr error
}

func (s *stubHoldingsService) GetHoldingsSankey(_ context.Context, req models.SankeyRequest) (models.Graph, error) {
	s.lastReq = req
	return s.graph, s.err
}

func (s *stubHoldingsService) GetAvailableSankeyColumns(context.Context) (models.AvailableSankeyColumns, error) {
	return models.AvailableSankeyColumns{}, nil
}

func (s *stubHoldingsService) GetAvailableDates(context.Context, models.AvailableDatesRequest) (models.AvailableDatesResponse, error) {
	return models.AvailableDatesResponse{}, services.ErrNoData
}

func (s *stubHoldingsService) GetFxRates(context.Context, models.FxRateRequest) (models.FxRatesResponse, error) {
	return s.rates, s.ratesErr
}

type stubPerformanceService struct {
	err error
}

func (s *stubPerformanceService) GetAttribution(context.Context, models.PerformanceAttributionRequest) (models.PerformanceAttributionResponse, error) {
	return models.PerformanceAttributionResponse{}, s.err
}

func (s *stubPerformanceService) GetAvailableLevels() []string {
	return []string{"account", "asset_class"}
}

type stubImportService struct {
	table string
	body  string
	err   error
}

func (s *stubImportService) Import(_ context.Context, table string, file io.Reader) (models.ImportResponse, error) {
	b, _ := io.ReadAll(file)
	s.table, s.body = table, string(b)
	if s.err != nil {
		return models.ImportResponse{}, s.err
	}
	return models.ImportResponse{Table: table, RowsImported: strings.Count(s.body, "\n") - 1}, nil
}

func sampleGraph() models.Graph {
	return models.Graph{
		Nodes: []models.GraphNode{{Label: models.RootLabel}, {Label: "TFSA"}},
		Links: []models.GraphLink{{Source: 0, Target: 1, Value: decimal.NewFromInt(100)}},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHoldingsSankey_ETagRoundTrip(t *testing.T) {
	svc := &stubHoldingsService{graph: sampleGraph()}
	h := NewHoldingsHandler(svc)
	body := `{"as_of_date":"2024-12-31","account_codes":["A1"],"sankey_levels":["account.account_type"]}`

	rec := postJSON(t, h.HandleGetHoldingsSankey, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A1"}, svc.lastReq.AccountCodes)

	var graph models.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	require.Len(t, graph.Nodes, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(graph.Links[0].Value))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = postJSON(t, h.HandleGetHoldingsSankey, body, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHoldingsSankey_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no holdings", services.ErrNoHoldings, http.StatusNotFound},
		{"invalid request", errors.Join(services.ErrInvalidRequest, errors.New("bad level")), http.StatusBadRequest},
		{"internal", errors.New("database is locked"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHoldingsHandler(&stubHoldingsService{err: tt.err})
			rec := postJSON(t, h.HandleGetHoldingsSankey, `{"as_of_date":"2024-12-31","account_codes":["A1"]}`)
			assert.Equal(t, tt.want, rec.Code)
			msg := errorMessage(t, rec)
			assert.NotEmpty(t, msg)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, msg, "database")
			}
		})
	}
}

func TestHoldingsHandler_MalformedBody(t *testing.T) {
	h := NewHoldingsHandler(&stubHoldingsService{})
	rec := postJSON(t, h.HandleGetHoldingsSankey, `{"as_of_date":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHoldingsHandler_Lookups(t *testing.T) {
	svc := &stubHoldingsService{rates: models.FxRatesResponse{AsOfDate: "2024-12-31", BaseCurrency: "CAD"}}
	h := NewHoldingsHandler(svc)

	rec := postJSON(t, h.HandleGetFxRates, `{"as_of_date":"2024-12-31"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"as_of_date":"2024-12-31","base_currency":"CAD","rates":[]}`, rec.Body.String())

	rec = postJSON(t, h.HandleGetSankeyColumns, ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"account_columns":[],"security_columns":[]}`, rec.Body.String())

	rec = postJSON(t, h.HandleGetAvailableDates, `{"account_codes":["A1"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPerformanceHandler(t *testing.T) {
	h := NewPerformanceHandler(&stubPerformanceService{})

	rec := postJSON(t, h.HandleGetAttributionSankey, `{"start_date":"2024-01-31","end_date":"2024-12-31","account_codes":["A1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "[]", string(body["unclassified_transactions"]))
	assert.Contains(t, body, "perf_summary")
	assert.Contains(t, body, "perf_sankey")

	req := httptest.NewRequest(http.MethodGet, "/api/performance/sankey-levels", nil)
	rec = httptest.NewRecorder()
	h.HandleGetSankeyLevels(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available_levels":["account","asset_class"]}`, rec.Body.String())

	h = NewPerformanceHandler(&stubPerformanceService{err: services.ErrInvalidRequest})
	rec = postJSON(t, h.HandleGetAttributionSankey, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, target, contentType, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="upload.csv"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportHandler(t *testing.T) {
	csv := "as_of_date,currency_code,rate_to_base\n2024-01-31,USD,1.35\n"

	t.Run("imports the file", func(t *testing.T) {
		svc := &stubImportService{}
		h := NewImportHandler(svc, 1<<20)
		rec := httptest.NewRecorder()
		h.HandleImport(rec, multipartUpload(t, "/api/warehouse/import?table=FX_RATES", "text/csv", csv))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "fx_rates", svc.table)
		assert.Equal(t, csv, svc.body)
		assert.JSONEq(t, `{"table":"fx_rates","rows_imported":1}`, rec.Body.String())
	})

	t.Run("table is required", func(t *testing.T) {
		h := NewImportHandler(&stubImportService{}, 1<<20)
		rec := httptest.NewRecorder()
		h.HandleImport(rec, multipartUpload(t, "/api/warehouse/import", "text/csv", csv))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects declared image", func(t *testing.T) {
		h := NewImportHandler(&stubImportService{}, 1<<20)
		rec := httptest.NewRecorder()
		h.HandleImport(rec, multipartUpload(t, "/api/warehouse/import?table=fx_rates", "image/png", csv))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects binary content", func(t *testing.T) {
		svc := &stubImportService{}
		h := NewImportHandler(svc, 1<<20)
		rec := httptest.NewRecorder()
		h.HandleImport(rec, multipartUpload(t, "/api/warehouse/import?table=fx_rates", "", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.table)
	})

	t.Run("parse failure is a bad request", func(t *testing.T) {
		h := NewImportHandler(&stubImportService{err: services.ErrParsingFailed}, 1<<20)
		rec := httptest.NewRecorder()
		h.HandleImport(rec, multipartUpload(t, "/api/warehouse/import?table=fx_rates", "text/csv", csv))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("body over the limit", func(t *testing.T) {
		h := NewImportHandler(&stubImportService{}, 64)
		rec := httptest.NewRecorder()
		h.HandleImport(rec, multipartUpload(t, "/api/warehouse/import?table=fx_rates", "text/csv", strings.Repeat(csv, 10)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get(requestIDHeader)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
	assert.Equal(t, rec.Header().Get(requestIDHeader), seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestAuthMiddleware(t *testing.T) {
	authService := security.NewAuthService(strings.Repeat("k", 32))
	var subject string
	protected := AuthMiddleware(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ = GetSubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := authService.GenerateToken("analyst", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "analyst", subject)

	open := AuthMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
