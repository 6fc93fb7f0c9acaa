package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/trendcast/internal/app"
	"github.com/bobmcallan/trendcast/internal/common"
	"github.com/bobmcallan/trendcast/internal/models"
)

// fakeMarketClient serves a fixed frame for every ticker
type fakeMarketClient struct {
	frame  *models.Frame
	err    error
	ticker string
}

func (f *fakeMarketClient) GetDailyFrame(_ context.Context, ticker string, _, _ time.Time) (*models.Frame, error) {
	f.ticker = ticker
	return f.frame, f.err
}

func (f *fakeMarketClient) Name() string { return "fake" }

func linearFrame(n int) *models.Frame {
	bars := make([]models.DailyBar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 2*float64(i) + 5
		bars[i] = models.DailyBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return models.FrameFromBars(bars)
}

func newTestServer(t *testing.T, client *fakeMarketClient) *Server {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Server.StaticDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(config.Server.StaticDir, "index.html"), []byte("<h1>trendcast</h1>"), 0o644))

	a := app.NewAppWithClient(config, common.NewSilentLogger(), client)
	return NewServer(a)
}

func do(t *testing.T, srv *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// --- /suggest ---

func TestHandleSuggest(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodGet, "/suggest?q=aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "Apple Inc.", resp.Suggestions[0].Name)
	assert.Equal(t, "AAPL", resp.Suggestions[0].Ticker)
}

func TestHandleSuggest_EmptyQuery(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodGet, "/suggest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions": []}`, rec.Body.String())
}

func TestHandleSuggest_Limit(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodGet, "/suggest?q=a", "")
	resp := decode(t, rec)
	assert.Len(t, resp["suggestions"], 10)
}

func TestHandleSuggest_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodPost, "/suggest?q=a", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

// --- /predict ---

func TestHandlePredict_Success(t *testing.T) {
	client := &fakeMarketClient{frame: linearFrame(100)}
	srv := newTestServer(t, client)

	rec := do(t, srv, http.MethodPost, "/predict", `{"ticker": "AAPL", "prediction_days": 45}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "AAPL", client.ticker)

	resp := decode(t, rec)
	assert.Len(t, resp["historical_dates"], 100)
	assert.Len(t, resp["predicted_dates"], 45)
	assert.Len(t, resp["predicted_prices"], 45)
	assert.Equal(t, 100.0, resp["model_fit_percentage"])
	assert.Equal(t, "Apple Inc.", resp["company_name"])
	assert.Equal(t, "https://finance.yahoo.com/quote/AAPL", resp["yahoo_finance_url"])

	sma := resp["sma_short"].([]interface{})
	assert.Nil(t, sma[0])

	stats := resp["latest_stats"].(map[string]interface{})
	assert.Equal(t, "2024-04-09", stats["date"])
	assert.Equal(t, 203.0, stats["close"])
}

func TestHandlePredict_HorizonClamped(t *testing.T) {
	tests := []struct {
		name string
		days string
		want int
	}{
		{"too small", `3`, 30},
		{"too large", `200`, 30},
		{"string", `"abc"`, 30},
		{"numeric string", `"60"`, 60},
		{"absent", ``, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeMarketClient{frame: linearFrame(60)})

			body := `{"ticker": "MSFT"}`
			if tt.days != "" {
				body = `{"ticker": "MSFT", "prediction_days": ` + tt.days + `}`
			}
			rec := do(t, srv, http.MethodPost, "/predict", body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Len(t, decode(t, rec)["predicted_dates"], tt.want)
		})
	}
}

func TestHandlePredict_MissingTicker(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{frame: linearFrame(60)})

	for _, body := range []string{`{}`, `{"ticker": ""}`, `{"prediction_days": 30}`} {
		rec := do(t, srv, http.MethodPost, "/predict", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Ticker symbol not provided", decode(t, rec)["error"])
	}
}

func TestHandlePredict_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodPost, "/predict", `{"ticker": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/predict", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePredict_InvalidJSONHidesDecoderDetail(t *testing.T) {
	var logs bytes.Buffer
	config := common.NewDefaultConfig()
	config.Server.StaticDir = t.TempDir()
	srv := NewServer(app.NewAppWithClient(config, common.NewLoggerWithOutput("debug", &logs), &fakeMarketClient{}))

	rec := do(t, srv, http.MethodPost, "/predict", `{"ticker": 42}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Invalid JSON body", body["error"])
	assert.NotContains(t, rec.Body.String(), "unmarshal")
	assert.Contains(t, logs.String(), "cannot unmarshal")
}

func TestHandlePredict_NoData(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{frame: models.FrameFromBars(nil)})

	rec := do(t, srv, http.MethodPost, "/predict", `{"ticker": "ZZZZ"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Could not fetch data for ZZZZ.", decode(t, rec)["error"])
}

func TestHandlePredict_SchemaError(t *testing.T) {
	frame := models.NewFrame(
		models.ColumnKey{Field: models.ColumnOpen},
		models.ColumnKey{Field: models.ColumnClose},
	)
	frame.AppendRow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2)
	srv := newTestServer(t, &fakeMarketClient{frame: frame})

	rec := do(t, srv, http.MethodPost, "/predict", `{"ticker": "AAPL"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decode(t, rec)
	assert.Equal(t, "Data format error: Missing columns High, Low, Volume", resp["error"])
	assert.Contains(t, resp, "latest_stats")
}

func TestHandlePredict_InternalErrorKeepsLatestStats(t *testing.T) {
	frame := linearFrame(10)
	for i := range frame.Data[3] {
		frame.Data[3][i] = math.NaN()
	}
	srv := newTestServer(t, &fakeMarketClient{frame: frame})

	rec := do(t, srv, http.MethodPost, "/predict", `{"ticker": "AAPL"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decode(t, rec)
	assert.Equal(t, "An internal error occurred during prediction.", resp["error"])
	stats, ok := resp["latest_stats"].(map[string]interface{})
	require.True(t, ok, rec.Body.String())
	assert.Equal(t, "2024-01-10", stats["date"])
	assert.Nil(t, stats["close"])
}

func TestHandlePredict_SourceErrorIsGeneric(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{err: errors.New("dial tcp: secret-host:443 refused")})

	rec := do(t, srv, http.MethodPost, "/predict", `{"ticker": "AAPL"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-host")
	assert.Nil(t, decode(t, rec)["latest_stats"])
}

func TestHandlePredict_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// --- /api/chart ---

func TestHandleChart(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{frame: linearFrame(60)})

	rec := do(t, srv, http.MethodGet, "/api/chart?ticker=AAPL&prediction_days=14", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}))
}

func TestHandleChart_Errors(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{frame: models.FrameFromBars(nil)})

	rec := do(t, srv, http.MethodGet, "/api/chart", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/chart?ticker=ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- system, static and middleware ---

func TestHandleHealthAndVersion(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, common.GetVersion(), resp["version"])
	assert.Equal(t, "fake", resp["source"])
}

func TestStaticIndex(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trendcast")
}

func TestStaticMissingDir(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Server.StaticDir = filepath.Join(t.TempDir(), "missing")
	srv := NewServer(app.NewAppWithClient(config, common.NewSilentLogger(), &fakeMarketClient{}))

	rec := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddleware_CORSAndCorrelation(t *testing.T) {
	srv := newTestServer(t, &fakeMarketClient{})

	rec := do(t, srv, http.MethodOptions, "/predict", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, srv, http.MethodGet, "/api/health", "")
	assert.Len(t, rec.Header().Get("X-Correlation-ID"), 8)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc123", rec.Header().Get("X-Correlation-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["error"])
}
