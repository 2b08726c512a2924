package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/pkg/config"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details string          `json:"details"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := application.NewPricingService(config.PricingConfig{
		DefaultModel:     "Binomial",
		LatticeSteps:     100,
		SimulationSteps:  20,
		Paths:            1000,
		MaxSteps:         500,
		MaxPaths:         20000,
		MaxPathCells:     1_000_000,
		RegressionDegree: 2,
		Workers:          2,
		BatchConcurrency: 2,
		MaxBatchSize:     5,
		CacheTTL:         0,
		PriceScale:       4,
	}, nil, nil, nil)
	require.NoError(t, err)

	r := gin.New()
	NewPricingHandler(svc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func atmPut() map[string]any {
	return map[string]any{
		"symbol":           "SPX-P-100",
		"option_type":      "PUT",
		"underlying_price": 100,
		"strike_price":     100,
		"maturity":         1,
		"risk_free_rate":   0.05,
		"volatility":       0.2,
	}
}

func TestHealth(t *testing.T) {
	w, env := do(t, newRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestPriceOption(t *testing.T) {
	w, env := do(t, newRouter(t), http.MethodPost, "/api/v1/pricing/option/price", atmPut())
	require.Equal(t, http.StatusOK, w.Code, env.Details)
	assert.Equal(t, 0, env.Code)

	var res application.PricingResultDTO
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Binomial", res.PricingModel)
	assert.Equal(t, 100, res.Steps)
	assert.InDelta(t, 6.0824, res.Price.InexactFloat64(), 2e-4)
	assert.GreaterOrEqual(t, res.Price.Exponent(), int32(-4))
}

func TestPriceOptionFromExpiryDate(t *testing.T) {
	body := atmPut()
	delete(body, "maturity")
	body["expiry_date"] = time.Now().Add(365 * 24 * time.Hour).Format(time.RFC3339)
	body["pricing_model"] = "lsm"
	body["seed"] = 11

	w, env := do(t, newRouter(t), http.MethodPost, "/api/v1/pricing/option/price", body)
	require.Equal(t, http.StatusOK, w.Code, env.Details)

	var res application.PricingResultDTO
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "LongstaffSchwartz", res.PricingModel)
	require.NotNil(t, res.Seed)
	assert.Equal(t, uint64(11), *res.Seed)
	assert.Equal(t, 1000, res.Paths)
}

func TestPriceOptionBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing option type", func(b map[string]any) { delete(b, "option_type") }},
		{"negative strike", func(b map[string]any) { b["strike_price"] = -5 }},
		{"unknown option type", func(b map[string]any) { b["option_type"] = "straddle" }},
		{"no maturity", func(b map[string]any) { delete(b, "maturity") }},
		{"steps above max", func(b map[string]any) { b["steps"] = 10000 }},
		{"zero volatility", func(b map[string]any) { b["volatility"] = 0 }},
		{"unknown model", func(b map[string]any) { b["pricing_model"] = "heston" }},
	}
	r := newRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := atmPut()
			tt.mutate(body)
			w, env := do(t, r, http.MethodPost, "/api/v1/pricing/option/price", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, http.StatusBadRequest, env.Code)
			assert.NotEmpty(t, env.Details)
		})
	}
}

func TestBatchPriceOptions(t *testing.T) {
	bad := atmPut()
	bad["option_type"] = "straddle"
	w, env := do(t, newRouter(t), http.MethodPost, "/api/v1/pricing/option/batch", map[string]any{
		"batch_id":  "batch-7",
		"contracts": []map[string]any{atmPut(), bad},
	})
	require.Equal(t, http.StatusOK, w.Code, env.Details)

	var res application.BatchPricingResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "batch-7", res.BatchID)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
}

func TestBatchPriceOptionsTooLarge(t *testing.T) {
	contracts := make([]map[string]any, 6)
	for i := range contracts {
		contracts[i] = atmPut()
	}
	w, _ := do(t, newRouter(t), http.MethodPost, "/api/v1/pricing/option/batch", map[string]any{"contracts": contracts})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, newRouter(t), http.MethodPost, "/api/v1/pricing/option/batch", map[string]any{"contracts": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompareModels(t *testing.T) {
	body := atmPut()
	body["paths"] = 4000
	body["seed"] = 3
	w, env := do(t, newRouter(t), http.MethodPost, "/api/v1/pricing/option/compare", body)
	require.Equal(t, http.StatusOK, w.Code, env.Details)

	var res application.ModelComparisonDTO
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Binomial)
	require.NotNil(t, res.LongstaffSchwartz)
	assert.Equal(t, 100, res.Binomial.Steps)
	assert.Equal(t, 20, res.LongstaffSchwartz.Steps)
	assert.Less(t, res.StdErrors, 6.0)
}
