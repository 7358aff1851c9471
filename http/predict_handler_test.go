package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gaonbazar/db"
	"gaonbazar/iot"
	"gaonbazar/ml"
	"gaonbazar/price"
)

func testArtifact(t *testing.T) *ml.Artifact {
	t.Helper()

	features := make([][]float64, 0, 200)
	targets := make([]float64, 0, 200)
	for i := 0; i < 200; i++ {
		features = append(features, []float64{0, float64(1 + i%12), 0})
		targets = append(targets, 2000+float64(i%40))
	}
	model := &ml.ForestRegressor{Config: ml.ForestConfig{Trees: 5, MaxDepth: 4, MinSamplesSplit: 10, MinSamplesLeaf: 5, Seed: 42}}
	if err := model.Fit(features, targets); err != nil {
		t.Fatalf("fit: %v", err)
	}

	cropEncoder, _ := ml.FitLabels([]string{"wheat"})
	marketEncoder, _ := ml.FitLabels([]string{"Delhi"})
	return &ml.Artifact{
		Model:            model,
		CropEncoder:      cropEncoder,
		MarketEncoder:    marketEncoder,
		SupportedCrops:   cropEncoder.Classes,
		SupportedMarkets: marketEncoder.Classes,
		PriceUnit:        ml.PriceUnitQuintal,
		TrainedAt:        time.Now().UTC(),
		DataRows:         200,
		FitScore:         0.9,
	}
}

func testAPI(t *testing.T, artifact *ml.Artifact) (*API, *db.Store) {
	t.Helper()
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	api := NewAPI(price.NewService(artifact, nil), store, iot.NewSimulator(1), nil)
	return api, store
}

func TestHandlePredictPrice(t *testing.T) {
	api, _ := testAPI(t, testArtifact(t))
	mux := http.NewServeMux()
	api.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/predict-price", strings.NewReader(`{"crop":"wheat","month":6}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload price.Prediction
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Crop != "wheat" || payload.Month != 6 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Currency != "INR" || payload.Unit != "kg" {
		t.Fatalf("unexpected currency/unit: %+v", payload)
	}
	if !(payload.MinPrice < payload.PredictedPrice && payload.PredictedPrice < payload.MaxPrice) {
		t.Fatalf("band not ordered: %+v", payload)
	}
}

func TestHandlePredictPriceErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"invalid month", `{"crop":"wheat","month":13}`, http.StatusBadRequest},
		{"unsupported crop", `{"crop":"unobtainium","month":5}`, http.StatusBadRequest},
		{"malformed body", `{"crop":`, http.StatusBadRequest},
	}

	api, _ := testAPI(t, testArtifact(t))
	mux := http.NewServeMux()
	api.Register(mux)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/predict-price", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			var payload map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if payload["error"] == "" {
				t.Fatal("expected error detail")
			}
		})
	}
}

func TestHandlePredictPriceModelUnavailable(t *testing.T) {
	api, _ := testAPI(t, nil)
	mux := http.NewServeMux()
	api.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/predict-price", strings.NewReader(`{"crop":"wheat","month":6}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
