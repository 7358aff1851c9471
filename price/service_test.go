package price

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"gaonbazar/ml"
)

// wheatArtifact trains a small artifact on 500 synthetic rows of
// crop="wheat", market="Delhi", prices normally distributed around
// 2000 Rs/quintal.
func wheatArtifact(t *testing.T) *ml.Artifact {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	features := make([][]float64, 0, 500)
	targets := make([]float64, 0, 500)
	for i := 0; i < 500; i++ {
		month := 1 + i%12
		features = append(features, []float64{0, float64(month), 0})
		targets = append(targets, 2000+rng.NormFloat64()*100)
	}

	model := &ml.ForestRegressor{Config: ml.ForestConfig{Trees: 20, MaxDepth: 6, MinSamplesSplit: 10, MinSamplesLeaf: 5, Seed: 42}}
	if err := model.Fit(features, targets); err != nil {
		t.Fatalf("fit: %v", err)
	}

	cropEncoder, err := ml.FitLabels([]string{"wheat"})
	if err != nil {
		t.Fatalf("fit crop encoder: %v", err)
	}
	marketEncoder, err := ml.FitLabels([]string{"Delhi"})
	if err != nil {
		t.Fatalf("fit market encoder: %v", err)
	}

	return &ml.Artifact{
		Model:            model,
		CropEncoder:      cropEncoder,
		MarketEncoder:    marketEncoder,
		SupportedCrops:   cropEncoder.Classes,
		SupportedMarkets: marketEncoder.Classes,
		PriceUnit:        ml.PriceUnitQuintal,
		TrainedAt:        time.Now().UTC(),
		DataRows:         500,
		FitScore:         0.9,
	}
}

func constantArtifact(t *testing.T, pricePerQuintal float64) *ml.Artifact {
	t.Helper()

	features := make([][]float64, 0, 100)
	targets := make([]float64, 0, 100)
	for i := 0; i < 100; i++ {
		features = append(features, []float64{0, float64(1 + i%12), 0})
		targets = append(targets, pricePerQuintal)
	}

	model := &ml.ForestRegressor{Config: ml.ForestConfig{Trees: 5, MaxDepth: 3, MinSamplesSplit: 10, MinSamplesLeaf: 5, Seed: 1}}
	if err := model.Fit(features, targets); err != nil {
		t.Fatalf("fit: %v", err)
	}

	cropEncoder, _ := ml.FitLabels([]string{"tomato"})
	marketEncoder, _ := ml.FitLabels([]string{"Delhi"})
	return &ml.Artifact{
		Model:            model,
		CropEncoder:      cropEncoder,
		MarketEncoder:    marketEncoder,
		SupportedCrops:   cropEncoder.Classes,
		SupportedMarkets: marketEncoder.Classes,
		PriceUnit:        ml.PriceUnitQuintal,
		TrainedAt:        time.Now().UTC(),
		DataRows:         100,
		FitScore:         1,
	}
}

func TestPredictEndToEnd(t *testing.T) {
	service := NewService(wheatArtifact(t), nil)

	prediction, err := service.Predict("wheat", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.PredictedPrice < 17 || prediction.PredictedPrice > 23 {
		t.Fatalf("predicted price %f outside [17, 23] INR/kg", prediction.PredictedPrice)
	}
	if !(prediction.MinPrice < prediction.PredictedPrice && prediction.PredictedPrice < prediction.MaxPrice) {
		t.Fatalf("band not ordered: %+v", prediction)
	}
	if prediction.Currency != "INR" || prediction.Unit != "kg" {
		t.Fatalf("unexpected currency/unit: %+v", prediction)
	}
}

func TestPredictDeterministic(t *testing.T) {
	service := NewService(wheatArtifact(t), nil)

	first, err := service.Predict("wheat", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := service.Predict("wheat", 6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("prediction not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestPredictBandProportions(t *testing.T) {
	service := NewService(wheatArtifact(t), nil)

	prediction, err := service.Predict("wheat", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(prediction.MinPrice-prediction.PredictedPrice*0.85) > 0.02 {
		t.Fatalf("min price %f not ~85%% of %f", prediction.MinPrice, prediction.PredictedPrice)
	}
	if math.Abs(prediction.MaxPrice-prediction.PredictedPrice*1.15) > 0.02 {
		t.Fatalf("max price %f not ~115%% of %f", prediction.MaxPrice, prediction.PredictedPrice)
	}
}

func TestPredictUnitConversion(t *testing.T) {
	artifact := wheatArtifact(t)
	service := NewService(artifact, nil)

	raw, err := artifact.Model.Predict([]float64{0, 6, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prediction, err := service.Predict("wheat", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Round(raw/100*100) / 100
	if want < 1.5 {
		want = 1.5
	}
	if prediction.PredictedPrice != want {
		t.Fatalf("predicted %f, want round(%f/100, 2) = %f", prediction.PredictedPrice, raw, want)
	}
}

func TestPredictKgUnitPassesThrough(t *testing.T) {
	artifact := constantArtifact(t, 40)
	artifact.PriceUnit = ml.PriceUnitKg
	service := NewService(artifact, nil)

	prediction, err := service.Predict("tomato", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.PredictedPrice != 40 {
		t.Fatalf("kg-denominated model must pass through, got %f", prediction.PredictedPrice)
	}
}

func TestPredictFloors(t *testing.T) {
	// 50 Rs/quintal is 0.5 Rs/kg; every figure must be floored.
	service := NewService(constantArtifact(t, 50), nil)

	prediction, err := service.Predict("tomato", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.PredictedPrice < 1.5 {
		t.Fatalf("predicted price %f below floor", prediction.PredictedPrice)
	}
	if prediction.MinPrice < 1.0 {
		t.Fatalf("min price %f below floor", prediction.MinPrice)
	}
	if prediction.MaxPrice < 2.0 {
		t.Fatalf("max price %f below floor", prediction.MaxPrice)
	}
}

func TestPredictVocabularyClosure(t *testing.T) {
	service := NewService(wheatArtifact(t), nil)

	for _, crop := range service.SupportedCrops() {
		for month := 1; month <= 12; month++ {
			if _, err := service.Predict(crop, month); err != nil {
				t.Fatalf("Predict(%q, %d) failed for supported crop: %v", crop, month, err)
			}
		}
	}
}

func TestPredictRejections(t *testing.T) {
	service := NewService(wheatArtifact(t), nil)

	_, err := service.Predict("tomato", 13)
	var invalidMonth *InvalidMonthError
	if !errors.As(err, &invalidMonth) {
		t.Fatalf("expected InvalidMonthError, got %v", err)
	}
	if invalidMonth.Month != 13 {
		t.Fatalf("error should carry the offending month, got %d", invalidMonth.Month)
	}

	_, err = service.Predict("unobtainium", 5)
	var unsupported *UnsupportedCropError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedCropError, got %v", err)
	}
	if len(unsupported.Available) == 0 || len(unsupported.Available) > 10 {
		t.Fatalf("expected a bounded sample of valid crops, got %d", len(unsupported.Available))
	}
}

func TestPredictNormalizesCrop(t *testing.T) {
	service := NewService(wheatArtifact(t), nil)
	if _, err := service.Predict("  WHEAT ", 6); err != nil {
		t.Fatalf("crop normalization failed: %v", err)
	}
}

func TestPredictModelUnavailable(t *testing.T) {
	service := NewService(nil, nil)

	if service.Ready() {
		t.Fatal("service without artifact must not report ready")
	}
	_, err := service.Predict("wheat", 6)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
