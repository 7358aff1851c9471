// Package price serves per-kilogram price band predictions from a trained
// model artifact.
package price

import (
	"fmt"
	"math"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"gaonbazar/ml"
)

const (
	// bandVariation is the symmetric spread around the point prediction.
	// Government data shows natural variation from quality and market
	// conditions; a single number would be illusory precision.
	bandVariation = 0.15

	// Sanity floors in INR/kg against degenerate near-zero predictions
	// from sparse training cells.
	floorPredicted = 1.5
	floorMin       = 1.0
	floorMax       = 2.0

	sampleCropLimit = 10
	cacheSize       = 512
)

// Prediction is the client-facing price band.
type Prediction struct {
	Crop           string  `json:"crop"`
	Month          int     `json:"month"`
	PredictedPrice float64 `json:"predicted_price"`
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
	Currency       string  `json:"currency"`
	Unit           string  `json:"unit"`
}

type cacheKey struct {
	crop  string
	month int
}

// Service answers price predictions from one immutable artifact loaded at
// startup. Predictions are deterministic, so a small LRU memoizes them; the
// artifact itself is never mutated, making concurrent calls lock-free apart
// from the cache.
type Service struct {
	artifact *ml.Artifact
	logger   *zap.Logger
	cache    *lru.Cache[cacheKey, Prediction]
}

// NewService builds a Service around an artifact. A nil artifact is legal:
// the service stays up and reports model-unavailable until a restart with a
// valid artifact.
func NewService(artifact *ml.Artifact, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, _ := lru.New[cacheKey, Prediction](cacheSize)
	return &Service{
		artifact: artifact,
		logger:   logger,
		cache:    cache,
	}
}

// Ready reports whether a model artifact is loaded.
func (s *Service) Ready() bool {
	return s.artifact != nil
}

// SupportedCrops returns the artifact's crop vocabulary, or nil when no
// model is loaded.
func (s *Service) SupportedCrops() []string {
	if s.artifact == nil {
		return nil
	}
	return s.artifact.SupportedCrops
}

// Predict validates the request, re-applies the frozen encoders, invokes the
// model and converts the raw output into a per-kilogram price band.
func (s *Service) Predict(crop string, month int) (Prediction, error) {
	if s.artifact == nil {
		return Prediction{}, ErrModelUnavailable
	}
	if month < 1 || month > 12 {
		return Prediction{}, &InvalidMonthError{Month: month}
	}

	crop = strings.ToLower(strings.TrimSpace(crop))
	if !s.artifact.CropEncoder.Contains(crop) {
		return Prediction{}, &UnsupportedCropError{
			Crop:      crop,
			Available: sampleCrops(s.artifact.SupportedCrops, sampleCropLimit),
		}
	}

	key := cacheKey{crop: crop, month: month}
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	prediction, err := s.predict(crop, month)
	if err != nil {
		s.logger.Error("prediction failed",
			zap.String("crop", crop),
			zap.Int("month", month),
			zap.Error(err))
		return Prediction{}, err
	}
	s.cache.Add(key, prediction)
	return prediction, nil
}

func (s *Service) predict(crop string, month int) (Prediction, error) {
	// The request carries no market; serving fixes the first supported
	// market as a documented simplification, not personalization.
	market := s.artifact.SupportedMarkets[0]

	// Encoder misses past this point are invariant violations: the crop
	// already passed vocabulary validation, so a failure means the
	// artifact and its vocabulary disagree.
	cropCode, err := s.artifact.CropEncoder.Encode(crop)
	if err != nil {
		return Prediction{}, fmt.Errorf("artifact vocabulary mismatch: %w", err)
	}
	marketCode, err := s.artifact.MarketEncoder.Encode(market)
	if err != nil {
		return Prediction{}, fmt.Errorf("artifact market mismatch: %w", err)
	}

	raw, err := s.artifact.Model.Predict([]float64{float64(cropCode), float64(month), float64(marketCode)})
	if err != nil {
		return Prediction{}, fmt.Errorf("model prediction: %w", err)
	}

	perKg := raw
	if s.artifact.PriceUnit == ml.PriceUnitQuintal {
		perKg = raw / 100
	}

	minPrice := round2(perKg * (1 - bandVariation))
	maxPrice := round2(perKg * (1 + bandVariation))
	predicted := round2(perKg)

	predicted = math.Max(floorPredicted, predicted)
	minPrice = math.Max(floorMin, minPrice)
	maxPrice = math.Max(floorMax, maxPrice)

	return Prediction{
		Crop:           crop,
		Month:          month,
		PredictedPrice: predicted,
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
		Currency:       "INR",
		Unit:           "kg",
	}, nil
}

func sampleCrops(crops []string, limit int) []string {
	sorted := append([]string(nil), crops...)
	sort.Strings(sorted)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
