package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gaonbazar/ml"
	"gaonbazar/pipeline"
)

func main() {
	dataPath := flag.String("data", "./data/prices.csv", "government price dataset (CSV)")
	modelPath := flag.String("model_path", "./models/price_model.json", "artifact output path")
	trees := flag.Int("trees", 50, "number of trees")
	maxDepth := flag.Int("max_depth", 8, "max tree depth")
	minSplit := flag.Int("min_samples_split", 10, "min samples to split a node")
	minLeaf := flag.Int("min_samples_leaf", 5, "min samples per leaf")
	minMarket := flag.Int("min_market_samples", 100, "min rows per market")
	seed := flag.Int64("seed", 42, "training seed")
	flag.Parse()

	fmt.Println("[1/6] Loading government dataset...")
	records, err := pipeline.LoadCSV(*dataPath)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	fmt.Printf("  loaded %d raw rows\n", len(records))

	fmt.Println("[2/6] Cleaning and preparing...")
	prepareConfig := pipeline.DefaultPrepareConfig()
	prepareConfig.MinMarketSamples = *minMarket
	prepared, stats, err := pipeline.Prepare(records, prepareConfig)
	if err != nil {
		log.Fatalf("failed to prepare dataset: %v", err)
	}
	fmt.Printf("  dropped: bad date=%d missing=%d bad price=%d outlier=%d unmapped crop=%d thin market=%d\n",
		stats.BadDate, stats.MissingField, stats.BadPrice, stats.OutlierPrice, stats.UnmappedCrop, stats.ThinMarket)
	fmt.Printf("  price band: %.2f - %.2f Rs/quintal\n", stats.PriceFloor, stats.PriceCeiling)
	fmt.Printf("  kept %d rows across %d markets\n", stats.Kept, stats.MarketsKept)

	fmt.Println("[3/6] Fitting encoders...")
	crops := make([]string, len(prepared))
	markets := make([]string, len(prepared))
	for i, record := range prepared {
		crops[i] = record.Crop
		markets[i] = record.Market
	}
	cropEncoder, err := ml.FitLabels(crops)
	if err != nil {
		log.Fatalf("failed to fit crop encoder: %v", err)
	}
	marketEncoder, err := ml.FitLabels(markets)
	if err != nil {
		log.Fatalf("failed to fit market encoder: %v", err)
	}
	fmt.Printf("  encoded %d crops and %d markets\n", cropEncoder.Cardinality(), marketEncoder.Cardinality())

	fmt.Println("[4/6] Training forest regressor...")
	features := make([][]float64, len(prepared))
	targets := make([]float64, len(prepared))
	for i, record := range prepared {
		cropCode, err := cropEncoder.Encode(record.Crop)
		if err != nil {
			log.Fatalf("encode crop: %v", err)
		}
		marketCode, err := marketEncoder.Encode(record.Market)
		if err != nil {
			log.Fatalf("encode market: %v", err)
		}
		features[i] = []float64{float64(cropCode), float64(record.Month), float64(marketCode)}
		targets[i] = record.Price
	}

	model := &ml.ForestRegressor{Config: ml.ForestConfig{
		Trees:           *trees,
		MaxDepth:        *maxDepth,
		MinSamplesSplit: *minSplit,
		MinSamplesLeaf:  *minLeaf,
		Seed:            *seed,
	}}
	if err := model.Fit(features, targets); err != nil {
		log.Fatalf("failed to train model: %v", err)
	}

	fitScore, err := model.Score(features, targets)
	if err != nil {
		log.Fatalf("failed to score model: %v", err)
	}
	residualStd, err := model.ResidualStd(features, targets)
	if err != nil {
		log.Fatalf("failed to compute residuals: %v", err)
	}
	fmt.Printf("  in-sample R2=%.4f residual std=%.2f Rs/quintal\n", fitScore, residualStd)

	fmt.Println("[5/6] Saving artifact...")
	artifact := &ml.Artifact{
		Model:            model,
		CropEncoder:      cropEncoder,
		MarketEncoder:    marketEncoder,
		SupportedCrops:   cropEncoder.Classes,
		SupportedMarkets: marketEncoder.Classes,
		PriceUnit:        ml.PriceUnitQuintal,
		TrainedAt:        time.Now().UTC(),
		DataRows:         len(prepared),
		FitScore:         fitScore,
	}
	if err := artifact.Save(*modelPath); err != nil {
		log.Fatalf("failed to save artifact: %v", err)
	}
	fmt.Printf("  artifact written to %s\n", *modelPath)

	fmt.Println("[6/6] Sample predictions...")
	printSamplePredictions(artifact)
}

// printSamplePredictions reports a few spot checks so a training run is
// eyeballable without starting the service.
func printSamplePredictions(artifact *ml.Artifact) {
	titler := cases.Title(language.English)
	samples := []struct {
		crop  string
		month int
	}{
		{"tomato", 12},
		{"wheat", 6},
		{"onion", 3},
	}

	market := artifact.SupportedMarkets[0]
	marketCode, err := artifact.MarketEncoder.Encode(market)
	if err != nil {
		log.Printf("sample predictions skipped: %v", err)
		return
	}

	for _, sample := range samples {
		cropCode, err := artifact.CropEncoder.Encode(sample.crop)
		if err != nil {
			fmt.Printf("  %s not in training data, skipped\n", titler.String(sample.crop))
			continue
		}
		perQuintal, err := artifact.Model.Predict([]float64{float64(cropCode), float64(sample.month), float64(marketCode)})
		if err != nil {
			log.Printf("sample prediction failed for %s: %v", sample.crop, err)
			continue
		}
		fmt.Printf("  %-12s month %2d @ %s: Rs %.2f/quintal (Rs %.2f/kg)\n",
			titler.String(sample.crop), sample.month, market, perQuintal, perQuintal/100)
	}
}
