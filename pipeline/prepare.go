package pipeline

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// dateLayout matches the government export's "01 Jan 2024" style dates.
const dateLayout = "02 Jan 2006"

// PrepareConfig holds the cleaning thresholds. They are configuration, not
// code, so a retraining run is reproducible and tunable.
type PrepareConfig struct {
	LowerPercentile  float64 `yaml:"lower_percentile" json:"lower_percentile"`
	UpperPercentile  float64 `yaml:"upper_percentile" json:"upper_percentile"`
	MinMarketSamples int     `yaml:"min_market_samples" json:"min_market_samples"`
}

// DefaultPrepareConfig returns the standard thresholds: prices outside the
// [1st, 99th] percentile band are treated as data-entry errors, and markets
// with fewer than 100 observations are too thin to train on.
func DefaultPrepareConfig() PrepareConfig {
	return PrepareConfig{
		LowerPercentile:  0.01,
		UpperPercentile:  0.99,
		MinMarketSamples: 100,
	}
}

// PrepareStats counts rows dropped at each cleaning stage. Diagnostics only;
// correctness never depends on it.
type PrepareStats struct {
	TotalRows    int     `json:"total_rows"`
	BadDate      int     `json:"bad_date"`
	MissingField int     `json:"missing_field"`
	BadPrice     int     `json:"bad_price"`
	OutlierPrice int     `json:"outlier_price"`
	UnmappedCrop int     `json:"unmapped_crop"`
	ThinMarket   int     `json:"thin_market"`
	Kept         int     `json:"kept"`
	PriceFloor   float64 `json:"price_floor"`
	PriceCeiling float64 `json:"price_ceiling"`
	MarketsKept  int     `json:"markets_kept"`
}

// Prepare produces the largest subset of prepared records satisfying every
// cleaning invariant, plus per-stage drop counts.
func Prepare(records []RawPriceRecord, config PrepareConfig) ([]PreparedRecord, PrepareStats, error) {
	stats := PrepareStats{TotalRows: len(records)}
	if len(records) == 0 {
		return nil, stats, errors.New("no raw records to prepare")
	}

	type parsedRow struct {
		crop   string
		market string
		price  float64
		month  int
		year   int
	}

	rows := make([]parsedRow, 0, len(records))
	for _, record := range records {
		crop := strings.TrimSpace(record.Commodity)
		market := strings.TrimSpace(record.Market)
		priceText := strings.TrimSpace(record.Price)
		if crop == "" || market == "" || priceText == "" {
			stats.MissingField++
			continue
		}
		date, err := time.Parse(dateLayout, strings.TrimSpace(record.Date))
		if err != nil {
			stats.BadDate++
			continue
		}
		price, err := strconv.ParseFloat(priceText, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			stats.BadPrice++
			continue
		}
		rows = append(rows, parsedRow{
			crop:   crop,
			market: market,
			price:  price,
			month:  int(date.Month()),
			year:   date.Year(),
		})
	}
	if len(rows) == 0 {
		return nil, stats, errors.New("every raw record failed basic cleaning")
	}

	prices := make([]float64, len(rows))
	for i, row := range rows {
		prices[i] = row.price
	}
	floor := percentile(prices, config.LowerPercentile)
	ceiling := percentile(prices, config.UpperPercentile)
	stats.PriceFloor = floor
	stats.PriceCeiling = ceiling

	marketCounts := make(map[string]int)
	mapped := make([]parsedRow, 0, len(rows))
	for _, row := range rows {
		if row.price < floor || row.price > ceiling {
			stats.OutlierPrice++
			continue
		}
		crop, ok := MapCrop(row.crop)
		if !ok {
			stats.UnmappedCrop++
			continue
		}
		row.crop = crop
		mapped = append(mapped, row)
		marketCounts[row.market]++
	}

	keptMarkets := make(map[string]bool, len(marketCounts))
	for market, count := range marketCounts {
		if count >= config.MinMarketSamples {
			keptMarkets[market] = true
		}
	}
	stats.MarketsKept = len(keptMarkets)

	prepared := make([]PreparedRecord, 0, len(mapped))
	for _, row := range mapped {
		if !keptMarkets[row.market] {
			stats.ThinMarket++
			continue
		}
		prepared = append(prepared, PreparedRecord{
			Crop:   row.crop,
			Market: row.market,
			Price:  row.price,
			Month:  row.month,
			Year:   row.year,
		})
	}
	stats.Kept = len(prepared)

	if len(prepared) == 0 {
		return nil, stats, errors.New("no records survived preparation")
	}
	return prepared, stats, nil
}

// percentile computes the q-th empirical percentile with linear
// interpolation between closest ranks.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
