// Package iot simulates storage-condition sensor readings for produce
// quality verification.
package iot

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Ideal storage band for most vegetables.
const (
	idealTempLow  = 15.0
	idealTempHigh = 25.0
	idealHumLow   = 55.0
	idealHumHigh  = 75.0
)

// Reading is one sensor sample.
type Reading struct {
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	Freshness       int     `json:"freshness"`
	QualityVerified bool    `json:"quality_verified"`
}

// Simulator produces realistic sensor readings. The random source is owned
// by the simulator so tests can seed it.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a simulator seeded from seed; pass 0 for a
// time-based seed.
func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Read samples the simulated sensors once.
func (s *Simulator) Read() Reading {
	s.mu.Lock()
	temperature := math.Round((14+s.rng.Float64()*12)*10) / 10
	humidity := float64(50 + s.rng.Intn(31))
	freshness := freshnessScore(temperature, humidity, s.rng)
	s.mu.Unlock()

	return Reading{
		Temperature:     temperature,
		Humidity:        humidity,
		Freshness:       freshness,
		QualityVerified: inIdealBand(temperature, humidity),
	}
}

// freshnessScore models produce freshness from storage conditions: readings
// inside the ideal band score above 85, anything else drops below 70.
func freshnessScore(temperature, humidity float64, rng *rand.Rand) int {
	if inIdealBand(temperature, humidity) {
		return 85 + rng.Intn(11)
	}
	return 50 + rng.Intn(21)
}

func inIdealBand(temperature, humidity float64) bool {
	return temperature >= idealTempLow && temperature <= idealTempHigh &&
		humidity >= idealHumLow && humidity <= idealHumHigh
}
