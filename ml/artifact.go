package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Price units an artifact may declare. The government dataset denominates in
// rupees per quintal (100 kg); serving converts to per-kg based on this tag,
// never on a hard-coded assumption.
const (
	PriceUnitQuintal = "quintal"
	PriceUnitKg      = "kg"
)

// Artifact is the single hand-off between offline training and online
// serving: the fitted model together with the exact encoders used to train
// it. Read-only after load and shared across all concurrent requests.
type Artifact struct {
	Model            *ForestRegressor `json:"model"`
	CropEncoder      *LabelEncoder    `json:"crop_encoder"`
	MarketEncoder    *LabelEncoder    `json:"market_encoder"`
	SupportedCrops   []string         `json:"supported_crops"`
	SupportedMarkets []string         `json:"supported_markets"`
	PriceUnit        string           `json:"price_unit"`
	TrainedAt        time.Time        `json:"trained_at"`
	DataRows         int              `json:"data_rows"`
	FitScore         float64          `json:"fit_score"`
}

// Validate checks the artifact is servable. An empty market list fails here:
// serving picks the first supported market as its fixed default, so an
// artifact without markets can never answer a request and must not load.
func (a *Artifact) Validate() error {
	if a.Model == nil || len(a.Model.Trees) == 0 {
		return errors.New("artifact has no fitted model")
	}
	if a.CropEncoder == nil || a.CropEncoder.Cardinality() == 0 {
		return errors.New("artifact has no crop encoder")
	}
	if a.MarketEncoder == nil || a.MarketEncoder.Cardinality() == 0 {
		return errors.New("artifact has no market encoder")
	}
	if len(a.SupportedCrops) == 0 {
		return errors.New("artifact supports no crops")
	}
	if len(a.SupportedMarkets) == 0 {
		return errors.New("artifact supports no markets")
	}
	if a.PriceUnit != PriceUnitQuintal && a.PriceUnit != PriceUnitKg {
		return fmt.Errorf("unknown price unit %q", a.PriceUnit)
	}
	return nil
}

// Save serializes the artifact to path. The write is atomic: the payload
// goes to a temp file in the same directory and is renamed into place only
// after a successful write, so a failed run never clobbers the previous
// artifact and readers never observe a half-written one.
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid artifact: %w", err)
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// LoadArtifact reads and validates an artifact from path.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("corrupt artifact: %w", err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, err
	}
	return &artifact, nil
}
