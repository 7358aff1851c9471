package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gaonbazar/db"
	"gaonbazar/iot"
	"gaonbazar/price"
	"gaonbazar/voice"
)

// API holds the handlers' collaborators. Everything is injected: no
// package-level mutable state, so tests get isolated instances.
type API struct {
	predictor *price.Service
	store     *db.Store
	sensors   *iot.Simulator
	logger    *zap.Logger
}

// NewAPI wires the API surface.
func NewAPI(predictor *price.Service, store *db.Store, sensors *iot.Simulator, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		predictor: predictor,
		store:     store,
		sensors:   sensors,
		logger:    logger,
	}
}

// Register mounts every route on the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("POST /api/predict-price", a.handlePredictPrice)
	mux.HandleFunc("POST /api/voice-input", a.handleVoiceInput)
	mux.HandleFunc("GET /api/iot/quality", a.handleIoTQuality)
	mux.HandleFunc("GET /api/iot/stream", a.handleIoTStream)
	mux.HandleFunc("GET /api/buyer/listings", a.handleBuyerListings)
	mux.HandleFunc("POST /api/buyer/order", a.handleBuyerOrder)
	mux.HandleFunc("POST /api/farmer/add-listing", a.handleAddListing)
	mux.HandleFunc("GET /api/store/stats", a.handleStoreStats)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": a.predictor.Ready(),
	})
}

type predictRequest struct {
	Crop  string `json:"crop"`
	Month int    `json:"month"`
}

func (a *API) handlePredictPrice(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prediction, err := a.predictor.Predict(req.Crop, req.Month)
	if err != nil {
		a.writePredictError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

// writePredictError maps the prediction error taxonomy onto status codes:
// model unavailable is a service-level failure, validation errors are the
// caller's to fix, anything else is internal.
func (a *API) writePredictError(w http.ResponseWriter, err error) {
	var invalidMonth *price.InvalidMonthError
	var unsupportedCrop *price.UnsupportedCropError

	switch {
	case errors.Is(err, price.ErrModelUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &invalidMonth), errors.As(err, &unsupportedCrop):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error("prediction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "prediction error: "+err.Error())
	}
}

type voiceRequest struct {
	Text string `json:"text"`
}

func (a *API) handleVoiceInput(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, voice.Extract(req.Text))
}

func (a *API) handleIoTQuality(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.sensors.Read())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}
