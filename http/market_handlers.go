package http

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gaonbazar/db"
)

// buyerListing is a listing annotated with the model's fair price band and
// the sensor-verified quality flag.
type buyerListing struct {
	Crop            string  `json:"crop"`
	Quantity        int     `json:"quantity"`
	MinPrice        float64 `json:"min_price"`
	MaxPrice        float64 `json:"max_price"`
	QualityVerified bool    `json:"quality_verified"`
	Location        string  `json:"location"`
	Timestamp       string  `json:"timestamp"`
}

func (a *API) handleBuyerListings(w http.ResponseWriter, r *http.Request) {
	listings, err := a.store.Listings()
	if err != nil {
		a.logger.Error("failed to load listings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load listings")
		return
	}

	month := int(time.Now().Month())
	out := make([]buyerListing, 0, len(listings))
	for _, listing := range listings {
		entry := buyerListing{
			Crop:            listing.Crop,
			Quantity:        listing.Quantity,
			QualityVerified: a.sensors.Read().QualityVerified,
			Location:        listing.Location,
			Timestamp:       listing.CreatedAt.Format(time.RFC3339),
		}
		// Annotate with the model's band when the crop is servable;
		// unsupported crops are listed without a price suggestion.
		if prediction, err := a.predictor.Predict(listing.Crop, month); err == nil {
			entry.MinPrice = prediction.MinPrice
			entry.MaxPrice = prediction.MaxPrice
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

type orderRequest struct {
	Crop     string `json:"crop"`
	Quantity int    `json:"quantity"`
}

type orderResponse struct {
	Message string   `json:"message"`
	Order   db.Order `json:"order"`
}

func (a *API) handleBuyerOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Crop == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid crop or quantity")
		return
	}

	order, err := a.store.ConfirmOrder(req.Crop, req.Quantity)
	if err != nil {
		a.logger.Error("failed to confirm order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to confirm order")
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		Message: "Order confirmed successfully",
		Order:   order,
	})
}

type addListingRequest struct {
	Crop     string `json:"crop"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

func (a *API) handleAddListing(w http.ResponseWriter, r *http.Request) {
	var req addListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Crop == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid crop or quantity")
		return
	}

	listing, err := a.store.AddListing(req.Crop, req.Quantity, req.Location, "Hindi")
	if err != nil {
		a.logger.Error("failed to add listing", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add listing")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (a *API) handleStoreStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.GetStats()
	if err != nil {
		a.logger.Error("failed to load store stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load store stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
