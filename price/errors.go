package price

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelUnavailable is returned for every prediction while no valid
// artifact is loaded. The service boots and reports it rather than crashing;
// hosting environments probe liveness before a model exists.
var ErrModelUnavailable = errors.New("price model not loaded, train the model first")

// InvalidMonthError rejects a month outside 1..12.
type InvalidMonthError struct {
	Month int
}

func (e *InvalidMonthError) Error() string {
	return fmt.Sprintf("invalid month: %d, must be between 1 and 12", e.Month)
}

// UnsupportedCropError rejects a crop absent from the artifact's vocabulary.
// Available carries a bounded sample of valid crops so the caller can
// self-correct.
type UnsupportedCropError struct {
	Crop      string
	Available []string
}

func (e *UnsupportedCropError) Error() string {
	return fmt.Sprintf("crop %q not supported, available crops: %s", e.Crop, strings.Join(e.Available, ", "))
}
