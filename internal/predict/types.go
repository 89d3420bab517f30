package predict

import (
	"context"

	"github.com/Brownie44l1/digit-sketchpad/internal/features"
)

// NumClasses is the number of digit classes every result must cover.
const NumClasses = 10

// Classifier turns a feature grid into a prediction.
type Classifier interface {
	Predict(ctx context.Context, grid features.Grid) (*Result, error)
}

type Request struct {
	Pixels features.Grid `json:"pixels"`
}

// Result is the label and per-class probabilities of one prediction.
type Result struct {
	Prediction    int       `json:"prediction"`
	Probabilities []float64 `json:"probabilities"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Validate reports ErrMalformedResponse when r does not describe NumClasses
// classes with probabilities in [0,1].
func (r *Result) Validate() error {
	if len(r.Probabilities) != NumClasses {
		return malformed("expected %d probabilities, got %d", NumClasses, len(r.Probabilities))
	}
	if r.Prediction < 0 || r.Prediction >= NumClasses {
		return malformed("prediction %d out of range", r.Prediction)
	}
	for i, p := range r.Probabilities {
		if !(p >= 0 && p <= 1) {
			return malformed("probability %d is %v, want a value in [0,1]", i, p)
		}
	}
	return nil
}
