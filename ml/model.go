package ml

import "errors"

var (
	ErrLengthMismatch  = errors.New("feature vector length mismatch")
	ErrUnsupportedKind = errors.New("unsupported artifact kind")
	ErrNotLoaded       = errors.New("artifact not loaded")
)

// Scaler maps a raw vector onto the distribution the classifier was trained on.
type Scaler interface {
	Transform(features []float64) ([]float64, error)
	Width() int
}

// Classifier is a binary model. Predict returns 0 for the negative class and 1
// for the positive class; PredictProba returns the positive-class probability.
type Classifier interface {
	Predict(features []float64) (int, error)
	PredictProba(features []float64) (float64, error)
}

// DecisionThreshold is the default positive-class cutoff of the source models.
const DecisionThreshold = 0.5

func labelFor(probability float64) int {
	if probability >= DecisionThreshold {
		return 1
	}
	return 0
}
