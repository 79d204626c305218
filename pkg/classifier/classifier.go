// Package classifier is the inference side of the spending model: it labels
// an encoded expense as necessary (0) or unnecessary (1).
package classifier

import "ghostbudget/pkg/features"

const (
	// LabelNecessary marks a real expense.
	LabelNecessary = 0
	// LabelUnnecessary marks an expense that incurs a surcharge.
	LabelUnnecessary = 1
)

// Prediction is the output of a Classifier. Probability is the probability
// of LabelUnnecessary, or nil when the model does not produce one.
type Prediction struct {
	Label       int
	Probability *float64
}

// Classifier labels feature vectors. Implementations must be safe for
// concurrent use.
type Classifier interface {
	Predict(v features.Vector) (Prediction, error)
}

// Fixed always returns the same prediction. Useful for dry runs and tests.
type Fixed struct {
	Label       int
	Probability *float64
}

func (f Fixed) Predict(features.Vector) (Prediction, error) {
	return Prediction{Label: f.Label, Probability: f.Probability}, nil
}
