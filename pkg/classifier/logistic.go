package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"ghostbudget/pkg/features"
)

// KindLogisticRegression is the only artifact kind currently understood.
const KindLogisticRegression = "logistic_regression"

// Artifact is the on-disk form of a trained model.
type Artifact struct {
	Kind         string    `json:"kind"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold"`
}

// Logistic is a binary logistic-regression model. It is immutable once built.
type Logistic struct {
	coef      features.Vector
	intercept float64
	threshold float64
}

// Load reads a model artifact from path.
func Load(path string) (*Logistic, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrModelUnavailable, path, err)
	}
	return FromArtifact(a)
}

// FromArtifact validates a and builds the model.
func FromArtifact(a Artifact) (*Logistic, error) {
	if a.Kind != KindLogisticRegression {
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrModelUnavailable, a.Kind)
	}
	if len(a.Coefficients) != features.Size {
		return nil, fmt.Errorf("%w: expected %d coefficients, got %d", ErrModelUnavailable, features.Size, len(a.Coefficients))
	}
	if len(a.FeatureNames) != 0 {
		if len(a.FeatureNames) != features.Size {
			return nil, fmt.Errorf("%w: expected %d feature names, got %d", ErrModelUnavailable, features.Size, len(a.FeatureNames))
		}
		for i, n := range a.FeatureNames {
			if n != features.Names[i] {
				return nil, fmt.Errorf("%w: feature %d is %q, expected %q", ErrModelUnavailable, i, n, features.Names[i])
			}
		}
	}
	m := &Logistic{intercept: a.Intercept, threshold: a.Threshold}
	if m.threshold == 0 {
		m.threshold = 0.5
	}
	if !finite(m.intercept) || !finite(m.threshold) || m.threshold <= 0 || m.threshold >= 1 {
		return nil, fmt.Errorf("%w: invalid intercept or threshold", ErrModelUnavailable)
	}
	for i, c := range a.Coefficients {
		if !finite(c) {
			return nil, fmt.Errorf("%w: coefficient %d is not finite", ErrModelUnavailable, i)
		}
		m.coef[i] = c
	}
	return m, nil
}

// Probability returns P(label = 1 | v).
func (m *Logistic) Probability(v features.Vector) float64 {
	z := m.intercept
	for i := range v {
		z += m.coef[i] * v[i]
	}
	return 1 / (1 + math.Exp(-z))
}

func (m *Logistic) Predict(v features.Vector) (Prediction, error) {
	for i, x := range v {
		if !finite(x) {
			return Prediction{}, fmt.Errorf("feature %s is not finite", features.Names[i])
		}
	}
	p := m.Probability(v)
	label := LabelNecessary
	if p >= m.threshold {
		label = LabelUnnecessary
	}
	return Prediction{Label: label, Probability: &p}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
