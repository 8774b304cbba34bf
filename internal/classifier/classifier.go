// Package classifier maps fixed-length feature vectors to class indices.
package classifier

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when a feature vector or model output has
	// the wrong length.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Classifier maps a feature vector to a class index.
type Classifier interface {
	Classify(features []float64) (int, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(features []float64) (int, error)

func (f ClassifierFunc) Classify(features []float64) (int, error) {
	return f(features)
}

// Model is a loaded, immutable scoring function.
type Model interface {
	// Scores returns one score per class for features of length InputSize.
	Scores(features []float64) ([]float64, error)
	InputSize() int
	NumClasses() int
}

// ModelClassifier picks the highest scoring class of a Model.
type ModelClassifier struct {
	model     Model
	threshold float64
	fallback  int
}

// Option configures a ModelClassifier.
type Option func(*ModelClassifier)

// WithThreshold makes Classify return fallback whenever the best score is
// below threshold.
func WithThreshold(threshold float64, fallback int) Option {
	return func(c *ModelClassifier) {
		c.threshold = threshold
		c.fallback = fallback
	}
}

func NewModelClassifier(model Model, opts ...Option) *ModelClassifier {
	c := &ModelClassifier{model: model}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NumClasses returns the number of classes the wrapped model scores.
func (c *ModelClassifier) NumClasses() int {
	return c.model.NumClasses()
}

func (c *ModelClassifier) InputSize() int {
	return c.model.InputSize()
}

// Classify returns the argmax of the model scores. Ties go to the lower index.
func (c *ModelClassifier) Classify(features []float64) (int, error) {
	if len(features) != c.model.InputSize() {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(features), c.model.InputSize())
	}

	scores, err := c.model.Scores(features)
	if err != nil {
		return 0, err
	}
	if len(scores) != c.model.NumClasses() || len(scores) == 0 {
		return 0, fmt.Errorf("%w: model returned %d scores, want %d", ErrShapeMismatch, len(scores), c.model.NumClasses())
	}

	best := 0
	for i, s := range scores[1:] {
		if s > scores[best] {
			best = i + 1
		}
	}

	if c.threshold > 0 && scores[best] < c.threshold {
		return c.fallback, nil
	}
	return best, nil
}
