// Package features turns pixel-space landmarks and fingertip trajectories
// into the fixed-length vectors the classifiers consume.
package features

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/talkheal/gesturemode/internal/detector"
)

// StaticSize is the length of a static pose vector.
const StaticSize = 2 * detector.NumLandmarks

// NormalizeStatic translates every point relative to the first one, flattens
// to x0,y0,x1,y1,... and divides by the largest absolute value. A zero
// maximum leaves the vector all zeros.
func NormalizeStatic(points []detector.Point) []float64 {
	return relativeScaled(points)
}

// NormalizeTrajectory applies the same procedure to a point history. It
// returns false until the history holds capacity points, so the caller
// can skip motion classification.
func NormalizeTrajectory(points []detector.Point, capacity int) ([]float64, bool) {
	if capacity <= 0 || len(points) < capacity {
		return nil, false
	}
	return relativeScaled(points[len(points)-capacity:]), true
}

func relativeScaled(points []detector.Point) []float64 {
	out := make([]float64, 2*len(points))
	if len(points) == 0 {
		return out
	}

	origin := points[0]
	for i, p := range points {
		out[2*i] = p.X - origin.X
		out[2*i+1] = p.Y - origin.Y
	}

	maxAbs := floats.Norm(out, math.Inf(1))
	if maxAbs == 0 {
		return out
	}
	// Division keeps the extreme element at exactly +-1.
	for i := range out {
		out[i] /= maxAbs
	}
	return out
}
