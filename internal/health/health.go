// Package health computes the composite relationship health score.
package health

import (
	"math"

	"github.com/rcliao/convoq/internal/model"
)

// Weights apply to the feature vector in model.Dims order.
var Weights = model.Dims{0.30, 0.25, 0.20, 0.15, 0.10}

// Score returns the weighted feature sum scaled to 100, minus a toxicity
// penalty of ToxicityImpact*100. The result is never negative and is
// rounded to two decimals.
func Score(fv model.FeatureVector) float64 {
	var base float64
	for i, x := range fv.Dims() {
		base += Weights[i] * x
	}
	score := base*100 - fv.ToxicityImpact*100
	return math.Round(math.Max(0, score)*100) / 100
}
