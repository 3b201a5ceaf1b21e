// Package persona assigns a conversation one of four persona labels.
package persona

import (
	"math"

	"github.com/rcliao/convoq/internal/model"
)

// Persona labels.
const (
	SynchronizedDuo = "Synchronized Duo"
	OneSided        = "One-Sided / Ghosting Risk"
	ProfessionalDry = "Professional / Dry Texter"
	HighEnergy      = "High-Energy / Emotional"
)

// Labels lists every persona in anchor order.
var Labels = [4]string{SynchronizedDuo, OneSided, ProfessionalDry, HighEnergy}

// Anchors are the reference vectors of each persona, in model.Dims order:
// reply balance, initiation balance, sentiment stability, length balance,
// emoji density.
var Anchors = [4]model.Dims{
	{0.70, 0.70, 0.85, 0.70, 0.15},
	{0.10, 0.10, 0.40, 0.20, 0.05},
	{0.50, 0.50, 0.90, 0.40, 0.00},
	{0.60, 0.60, 0.30, 0.60, 0.40},
}

// Classify returns the persona of a feature vector. It holds no state:
// the same five numbers always give the same label.
func Classify(fv model.FeatureVector) string {
	if fv.MsgLengthBalance > 0.8 && fv.EmojiDensity > 0.1 {
		return SynchronizedDuo
	}

	label := Labels[Nearest(fv.Dims())]

	if label == ProfessionalDry && fv.SentimentStability > 0.8 && fv.ReplyTimeBalance > 0.3 {
		return SynchronizedDuo
	}
	return label
}

// Nearest returns the index of the anchor closest to v after min-max
// scaling v jointly with the anchors. Ties go to the lower index.
func Nearest(v model.Dims) int {
	rows := make([]model.Dims, 0, len(Anchors)+1)
	rows = append(rows, Anchors[:]...)
	rows = append(rows, v)
	scaled := minMaxScale(rows)
	point := scaled[len(scaled)-1]

	best, bestDist := 0, math.Inf(1)
	for i := range Anchors {
		if d := sqDist(scaled[i], point); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// minMaxScale rescales every column to [0, 1]. A constant column maps to 0.
func minMaxScale(rows []model.Dims) []model.Dims {
	var lo, hi model.Dims
	for j := range lo {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
	}
	for _, r := range rows {
		for j, x := range r {
			lo[j] = math.Min(lo[j], x)
			hi[j] = math.Max(hi[j], x)
		}
	}

	out := make([]model.Dims, len(rows))
	for i, r := range rows {
		for j, x := range r {
			if span := hi[j] - lo[j]; span > 0 {
				out[i][j] = (x - lo[j]) / span
			}
		}
	}
	return out
}

func sqDist(a, b model.Dims) float64 {
	var d float64
	for i := range a {
		d += (a[i] - b[i]) * (a[i] - b[i])
	}
	return d
}
