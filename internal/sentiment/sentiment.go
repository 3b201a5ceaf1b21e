// Package sentiment scores message polarity and summarizes it over time.
package sentiment

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jonreiter/govader"

	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/timestamp"
)

// Analyzer returns the polarity of a text in [-1, 1].
type Analyzer interface {
	Polarity(text string) (float64, error)
}

// Vader is an Analyzer backed by the VADER lexicon.
type Vader struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVader loads the VADER lexicon.
func NewVader() *Vader {
	return &Vader{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity returns the VADER compound score of text.
func (v *Vader) Polarity(text string) (float64, error) {
	c := v.sia.PolarityScores(text).Compound
	if math.IsNaN(c) {
		return 0, fmt.Errorf("vader: no score for %q", text)
	}
	return c, nil
}

// Score runs a over every message. Messages the analyzer fails on are
// left out of the result; their errors are joined into the returned error.
func Score(a Analyzer, msgs []model.Message) ([]model.SentimentPoint, error) {
	points := make([]model.SentimentPoint, 0, len(msgs))
	var errs []error
	for _, m := range msgs {
		s, err := a.Polarity(m.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		points = append(points, model.SentimentPoint{
			Timestamp: m.Timestamp,
			Sender:    m.Sender,
			Score:     clamp(s),
		})
	}
	return points, errors.Join(errs...)
}

// Values returns the scores of points in order.
func Values(points []model.SentimentPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Score
	}
	return out
}

// Summarize aggregates points overall, per sender and per calendar day.
// Points with an unparseable timestamp count everywhere but the timeline.
func Summarize(points []model.SentimentPoint) *model.SentimentSummary {
	sum := &model.SentimentSummary{
		BySender: map[string]float64{},
		Timeline: []model.DailySentiment{},
		Scored:   len(points),
	}
	if len(points) == 0 {
		return sum
	}

	type acc struct {
		total float64
		count int
	}
	var total float64
	senders := map[string]*acc{}
	days := map[string]*acc{}
	add := func(m map[string]*acc, k string, v float64) {
		a, ok := m[k]
		if !ok {
			a = &acc{}
			m[k] = a
		}
		a.total += v
		a.count++
	}

	for _, p := range points {
		total += p.Score
		add(senders, p.Sender, p.Score)
		if t, err := timestamp.Parse(p.Timestamp); err == nil {
			add(days, t.Format("2006-01-02"), p.Score)
		}
	}

	sum.Average = round3(total / float64(len(points)))
	for s, a := range senders {
		sum.BySender[s] = round3(a.total / float64(a.count))
	}
	for d, a := range days {
		sum.Timeline = append(sum.Timeline, model.DailySentiment{
			Date:         d,
			AvgSentiment: round3(a.total / float64(a.count)),
		})
	}
	sort.Slice(sum.Timeline, func(i, j int) bool {
		return sum.Timeline[i].Date < sum.Timeline[j].Date
	})
	return sum
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
