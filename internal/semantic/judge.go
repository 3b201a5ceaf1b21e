package semantic

import (
	"context"
	"math"
	"strings"

	"github.com/rcliao/convoq/internal/model"
)

// StatusAnalyzed marks a scan whose events were labeled by a Judge.
const StatusAnalyzed = "Analyzed"

// Labels a Judge may assign to a window.
const (
	LabelQuarrel = "Quarrel"
	LabelBanter  = "Banter"
	LabelSerious = "Serious"
)

// Verdict is a judge's label for the event at index ID of a scan.
type Verdict struct {
	ID         int
	Type       string
	Confidence float64
	Summary    string
}

// Judge labels suspicious windows found by Scan.
type Judge interface {
	Judge(ctx context.Context, events []model.ConflictEvent) ([]Verdict, error)
}

// Apply merges verdicts into scan and returns the result. Verdicts whose
// ID matches no event are dropped and events without a verdict keep their
// local data. The status becomes Analyzed once any verdict applies.
func Apply(scan *model.ConflictScan, verdicts []Verdict) *model.ConflictScan {
	if scan == nil || len(scan.Events) == 0 {
		return scan
	}
	events := append([]model.ConflictEvent(nil), scan.Events...)
	applied := 0
	for _, v := range verdicts {
		if v.ID < 0 || v.ID >= len(events) {
			continue
		}
		e := &events[v.ID]
		e.Type = strings.TrimSpace(v.Type)
		e.Confidence = math.Round(math.Max(0, math.Min(1, v.Confidence))*100) / 100
		e.Summary = strings.TrimSpace(v.Summary)
		applied++
	}
	status := scan.Status
	if applied > 0 {
		status = StatusAnalyzed
	}
	return &model.ConflictScan{Status: status, Events: events}
}
