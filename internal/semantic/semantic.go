// Package semantic scans a conversation for windows that look like a
// conflict.
package semantic

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/sentiment"
	"github.com/rcliao/convoq/internal/timestamp"
)

// Scan statuses.
const (
	StatusPeaceful = "Peaceful"
	StatusFlagged  = "Flagged"
)

// Triggers are words that hint at a quarrel.
var Triggers = []string{
	"hate", "blocking", "wtf", "rude", "stop",
	"whatever", "k", "fine", "dead", "bruh",
}

// Options configures a scan.
type Options struct {
	// Gap splits windows when the silence between two messages exceeds it.
	Gap time.Duration
	// MinMessages is the smallest window considered.
	MinMessages int
	// MaxEvents caps the number of reported windows.
	MaxEvents int
	// Threshold flags a window whose average sentiment is below it.
	Threshold float64
	// MinTriggers flags a window with at least this many distinct triggers.
	MinTriggers int
}

// DefaultOptions returns the default scan options.
func DefaultOptions() Options {
	return Options{
		Gap:         20 * time.Minute,
		MinMessages: 4,
		MaxEvents:   3,
		Threshold:   -0.15,
		MinTriggers: 2,
	}
}

// Scan splits msgs into interaction windows and reports the most negative
// suspicious ones. Messages with an unparseable timestamp are skipped.
// A message the analyzer cannot score counts as neutral.
func Scan(a sentiment.Analyzer, msgs []model.Message, opts Options) *model.ConflictScan {
	def := DefaultOptions()
	if opts.Gap <= 0 {
		opts.Gap = def.Gap
	}
	if opts.MinMessages <= 0 {
		opts.MinMessages = def.MinMessages
	}
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = def.MaxEvents
	}
	if opts.MinTriggers <= 0 {
		opts.MinTriggers = def.MinTriggers
	}

	var events []model.ConflictEvent
	for _, w := range Windows(msgs, opts.Gap) {
		if len(w) < opts.MinMessages {
			continue
		}
		avg := average(a, w)
		found := triggersIn(w)
		if avg >= opts.Threshold && len(found) < opts.MinTriggers {
			continue
		}
		lines := make([]string, len(w))
		for i, m := range w {
			lines[i] = m.Sender + ": " + m.Body
		}
		events = append(events, model.ConflictEvent{
			Timestamp:    w[0].Timestamp,
			AvgSentiment: math.Round(avg*1000) / 1000,
			Triggers:     found,
			Messages:     lines,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].AvgSentiment < events[j].AvgSentiment
	})
	if len(events) > opts.MaxEvents {
		events = events[:opts.MaxEvents]
	}

	if len(events) == 0 {
		return &model.ConflictScan{Status: StatusPeaceful, Events: []model.ConflictEvent{}}
	}
	return &model.ConflictScan{Status: StatusFlagged, Events: events}
}

// Windows groups consecutive messages whose gaps do not exceed gap.
func Windows(msgs []model.Message, gap time.Duration) [][]model.Message {
	var windows [][]model.Message
	var cur []model.Message
	var last time.Time
	for _, m := range msgs {
		t, err := timestamp.Parse(m.Timestamp)
		if err != nil {
			continue
		}
		if len(cur) > 0 && t.Sub(last) > gap {
			windows = append(windows, cur)
			cur = nil
		}
		cur = append(cur, m)
		last = t
	}
	if len(cur) > 0 {
		windows = append(windows, cur)
	}
	return windows
}

func average(a sentiment.Analyzer, w []model.Message) float64 {
	var total float64
	for _, m := range w {
		if s, err := a.Polarity(m.Body); err == nil {
			total += s
		}
	}
	return total / float64(len(w))
}

// triggersIn returns the distinct triggers used as whole words in w.
func triggersIn(w []model.Message) []string {
	words := map[string]bool{}
	for _, m := range w {
		for _, tok := range strings.FieldsFunc(strings.ToLower(m.Body), isSeparator) {
			words[tok] = true
		}
	}
	var found []string
	for _, t := range Triggers {
		if words[t] {
			found = append(found, t)
		}
	}
	return found
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
}
