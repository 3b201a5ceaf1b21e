// Package toxicity flags hostile messages using a local red-flag lexicon
// and an optional remote classifier.
package toxicity

import (
	"context"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/convoq/internal/model"
)

// Severities.
const (
	SeverityHigh     = "high"
	SeverityModerate = "moderate"
)

const (
	minLength      = 2
	flagThreshold  = 0.5
	severeToxicity = 0.7
	toxicLabel     = "toxic"
)

// RedFlags is the default local lexicon.
var RedFlags = []string{
	"pathetic", "idiot", "loser", "shut up", "annoying",
	"suffocating", "hate", "toxic", "stfu",
}

// Classifier scores a text per label, each score in [0, 1].
type Classifier interface {
	Classify(ctx context.Context, text string) (map[string]float64, error)
}

// Detector flags toxic messages. The zero value uses no lexicon and no
// remote classifier; use New for the defaults.
type Detector struct {
	lexicon *regexp.Regexp
	remote  Classifier
	logger  *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithRedFlags replaces the local lexicon. An empty list disables it.
func WithRedFlags(words []string) Option {
	return func(d *Detector) { d.lexicon = compileLexicon(words) }
}

// WithClassifier adds a remote classifier.
func WithClassifier(c Classifier) Option {
	return func(d *Detector) { d.remote = c }
}

// WithLogger sets the logger used for dropped classifications.
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// New returns a Detector using RedFlags and no remote classifier.
func New(opts ...Option) *Detector {
	d := &Detector{lexicon: compileLexicon(RedFlags)}
	for _, o := range opts {
		o(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d
}

func compileLexicon(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(w))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// LocalHit reports whether text contains a red-flag term as a whole word.
func (d *Detector) LocalHit(text string) bool {
	return d.lexicon != nil && d.lexicon.MatchString(strings.ToLower(text))
}

// Detect scans msgs and reports the flagged ones. A remote failure on one
// message drops only that message's remote scores. Only cancellation of
// ctx is returned as an error.
func (d *Detector) Detect(ctx context.Context, msgs []model.Message) (*model.ToxicityReport, error) {
	report := &model.ToxicityReport{ToxicMessages: []model.ToxicMessage{}}
	failures := 0

	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(m.Body) < minLength {
			continue
		}

		local := d.LocalHit(m.Body)

		var scores map[string]float64
		if d.remote != nil {
			s, err := d.remote.Classify(ctx, m.Body)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				failures++
				d.logger.Debug("toxicity classification dropped", "sender", m.Sender, "timestamp", m.Timestamp, "error", err)
			} else {
				scores = s
			}
		}

		remote := false
		for _, v := range scores {
			if v > flagThreshold {
				remote = true
				break
			}
		}
		if !local && !remote {
			continue
		}

		severity := SeverityModerate
		if local || scores[toxicLabel] > severeToxicity {
			severity = SeverityHigh
		}
		report.ToxicMessages = append(report.ToxicMessages, model.ToxicMessage{
			Timestamp: m.Timestamp,
			Sender:    m.Sender,
			Scores:    scores,
			Severity:  severity,
		})
	}

	if failures > 0 {
		d.logger.Warn("remote toxicity classifier failed", "messages", failures)
	}

	report.ToxicCount = len(report.ToxicMessages)
	if len(msgs) > 0 {
		rate := float64(report.ToxicCount) / float64(len(msgs)) * 100
		report.ToxicityRate = math.Round(rate*100) / 100
	}
	return report, nil
}
