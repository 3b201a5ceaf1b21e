// Package analysis runs the conversation pipeline: parse, extract, score,
// classify and compare against history.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rcliao/convoq/internal/coach"
	"github.com/rcliao/convoq/internal/features"
	"github.com/rcliao/convoq/internal/health"
	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/parser"
	"github.com/rcliao/convoq/internal/persona"
	"github.com/rcliao/convoq/internal/semantic"
	"github.com/rcliao/convoq/internal/sentiment"
	"github.com/rcliao/convoq/internal/timestamp"
	"github.com/rcliao/convoq/internal/toxicity"
	"github.com/rcliao/convoq/internal/trend"
)

// History supplies prior snapshots of a conversation, newest first.
type History interface {
	Recent(ctx context.Context, ns, key string, limit int) ([]model.Snapshot, error)
}

// Pipeline analyzes transcripts. Its collaborators are optional: a nil
// sentiment analyzer or toxicity detector yields neutral defaults.
type Pipeline struct {
	dateFormat timestamp.DateFormat
	silence    time.Duration
	fast       bool

	sentiment sentiment.Analyzer
	toxicity  *toxicity.Detector
	judge     semantic.Judge
	narrator  coach.Narrator
	history   History
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDateFormat sets the date-format hint used while parsing.
func WithDateFormat(f timestamp.DateFormat) Option {
	return func(p *Pipeline) { p.dateFormat = f }
}

// WithSilenceThreshold sets the gap after which a message initiates.
func WithSilenceThreshold(d time.Duration) Option {
	return func(p *Pipeline) { p.silence = d }
}

// WithFast skips toxicity, the conflict scan and trend evaluation and
// marks reports as pending a deep analysis.
func WithFast(fast bool) Option {
	return func(p *Pipeline) { p.fast = fast }
}

// WithSentiment sets the sentiment analyzer.
func WithSentiment(a sentiment.Analyzer) Option {
	return func(p *Pipeline) { p.sentiment = a }
}

// WithToxicity sets the toxicity detector.
func WithToxicity(d *toxicity.Detector) Option {
	return func(p *Pipeline) { p.toxicity = d }
}

// WithJudge sets the judge that labels flagged conflict windows.
func WithJudge(j semantic.Judge) Option {
	return func(p *Pipeline) { p.judge = j }
}

// WithNarrator sets the coach used by Narrate.
func WithNarrator(n coach.Narrator) Option {
	return func(p *Pipeline) { p.narrator = n }
}

// WithHistory sets the snapshot source used by AttachTrend.
func WithHistory(h History) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		dateFormat: timestamp.Auto,
		silence:    features.DefaultSilenceThreshold,
	}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

// Analyze runs the pipeline over a raw transcript. Only cancellation of
// ctx is returned as an error; collaborator failures degrade to no data.
func (p *Pipeline) Analyze(ctx context.Context, text string) (*model.Report, error) {
	msgs := parser.Parse(text, parser.Options{DateFormat: p.dateFormat})
	p.logger.Debug("parsed transcript", "messages", len(msgs))
	p.logUnparseable(msgs)

	report := &model.Report{
		TotalMessages:  len(msgs),
		Participants:   features.Participants(msgs),
		ReplyTime:      features.ReplyTimes(msgs),
		Initiations:    features.Initiations(msgs, p.silence),
		AnalysisStatus: model.StatusComplete,
	}
	if report.Participants == nil {
		report.Participants = []model.Participant{}
	}
	if p.fast {
		report.AnalysisStatus = model.StatusPendingDeep
	}

	var sig features.Signals
	if p.sentiment != nil {
		points, err := sentiment.Score(p.sentiment, msgs)
		if err != nil {
			p.logger.Warn("sentiment scoring incomplete", "scored", len(points), "messages", len(msgs), "error", err)
		}
		report.Sentiment = sentiment.Summarize(points)
		sig.Sentiment = sentiment.Values(points)
	}

	if !p.fast && p.toxicity != nil {
		tox, err := p.toxicity.Detect(ctx, msgs)
		if err != nil {
			return nil, fmt.Errorf("toxicity: %w", err)
		}
		report.Toxicity = tox
		sig.Toxicity = tox
	}

	report.Features = features.Extract(msgs, sig, features.Options{SilenceThreshold: p.silence})
	report.HealthScore = health.Score(report.Features)
	report.Persona = persona.Classify(report.Features)

	if !p.fast && p.sentiment != nil {
		scan := semantic.Scan(p.sentiment, msgs, semantic.DefaultOptions())
		if p.judge != nil && scan.Status == semantic.StatusFlagged {
			var err error
			if scan, err = p.judgeScan(ctx, scan); err != nil {
				return nil, err
			}
		}
		report.Semantic = scan
	}

	return report, nil
}

// judgeScan labels the events of a flagged scan. A judge failure is
// logged and keeps the local events.
func (p *Pipeline) judgeScan(ctx context.Context, scan *model.ConflictScan) (*model.ConflictScan, error) {
	verdicts, err := p.judge.Judge(ctx, scan.Events)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("conflict judge: %w", ctx.Err())
		}
		p.logger.Warn("conflict judge failed", "events", len(scan.Events), "error", err)
		return scan, nil
	}
	return semantic.Apply(scan, verdicts), nil
}

// AttachTrend evaluates report against the stored history of (ns, key)
// and sets report.Trend. Fast reports and pipelines without history are
// left untouched.
func (p *Pipeline) AttachTrend(ctx context.Context, report *model.Report, ns, key string) error {
	if p.history == nil || report.AnalysisStatus == model.StatusPendingDeep {
		return nil
	}
	prior, err := p.history.Recent(ctx, ns, key, trend.MaxHistory)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	t := trend.Evaluate(report.Snapshot(), prior)
	report.Trend = &t
	return nil
}

// Narrate asks the coach for a narrative and sets report.Coach. A coach
// failure is logged and leaves the report unchanged.
func (p *Pipeline) Narrate(ctx context.Context, report *model.Report) {
	if p.narrator == nil {
		p.logger.Warn("coach requested but not configured", "hint", "set OPENAI_API_KEY")
		return
	}
	n, err := p.narrator.Narrate(ctx, report)
	if err != nil {
		p.logger.Warn("coach narrative failed", "error", err)
		return
	}
	report.Coach = n
}

func (p *Pipeline) logUnparseable(msgs []model.Message) {
	if !p.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, m := range msgs {
		if _, err := timestamp.Parse(m.Timestamp); errors.Is(err, timestamp.ErrUnparseable) {
			p.logger.Debug("skipping unparseable timestamp", "sender", m.Sender, "timestamp", m.Timestamp)
		}
	}
}
