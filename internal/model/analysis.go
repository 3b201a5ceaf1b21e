// Package model defines the core conversation analysis data types.
package model

import "time"

// Analysis statuses.
const (
	StatusComplete    = "complete"
	StatusPendingDeep = "pending_deep"
)

// Message is one chat message reconstructed from a transcript.
type Message struct {
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`
}

// Dims is the positional feature vector shared by the health scorer and
// the persona classifier: reply, initiation, sentiment, length, emoji.
// Both consumers index it by position, so their weights and anchors are
// declared with this type and change together.
type Dims [5]float64

// FeatureVector holds the normalized conversation signals.
type FeatureVector struct {
	ReplyTimeBalance   float64 `json:"reply_time_balance"`
	InitiationBalance  float64 `json:"initiation_balance"`
	SentimentStability float64 `json:"sentiment_stability"`
	MsgLengthBalance   float64 `json:"msg_length_balance"`
	EmojiDensity       float64 `json:"emoji_density"`
	ToxicityImpact     float64 `json:"toxicity_impact"`
}

// Dims returns the five scored dimensions in positional order.
// Toxicity impact is not part of the vector.
func (f FeatureVector) Dims() Dims {
	return Dims{
		f.ReplyTimeBalance,
		f.InitiationBalance,
		f.SentimentStability,
		f.MsgLengthBalance,
		f.EmojiDensity,
	}
}

// Participant summarizes one sender.
type Participant struct {
	Name         string  `json:"name"`
	MessageCount int     `json:"message_count"`
	AvgLength    float64 `json:"avg_length"`
}

// Gap is the time between two adjacent messages.
type Gap struct {
	Minutes   float64 `json:"minutes"`
	Timestamp string  `json:"timestamp"`
	From      string  `json:"from"`
	To        string  `json:"to"`
}

// HourCount is the number of messages sent in a given hour of day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// ReplyStats is the reply-time breakdown of a conversation.
type ReplyStats struct {
	AvgReplyTime         map[string]float64 `json:"avg_reply_time"`
	FastestReply         *Gap               `json:"fastest_reply"`
	SlowestReply         *Gap               `json:"slowest_reply"`
	LongestGhosting      *Gap               `json:"longest_ghosting"`
	PeakHours            []HourCount        `json:"peak_hours"`
	TotalRepliesAnalyzed int                `json:"total_replies_analyzed"`
}

// SentimentPoint is the sentiment score of one message.
type SentimentPoint struct {
	Timestamp string  `json:"timestamp"`
	Sender    string  `json:"sender"`
	Score     float64 `json:"sentiment"`
}

// DailySentiment is the average sentiment of one calendar day.
type DailySentiment struct {
	Date         string  `json:"date"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// SentimentSummary aggregates per-message sentiment.
type SentimentSummary struct {
	Average  float64            `json:"average"`
	BySender map[string]float64 `json:"by_sender"`
	Timeline []DailySentiment   `json:"timeline"`
	Scored   int                `json:"scored"`
}

// ToxicMessage is one flagged message.
type ToxicMessage struct {
	Timestamp string             `json:"timestamp"`
	Sender    string             `json:"sender"`
	Scores    map[string]float64 `json:"scores,omitempty"`
	Severity  string             `json:"severity"`
}

// ToxicityReport is the output of a toxicity provider.
type ToxicityReport struct {
	ToxicCount    int            `json:"toxic_count"`
	ToxicMessages []ToxicMessage `json:"toxic_messages"`
	ToxicityRate  float64        `json:"toxicity_rate"`
}

// ConflictEvent is one suspicious interaction window.
type ConflictEvent struct {
	Timestamp    string   `json:"timestamp"`
	AvgSentiment float64  `json:"avg_sentiment"`
	Triggers     []string `json:"triggers,omitempty"`
	Messages     []string `json:"messages"`

	// Set when a judge labeled the window.
	Type       string  `json:"type,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Summary    string  `json:"summary,omitempty"`
}

// ConflictScan is the result of the semantic conflict scan.
type ConflictScan struct {
	Status string          `json:"status"`
	Events []ConflictEvent `json:"events"`
}

// Narrative is a coach-generated summary of a conversation.
type Narrative struct {
	Vibe      string `json:"vibe"`
	GreenFlag string `json:"green_flag"`
	RedFlag   string `json:"red_flag"`
	Advice    string `json:"advice"`
}

// MetricsDelta is the change of the current snapshot against the mean of
// the preceding snapshots in the trend window.
type MetricsDelta struct {
	HealthChange   float64 `json:"health_change"`
	ToxicityChange float64 `json:"toxicity_change"`
}

// Trend is the longitudinal decision for a conversation.
type Trend struct {
	Decision      string        `json:"decision"`
	DecisionColor string        `json:"decision_color"`
	Reasons       []string      `json:"reasons"`
	MetricsDelta  *MetricsDelta `json:"metrics_delta,omitempty"`
}

// Snapshot is the persisted unit used for trend comparison.
type Snapshot struct {
	HealthScore  float64       `json:"health_score"`
	ToxicityRate float64       `json:"toxicity_rate"`
	Features     FeatureVector `json:"features"`
	Status       string        `json:"analysis_status"`
}

// Complete reports whether the snapshot came from a finished deep analysis.
func (s Snapshot) Complete() bool {
	return s.Status != StatusPendingDeep
}

// Report is the full output of one analysis run.
type Report struct {
	TotalMessages  int               `json:"total_messages"`
	Participants   []Participant     `json:"participants"`
	Features       FeatureVector     `json:"features"`
	HealthScore    float64           `json:"health_score"`
	Persona        string            `json:"persona_tag"`
	ReplyTime      ReplyStats        `json:"reply_time"`
	Initiations    map[string]int    `json:"initiations"`
	Sentiment      *SentimentSummary `json:"sentiment,omitempty"`
	Toxicity       *ToxicityReport   `json:"toxicity,omitempty"`
	Semantic       *ConflictScan     `json:"semantic,omitempty"`
	Trend          *Trend            `json:"trend,omitempty"`
	Coach          *Narrative        `json:"coach,omitempty"`
	AnalysisStatus string            `json:"analysis_status"`
}

// Snapshot extracts the trend-comparison unit from the report.
func (r *Report) Snapshot() Snapshot {
	s := Snapshot{
		HealthScore: r.HealthScore,
		Features:    r.Features,
		Status:      r.AnalysisStatus,
	}
	if r.Toxicity != nil {
		s.ToxicityRate = r.Toxicity.ToxicityRate
	}
	return s
}

// SenderNames returns participant names in report order.
func (r *Report) SenderNames() []string {
	names := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		names = append(names, p.Name)
	}
	return names
}

// Analysis is a stored analysis entry.
type Analysis struct {
	ID            string        `json:"id"`
	NS            string        `json:"ns"`
	Key           string        `json:"key"`
	Version       int           `json:"version"`
	Supersedes    string        `json:"supersedes,omitempty"`
	Status        string        `json:"analysis_status"`
	TotalMessages int           `json:"total_messages"`
	HealthScore   float64       `json:"health_score"`
	ToxicityRate  float64       `json:"toxicity_rate"`
	Persona       string        `json:"persona_tag"`
	Features      FeatureVector `json:"features"`
	Report        *Report       `json:"full_data,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty"`
}

// Snapshot returns the trend-comparison unit of the stored analysis.
func (a Analysis) Snapshot() Snapshot {
	return Snapshot{
		HealthScore:  a.HealthScore,
		ToxicityRate: a.ToxicityRate,
		Features:     a.Features,
		Status:       a.Status,
	}
}

// ValidStatuses are the allowed analysis statuses.
var ValidStatuses = map[string]bool{
	StatusComplete:    true,
	StatusPendingDeep: true,
}
