// Package features derives normalized conversation signals from messages.
package features

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/timestamp"
)

// Neutral is the value reported when a balance has no signal.
const Neutral = 0.5

// DefaultSilenceThreshold is the gap after which a message starts a new
// conversational burst.
const DefaultSilenceThreshold = 6 * time.Hour

// Options configures feature extraction.
type Options struct {
	SilenceThreshold time.Duration
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{SilenceThreshold: DefaultSilenceThreshold}
}

// Signals carries the outputs of external scorers.
type Signals struct {
	// Sentiment holds per-message scores in [-1, 1].
	Sentiment []float64
	// Toxicity is nil when no toxicity data was supplied.
	Toxicity *model.ToxicityReport
}

// emojiMarkers is the fixed set counted by EmojiDensity.
var emojiMarkers = []string{
	"😂", "🤣", "❤", "😍", "🥰", "😘", "😊", "🙂", "😁", "😅",
	"😉", "😭", "🥺", "🔥", "👍", "🙏", "✨", "💕", "💀", "🤔",
	":)", ":-)", ":D", ";)", "<3",
}

// Extract computes the feature vector of a conversation.
func Extract(msgs []model.Message, sig Signals, opts Options) model.FeatureVector {
	if opts.SilenceThreshold <= 0 {
		opts.SilenceThreshold = DefaultSilenceThreshold
	}
	instants := resolve(msgs)

	replies := replyMeans(msgs, instants)
	inits := initiationCounts(msgs, instants, opts.SilenceThreshold)
	initFloats := make(map[string]float64, len(inits))
	for s, n := range inits {
		initFloats[s] = float64(n)
	}

	fv := model.FeatureVector{
		ReplyTimeBalance:   round(Balance(replies), 4),
		InitiationBalance:  round(Balance(initFloats), 4),
		SentimentStability: round(SentimentStability(sig.Sentiment), 4),
		MsgLengthBalance:   round(LengthBalance(msgs), 4),
		EmojiDensity:       round(EmojiDensity(msgs), 4),
	}
	if sig.Toxicity != nil {
		fv.ToxicityImpact = round(clamp01(sig.Toxicity.ToxicityRate/100), 4)
	}
	return fv
}

// Balance returns min/max over the per-sender aggregates. Fewer than two
// senders, or a zero maximum, yields Neutral.
func Balance(values map[string]float64) float64 {
	if len(values) < 2 {
		return Neutral
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi <= 0 || math.IsNaN(lo) || math.IsNaN(hi) {
		return Neutral
	}
	return clamp01(lo / hi)
}

// SentimentStability returns max(0, 1 - population variance) of scores.
func SentimentStability(scores []float64) float64 {
	var vals []float64
	for _, s := range scores {
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			vals = append(vals, s)
		}
	}
	if len(vals) == 0 {
		return Neutral
	}
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var variance float64
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(vals))
	return clamp01(1 - variance)
}

// LengthBalance compares the mean body length of each sender.
func LengthBalance(msgs []model.Message) float64 {
	type acc struct {
		chars int
		count int
	}
	bySender := map[string]*acc{}
	for _, m := range msgs {
		a, ok := bySender[m.Sender]
		if !ok {
			a = &acc{}
			bySender[m.Sender] = a
		}
		a.chars += utf8.RuneCountInString(m.Body)
		a.count++
	}
	means := make(map[string]float64, len(bySender))
	for s, a := range bySender {
		means[s] = float64(a.chars) / float64(a.count)
	}
	return Balance(means)
}

// EmojiDensity is the fraction of messages containing at least one marker.
func EmojiDensity(msgs []model.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}
	n := 0
	for _, m := range msgs {
		if HasEmoji(m.Body) {
			n++
		}
	}
	return clamp01(float64(n) / float64(len(msgs)))
}

// HasEmoji reports whether text contains an emoji marker.
func HasEmoji(text string) bool {
	for _, e := range emojiMarkers {
		if strings.Contains(text, e) {
			return true
		}
	}
	return false
}

// Participants lists senders by message count, then name.
func Participants(msgs []model.Message) []model.Participant {
	idx := map[string]int{}
	var out []model.Participant
	chars := map[string]int{}
	for _, m := range msgs {
		i, ok := idx[m.Sender]
		if !ok {
			i = len(out)
			idx[m.Sender] = i
			out = append(out, model.Participant{Name: m.Sender})
		}
		out[i].MessageCount++
		chars[m.Sender] += utf8.RuneCountInString(m.Body)
	}
	for i := range out {
		out[i].AvgLength = round(float64(chars[out[i].Name])/float64(out[i].MessageCount), 2)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MessageCount != out[j].MessageCount {
			return out[i].MessageCount > out[j].MessageCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// instant is a message timestamp resolved on demand.
type instant struct {
	t  time.Time
	ok bool
}

func resolve(msgs []model.Message) []instant {
	out := make([]instant, len(msgs))
	for i, m := range msgs {
		t, err := timestamp.Parse(m.Timestamp)
		out[i] = instant{t: t, ok: err == nil}
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
