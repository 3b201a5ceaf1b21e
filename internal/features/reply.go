package features

import (
	"sort"
	"time"

	"github.com/rcliao/convoq/internal/model"
)

// ReplyTimes computes the reply-time breakdown of a conversation.
func ReplyTimes(msgs []model.Message) model.ReplyStats {
	instants := resolve(msgs)
	stats := model.ReplyStats{
		AvgReplyTime: map[string]float64{},
		PeakHours:    []model.HourCount{},
	}

	for s, mean := range replyMeans(msgs, instants) {
		stats.AvgReplyTime[s] = round(mean, 2)
	}

	for i := 1; i < len(msgs); i++ {
		cur, prev := instants[i], instants[i-1]
		if !cur.ok || !prev.ok {
			continue
		}
		minutes := cur.t.Sub(prev.t).Minutes()
		if minutes <= 0 {
			continue
		}
		g := &model.Gap{
			Minutes:   round(minutes, 2),
			Timestamp: msgs[i].Timestamp,
			From:      msgs[i-1].Sender,
			To:        msgs[i].Sender,
		}
		stats.TotalRepliesAnalyzed++
		if stats.FastestReply == nil || g.Minutes < stats.FastestReply.Minutes {
			stats.FastestReply = g
		}
		if stats.SlowestReply == nil || g.Minutes > stats.SlowestReply.Minutes {
			stats.SlowestReply = g
		}
	}
	stats.LongestGhosting = stats.SlowestReply

	stats.PeakHours = peakHours(instants, 3)
	return stats
}

// replyMeans returns the mean reply gap in minutes per replying sender.
// Only adjacent pairs with different senders and a positive gap count.
func replyMeans(msgs []model.Message, instants []instant) map[string]float64 {
	type acc struct {
		total float64
		count int
	}
	bySender := map[string]*acc{}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Sender == msgs[i-1].Sender {
			continue
		}
		cur, prev := instants[i], instants[i-1]
		if !cur.ok || !prev.ok {
			continue
		}
		gap := cur.t.Sub(prev.t)
		if gap <= 0 {
			continue
		}
		a, ok := bySender[msgs[i].Sender]
		if !ok {
			a = &acc{}
			bySender[msgs[i].Sender] = a
		}
		a.total += gap.Minutes()
		a.count++
	}
	means := make(map[string]float64, len(bySender))
	for s, a := range bySender {
		means[s] = a.total / float64(a.count)
	}
	return means
}

func peakHours(instants []instant, n int) []model.HourCount {
	counts := map[int]int{}
	for _, in := range instants {
		if in.ok {
			counts[in.t.Hour()]++
		}
	}
	out := make([]model.HourCount, 0, len(counts))
	for h, c := range counts {
		out = append(out, model.HourCount{Hour: h, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Initiations counts conversation starts per sender. The first message
// always initiates; later messages initiate when the silence since the
// last resolvable message exceeds threshold.
func Initiations(msgs []model.Message, threshold time.Duration) map[string]int {
	if threshold <= 0 {
		threshold = DefaultSilenceThreshold
	}
	return initiationCounts(msgs, resolve(msgs), threshold)
}

func initiationCounts(msgs []model.Message, instants []instant, threshold time.Duration) map[string]int {
	counts := map[string]int{}
	var prev time.Time
	havePrev := false
	for i, m := range msgs {
		in := instants[i]
		switch {
		case i == 0:
			counts[m.Sender]++
		case in.ok && havePrev && in.t.Sub(prev) > threshold:
			counts[m.Sender]++
		}
		if in.ok {
			prev = in.t
			havePrev = true
		}
	}
	return counts
}
