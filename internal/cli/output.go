package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rcliao/convoq/internal/model"
)

// printOut writes v as indented JSON, or through text when --format=text.
func printOut(v interface{}, text func(w io.Writer)) {
	if formatFlag == "text" && text != nil {
		text(os.Stdout)
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func writeReport(w io.Writer, r *model.Report) {
	fmt.Fprintf(w, "Messages:      %d\n", r.TotalMessages)
	fmt.Fprintf(w, "Health score:  %.2f\n", r.HealthScore)
	fmt.Fprintf(w, "Persona:       %s\n", r.Persona)
	fmt.Fprintf(w, "Status:        %s\n", r.AnalysisStatus)

	fmt.Fprintln(w, "\nParticipants:")
	for _, p := range r.Participants {
		fmt.Fprintf(w, "  %-20s %5d msgs  avg %.1f chars  %d initiations\n",
			p.Name, p.MessageCount, p.AvgLength, r.Initiations[p.Name])
	}

	f := r.Features
	fmt.Fprintln(w, "\nFeatures:")
	fmt.Fprintf(w, "  reply balance       %.4f\n", f.ReplyTimeBalance)
	fmt.Fprintf(w, "  initiation balance  %.4f\n", f.InitiationBalance)
	fmt.Fprintf(w, "  sentiment stability %.4f\n", f.SentimentStability)
	fmt.Fprintf(w, "  length balance      %.4f\n", f.MsgLengthBalance)
	fmt.Fprintf(w, "  emoji density       %.4f\n", f.EmojiDensity)
	fmt.Fprintf(w, "  toxicity impact     %.4f\n", f.ToxicityImpact)

	if r.Toxicity != nil {
		fmt.Fprintf(w, "\nToxicity: %d flagged (%.2f%%)\n", r.Toxicity.ToxicCount, r.Toxicity.ToxicityRate)
	}
	if r.Semantic != nil {
		fmt.Fprintf(w, "Conflict scan: %s (%d events)\n", r.Semantic.Status, len(r.Semantic.Events))
		for _, e := range r.Semantic.Events {
			if e.Type != "" {
				fmt.Fprintf(w, "  %s  %s (%.2f): %s\n", e.Timestamp, e.Type, e.Confidence, e.Summary)
			} else {
				fmt.Fprintf(w, "  %s  avg sentiment %.3f\n", e.Timestamp, e.AvgSentiment)
			}
		}
	}
	if r.Trend != nil {
		writeTrend(w, r.Trend)
	}
	if r.Coach != nil {
		fmt.Fprintf(w, "\nVibe: %s\n  + %s\n  - %s\n  %s\n", r.Coach.Vibe, r.Coach.GreenFlag, r.Coach.RedFlag, r.Coach.Advice)
	}
}

func writeTrend(w io.Writer, t *model.Trend) {
	fmt.Fprintf(w, "\nTrend: %s [%s]\n", t.Decision, t.DecisionColor)
	for _, reason := range t.Reasons {
		fmt.Fprintf(w, "  - %s\n", reason)
	}
	if t.MetricsDelta != nil {
		fmt.Fprintf(w, "  health %+.1f, toxicity %+.1f\n", t.MetricsDelta.HealthChange, t.MetricsDelta.ToxicityChange)
	}
}

func writeAnalyses(w io.Writer, analyses []model.Analysis) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NS/KEY\tVERSION\tHEALTH\tPERSONA\tSTATUS\tCREATED")
	for _, a := range analyses {
		fmt.Fprintf(tw, "%s/%s\t%d\t%.2f\t%s\t%s\t%s\n",
			a.NS, a.Key, a.Version, a.HealthScore, a.Persona, a.Status, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func writeCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

func writeMessages(w io.Writer, msgs []model.Message) {
	for _, m := range msgs {
		fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp, m.Sender, strings.TrimSpace(m.Body))
	}
}
