// Package coach turns analysis metrics into a short narrative.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rcliao/convoq/internal/model"
)

// Narrator writes a narrative for an analysis report.
type Narrator interface {
	Narrate(ctx context.Context, r *model.Report) (*model.Narrative, error)
}

// Instructions is the system prompt sent with every request.
const Instructions = `You are a communication coach reviewing chat metrics.
Give a "Communication Vibe Check":
1. Summarize the vibe in a short label (e.g. "The Supportive Bestie", "The One-Sided Pursuit", "The High-Energy Duo").
2. Identify one green flag and one red flag based on the balance metrics.
3. Give 2 sentences of advice for improving the connection.

Tone: Gen-Z, minimalist, insightful. Do not be overly formal.
Return a single JSON object matching the schema. Do not include any additional text.`

// BuildPrompt renders the metrics of r as the user input.
func BuildPrompt(r *model.Report) string {
	var b strings.Builder
	b.WriteString("METRICS:\n")
	fmt.Fprintf(&b, "- Participants: %s\n", strings.Join(r.SenderNames(), ", "))
	fmt.Fprintf(&b, "- Health Score: %.2f/100\n", r.HealthScore)
	fmt.Fprintf(&b, "- Persona: %s\n", r.Persona)
	fmt.Fprintf(&b, "- Initiations: %s\n", formatCounts(r.Initiations))
	fmt.Fprintf(&b, "- Reply Time Balance: %.2f (1.0 is perfect balance)\n", r.Features.ReplyTimeBalance)
	fmt.Fprintf(&b, "- Sentiment Stability: %.2f\n", r.Features.SentimentStability)
	fmt.Fprintf(&b, "- Msg Length Balance: %.2f\n", r.Features.MsgLengthBalance)
	if r.Toxicity != nil {
		fmt.Fprintf(&b, "- Toxicity Rate: %.2f%%\n", r.Toxicity.ToxicityRate)
	}
	return b.String()
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%d", n, counts[n])
	}
	return strings.Join(parts, ", ")
}

// DecodeModelJSON unmarshals JSON from a model response, tolerating text
// wrapped around a single top-level object.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}
