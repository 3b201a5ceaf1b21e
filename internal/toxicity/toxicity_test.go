package toxicity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rcliao/convoq/internal/model"
)

func msgs(bodies ...string) []model.Message {
	out := make([]model.Message, len(bodies))
	for i, b := range bodies {
		out[i] = model.Message{Timestamp: "1/5/24 10:00 AM", Sender: "Alice", Body: b}
	}
	return out
}

type fakeClassifier struct {
	scores map[string]map[string]float64
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (map[string]float64, error) {
	f.calls++
	s, ok := f.scores[text]
	if !ok {
		return nil, errors.New("unavailable")
	}
	return s, nil
}

func TestLocalHit(t *testing.T) {
	d := New()
	tests := []struct {
		text     string
		expected bool
	}{
		{"you are so annoying", true},
		{"Shut up already", true},
		{"I HATE mondays", true},
		{"whatever works", false},
		{"see you later", false},
	}
	for _, tt := range tests {
		if got := d.LocalHit(tt.text); got != tt.expected {
			t.Errorf("LocalHit(%q) = %v, want %v", tt.text, got, tt.expected)
		}
	}
}

func TestDetectLocal(t *testing.T) {
	report, err := New().Detect(context.Background(), msgs("hi there", "you idiot", "k", "ok cool", "stfu"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ToxicCount != 2 {
		t.Errorf("expected 2 toxic messages, got %d", report.ToxicCount)
	}
	if report.ToxicityRate != 40 {
		t.Errorf("expected rate 40, got %f", report.ToxicityRate)
	}
	for _, m := range report.ToxicMessages {
		if m.Severity != SeverityHigh {
			t.Errorf("expected local hits to be high severity, got %q", m.Severity)
		}
	}
}

func TestDetectRemote(t *testing.T) {
	fc := &fakeClassifier{scores: map[string]map[string]float64{
		"you are the worst": {"toxic": 0.9, "insult": 0.6},
		"meh":               {"toxic": 0.1, "insult": 0.55},
		"great day":         {"toxic": 0.01},
	}}
	d := New(WithRedFlags(nil), WithClassifier(fc))
	report, err := d.Detect(context.Background(), msgs("you are the worst", "meh", "great day", "offline"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.calls != 4 {
		t.Errorf("expected 4 classifier calls, got %d", fc.calls)
	}
	if report.ToxicCount != 2 {
		t.Fatalf("expected 2 toxic messages, got %d", report.ToxicCount)
	}
	if report.ToxicMessages[0].Severity != SeverityHigh {
		t.Errorf("expected high severity, got %q", report.ToxicMessages[0].Severity)
	}
	if report.ToxicMessages[1].Severity != SeverityModerate {
		t.Errorf("expected moderate severity, got %q", report.ToxicMessages[1].Severity)
	}
	if report.ToxicMessages[1].Scores["insult"] != 0.55 {
		t.Errorf("expected remote scores kept, got %v", report.ToxicMessages[1].Scores)
	}
	if report.ToxicityRate != 50 {
		t.Errorf("expected rate 50, got %f", report.ToxicityRate)
	}
}

func TestDetectEmpty(t *testing.T) {
	report, err := New().Detect(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ToxicCount != 0 || report.ToxicityRate != 0 || report.ToxicMessages == nil {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestDetectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Detect(ctx, msgs("hello")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestHuggingFaceClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}
		var req hfRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Inputs == "boom" {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[[{"label":"toxic","score":0.92},{"label":"insult","score":0.4}]]`))
	}))
	defer srv.Close()

	c := NewHuggingFaceClassifier(srv.URL, "secret")
	scores, err := c.Classify(context.Background(), "you loser")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores["toxic"] != 0.92 || scores["insult"] != 0.4 {
		t.Errorf("unexpected scores: %v", scores)
	}

	_, err = c.Classify(context.Background(), "boom")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestDecodeLabelsFlat(t *testing.T) {
	scores, err := decodeLabels([]byte(`[{"label":"toxic","score":0.3}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores["toxic"] != 0.3 {
		t.Errorf("unexpected scores: %v", scores)
	}
	if _, err := decodeLabels([]byte(`{"error":"loading"}`)); err == nil {
		t.Error("expected error for object response")
	}
}

func TestNewForProvider(t *testing.T) {
	d, err := NewForProvider("off")
	if err != nil || d != nil {
		t.Errorf("expected nil detector for off, got %v, %v", d, err)
	}
	d, err = NewForProvider("")
	if err != nil || d == nil || d.remote != nil {
		t.Errorf("expected local detector, got %+v, %v", d, err)
	}
	d, err = NewForProvider(ProviderHuggingFace)
	if err != nil || d == nil || d.remote == nil {
		t.Errorf("expected remote detector, got %+v, %v", d, err)
	}
	if _, err := NewForProvider("bogus"); err == nil {
		t.Error("expected error for unknown provider")
	}
}
