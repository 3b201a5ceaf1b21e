package semantic

import (
	"strings"
	"testing"
	"time"

	"github.com/rcliao/convoq/internal/model"
)

// keywords scores any text containing a listed word.
type keywords map[string]float64

func (k keywords) Polarity(text string) (float64, error) {
	for w, s := range k {
		if strings.Contains(text, w) {
			return s, nil
		}
	}
	return 0, nil
}

func at(ts, sender, body string) model.Message {
	return model.Message{Timestamp: ts, Sender: sender, Body: body}
}

func TestWindows(t *testing.T) {
	msgs := []model.Message{
		at("1/5/24 10:00 AM", "a", "1"),
		at("1/5/24 10:15 AM", "b", "2"),
		at("bad", "a", "skipped"),
		at("1/5/24 10:35 AM", "a", "3"),
		at("1/5/24 11:00 AM", "b", "4"),
	}
	got := Windows(msgs, 20*time.Minute)
	if len(got) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(got))
	}
	if len(got[0]) != 3 || len(got[1]) != 1 {
		t.Errorf("unexpected window sizes: %d, %d", len(got[0]), len(got[1]))
	}
}

func TestScanPeaceful(t *testing.T) {
	msgs := []model.Message{
		at("1/5/24 10:00 AM", "a", "hey"),
		at("1/5/24 10:01 AM", "b", "hi"),
		at("1/5/24 10:02 AM", "a", "lunch?"),
		at("1/5/24 10:03 AM", "b", "yes please"),
	}
	got := Scan(keywords{}, msgs, DefaultOptions())
	if got.Status != StatusPeaceful || len(got.Events) != 0 {
		t.Errorf("expected peaceful scan, got %+v", got)
	}
}

func TestScanTriggers(t *testing.T) {
	msgs := []model.Message{
		at("1/5/24 10:00 AM", "a", "whatever."),
		at("1/5/24 10:01 AM", "b", "k"),
		at("1/5/24 10:02 AM", "a", "fine"),
		at("1/5/24 10:03 AM", "b", "bye"),
	}
	got := Scan(keywords{}, msgs, DefaultOptions())
	if got.Status != StatusFlagged || len(got.Events) != 1 {
		t.Fatalf("expected one flagged event, got %+v", got)
	}
	ev := got.Events[0]
	if strings.Join(ev.Triggers, ",") != "whatever,k,fine" {
		t.Errorf("unexpected triggers: %v", ev.Triggers)
	}
	if ev.Messages[0] != "a: whatever." || ev.Timestamp != "1/5/24 10:00 AM" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestScanShortWindowIgnored(t *testing.T) {
	msgs := []model.Message{
		at("1/5/24 10:00 AM", "a", "wtf"),
		at("1/5/24 10:01 AM", "b", "bruh"),
		at("1/5/24 10:02 AM", "a", "rude"),
	}
	if got := Scan(keywords{}, msgs, DefaultOptions()); got.Status != StatusPeaceful {
		t.Errorf("expected short window to be ignored, got %+v", got)
	}
}

func TestScanMostNegativeFirst(t *testing.T) {
	a := keywords{"sad": -0.4, "awful": -0.9}
	var msgs []model.Message
	for h, word := range []string{"sad", "awful", "sad", "awful"} {
		for i := 0; i < 4; i++ {
			ts := time.Date(2024, 1, 5, 8+h*2, i, 0, 0, time.UTC).Format("2006-01-02 15:04:05")
			msgs = append(msgs, at(ts, "a", word))
		}
	}
	got := Scan(a, msgs, Options{MaxEvents: 3})
	if len(got.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got.Events))
	}
	if got.Events[0].AvgSentiment != -0.9 || got.Events[1].AvgSentiment != -0.9 || got.Events[2].AvgSentiment != -0.4 {
		t.Errorf("unexpected ordering: %+v", got.Events)
	}
	// Stable within equal scores.
	if got.Events[0].Timestamp != "2024-01-05 10:00:00" {
		t.Errorf("expected earliest awful window first, got %s", got.Events[0].Timestamp)
	}
}
