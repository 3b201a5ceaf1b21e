package parser

import (
	"strings"
	"testing"
)

func TestParse_EmptyInput(t *testing.T) {
	result := Parse("", DefaultOptions())
	if len(result) != 0 {
		t.Errorf("expected no messages, got %v", result)
	}
}

func TestParse_TwoMessages(t *testing.T) {
	text := "1/5/24, 10:00 AM - Alice: hi\n1/5/24, 10:01 AM - Bob: hey"
	result := Parse(text, DefaultOptions())
	if len(result) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result))
	}

	if result[0].Sender != "Alice" || result[0].Body != "hi" || result[0].Timestamp != "1/5/24 10:00 AM" {
		t.Errorf("unexpected first message: %+v", result[0])
	}
	if result[1].Sender != "Bob" || result[1].Body != "hey" || result[1].Timestamp != "1/5/24 10:01 AM" {
		t.Errorf("unexpected second message: %+v", result[1])
	}
}

func TestParse_ContinuationLine(t *testing.T) {
	text := `1/5/24, 10:00 AM - Alice: first line
second line

   third line
1/5/24, 10:01 AM - Bob: ok`

	result := Parse(text, DefaultOptions())
	if len(result) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result))
	}
	if result[0].Body != "first line second line third line" {
		t.Errorf("expected joined body, got %q", result[0].Body)
	}
}

func TestParse_DropsLinesBeforeFirstHeader(t *testing.T) {
	text := "Messages and calls are end-to-end encrypted.\n1/5/24, 10:00 AM - Alice: hi"
	result := Parse(text, DefaultOptions())
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	if result[0].Body != "hi" {
		t.Errorf("expected 'hi', got %q", result[0].Body)
	}
}

func TestParse_SystemLineWithoutSenderIsContinuation(t *testing.T) {
	text := "1/5/24, 10:00 AM - Alice: hi\n1/5/24, 10:02 AM - Bob left"
	result := Parse(text, DefaultOptions())
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	if !strings.HasSuffix(result[0].Body, "Bob left") {
		t.Errorf("expected system line appended, got %q", result[0].Body)
	}
}

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		timestamp string
		sender    string
		body      string
	}{
		{"android", "12/01/24, 10:41 pm - Sam Lee: see you", "12/01/24 10:41 PM", "Sam Lee", "see you"},
		{"ios bracketed", "[12/01/24, 10:41:23 PM] Sam: ok", "12/01/24 10:41:23 PM", "Sam", "ok"},
		{"24 hour", "05/01/2024, 22:15 - Jo: late", "05/01/2024 22:15", "Jo", "late"},
		{"narrow space", "1/5/24, 9:00\u202fAM - Ana: morning", "1/5/24 9:00 AM", "Ana", "morning"},
		{"body with colon", "1/5/24, 9:00 AM - Ana: meet at 10:30", "1/5/24 9:00 AM", "Ana", "meet at 10:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.line, DefaultOptions())
			if len(result) != 1 {
				t.Fatalf("expected 1 message, got %d", len(result))
			}
			m := result[0]
			if m.Timestamp != tt.timestamp {
				t.Errorf("timestamp: expected %q, got %q", tt.timestamp, m.Timestamp)
			}
			if m.Sender != tt.sender {
				t.Errorf("sender: expected %q, got %q", tt.sender, m.Sender)
			}
			if m.Body != tt.body {
				t.Errorf("body: expected %q, got %q", tt.body, m.Body)
			}
		})
	}
}

func TestParse_DateFormatHintNormalizes(t *testing.T) {
	text := "03/04/23, 10:00 AM - Alice: hi\nnot-a-date-line"
	result := Parse(text, Options{DateFormat: "dd/mm/yy"})
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	if result[0].Timestamp != "2023-04-03 10:00:00" {
		t.Errorf("expected ISO timestamp, got %q", result[0].Timestamp)
	}
	if result[0].Body != "hi not-a-date-line" {
		t.Errorf("expected continuation appended, got %q", result[0].Body)
	}
}

func TestParse_CRLF(t *testing.T) {
	text := "1/5/24, 10:00 AM - Alice: hi\r\n1/5/24, 10:01 AM - Bob: hey\r\n"
	result := Parse(text, DefaultOptions())
	if len(result) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result))
	}
	if result[1].Body != "hey" {
		t.Errorf("expected 'hey', got %q", result[1].Body)
	}
}
