// Package parser splits exported chat transcripts into messages.
package parser

import (
	"regexp"
	"strings"

	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/timestamp"
)

// Options configures parsing.
type Options struct {
	// DateFormat, when not Auto, normalizes every timestamp to
	// timestamp.ISOLayout at parse time.
	DateFormat timestamp.DateFormat
}

// DefaultOptions returns default parsing options.
func DefaultOptions() Options {
	return Options{DateFormat: timestamp.Auto}
}

// headerRe matches the first line of a message:
//
//	1/5/24, 10:00 AM - Alice: hi
//	[05/01/2024, 22:15:03] Bob: hey
var headerRe = regexp.MustCompile(
	`(?i)^\[?(\d{1,2}/\d{1,2}/\d{2,4}),?[\s\x{202f}\x{a0}]+(\d{1,2}:\d{2}(?::\d{2})?)[\s\x{202f}\x{a0}]*([ap]m)?\]?[\s\-]*([^:]+):\s*(.*)$`)

// Header is the decomposed first line of a message.
type Header struct {
	Date     string
	Time     string
	Meridiem string
	Sender   string
	Body     string
}

// Timestamp joins the date, time and meridiem into one string.
func (h Header) Timestamp() string {
	return strings.TrimSpace(h.Date + " " + h.Time + " " + h.Meridiem)
}

// MatchHeader reports whether line starts a new message.
func MatchHeader(line string) (Header, bool) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return Header{}, false
	}
	h := Header{
		Date:     m[1],
		Time:     m[2],
		Meridiem: strings.ToUpper(m[3]),
		Sender:   strings.TrimSpace(m[4]),
		Body:     strings.TrimSpace(m[5]),
	}
	if h.Sender == "" {
		return Header{}, false
	}
	return h, true
}

// Parse splits text into messages in transcript order. A header line
// starts a message; any other non-blank line continues the current one.
// Lines before the first header are dropped.
func Parse(text string, opts Options) []model.Message {
	var messages []model.Message
	var current *model.Message

	flush := func() {
		if current == nil {
			return
		}
		messages = append(messages, *current)
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		h, ok := MatchHeader(line)
		if !ok {
			if current != nil {
				current.Body = strings.TrimSpace(current.Body + " " + line)
			}
			continue
		}

		flush()
		current = &model.Message{
			Timestamp: resolveTimestamp(h.Timestamp(), opts.DateFormat),
			Sender:    h.Sender,
			Body:      h.Body,
		}
	}
	flush()

	return messages
}

// resolveTimestamp normalizes ts to ISO form when a hint was given. A
// timestamp the hint cannot resolve is kept verbatim for later stages.
func resolveTimestamp(ts string, hint timestamp.DateFormat) string {
	if hint == "" || hint == timestamp.Auto {
		return ts
	}
	iso, err := timestamp.Normalize(ts, hint)
	if err != nil {
		return ts
	}
	return iso
}
