// Package timestamp resolves chat-export date/time strings into instants.
package timestamp

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnparseable is returned when no layout matches a timestamp string.
var ErrUnparseable = errors.New("timestamp unparseable")

// ISOLayout is the canonical form timestamps are normalized to.
const ISOLayout = "2006-01-02 15:04:05"

// DateFormat is a hint for the day/month ordering of a transcript.
type DateFormat string

const (
	Auto          DateFormat = "auto"
	MonthDayYear4 DateFormat = "mm/dd/yyyy"
	DayMonthYear4 DateFormat = "dd/mm/yyyy"
	MonthDayYear2 DateFormat = "mm/dd/yy"
	DayMonthYear2 DateFormat = "dd/mm/yy"
)

// ValidDateFormats are the accepted date format hints.
var ValidDateFormats = map[DateFormat]bool{
	Auto:          true,
	MonthDayYear4: true,
	DayMonthYear4: true,
	MonthDayYear2: true,
	DayMonthYear2: true,
}

// ParseDateFormat validates a hint string. Empty means Auto.
func ParseDateFormat(s string) (DateFormat, error) {
	f := DateFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return Auto, nil
	}
	if !ValidDateFormats[f] {
		return "", fmt.Errorf("invalid date format %q (valid: auto, mm/dd/yyyy, dd/mm/yyyy, mm/dd/yy, dd/mm/yy)", s)
	}
	return f, nil
}

var (
	isoLayouts = []string{
		ISOLayout,
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006-01-02 15:04",
	}

	// Month-first and day-first layouts, each in template order:
	// 12-hour, 12-hour with seconds, 24-hour, 24-hour with seconds.
	monthFirst2 = []string{"1/2/06 3:04 PM", "1/2/06 3:04:05 PM", "1/2/06 15:04", "1/2/06 15:04:05"}
	dayFirst2   = []string{"2/1/06 3:04 PM", "2/1/06 3:04:05 PM", "2/1/06 15:04", "2/1/06 15:04:05"}
	monthFirst4 = []string{"1/2/2006 3:04 PM", "1/2/2006 3:04:05 PM", "1/2/2006 15:04", "1/2/2006 15:04:05"}
	dayFirst4   = []string{"2/1/2006 3:04 PM", "2/1/2006 3:04:05 PM", "2/1/2006 15:04", "2/1/2006 15:04:05"}
)

// autoLayouts is the ordered candidate list used without a hint. ISO comes
// first so it is never coerced into a 12-hour template; month-first wins
// over day-first for ambiguous dates such as 03/04/23.
var autoLayouts = concat(
	isoLayouts,
	[]string{
		monthFirst2[0], dayFirst2[0],
		monthFirst4[0], dayFirst4[0],
		monthFirst2[1], dayFirst2[1],
		monthFirst4[1], dayFirst4[1],
	},
	[]string{
		monthFirst2[2], dayFirst2[2],
		monthFirst4[2], dayFirst4[2],
		monthFirst2[3], dayFirst2[3],
		monthFirst4[3], dayFirst4[3],
	},
)

var hintLayouts = map[DateFormat][]string{
	MonthDayYear4: concat(isoLayouts, monthFirst4, monthFirst2),
	MonthDayYear2: concat(isoLayouts, monthFirst2, monthFirst4),
	DayMonthYear4: concat(isoLayouts, dayFirst4, dayFirst2),
	DayMonthYear2: concat(isoLayouts, dayFirst2, dayFirst4),
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Layouts returns the ordered candidate layouts for a hint.
func Layouts(hint DateFormat) []string {
	if l, ok := hintLayouts[hint]; ok {
		return l
	}
	return autoLayouts
}

// Parse resolves s by trying every auto layout in order.
func Parse(s string) (time.Time, error) {
	return ParseWithHint(s, Auto)
}

// ParseWithHint resolves s using the layouts selected by hint. The first
// layout that parses wins.
func ParseWithHint(s string, hint DateFormat) (time.Time, error) {
	v := clean(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparseable)
	}
	for _, layout := range Layouts(hint) {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
}

// Normalize rewrites s into ISOLayout using hint.
func Normalize(s string, hint DateFormat) (string, error) {
	t, err := ParseWithHint(s, hint)
	if err != nil {
		return "", err
	}
	return t.Format(ISOLayout), nil
}

var exportReplacer = strings.NewReplacer(
	"\u202f", " ",
	"\u00a0", " ",
	",", "",
	"[", "",
	"]", "",
	"A.M.", "AM",
	"P.M.", "PM",
)

// clean uppercases meridiem markers and strips export punctuation so the
// layouts only have to describe digits and separators.
func clean(s string) string {
	s = exportReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
	s = strings.Join(strings.Fields(s), " ")
	// Some exports glue the marker to the time ("10:15PM").
	if n := len(s); n > 2 && (strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM")) && s[n-3] != ' ' {
		s = s[:n-2] + " " + s[n-2:]
	}
	return s
}
