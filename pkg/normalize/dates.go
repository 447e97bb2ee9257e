package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/meetings"
)

// Date/time parsing handles the general shapes agency sites publish:
// ISO-like strings, US month/day/year with and without time, bare dates
// with a separately-stated time-of-day, ordinal-weekday phrases resolved
// against the observation timestamp, and time ranges split into
// start/end. Anything stranger is the extractor's job to pre-parse.

var (
	// "6:00pm", "6 p.m." -> "6:00 PM", "6 PM": one canonical meridiem
	// form so the layouts below match.
	reMeridiem = regexp.MustCompile(`(?i)(\d)\s*([ap])\.?\s?m\.?\b`)

	// "5th" -> "5"
	reOrdinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

	// Leading weekday name: "Tuesday, March 5, 2025"
	reLeadingWeekday = regexp.MustCompile(`(?i)^(sunday|monday|tuesday|wednesday|thursday|friday|saturday)[,\s]+`)

	// All-two-digit numeric dates ("03/04/05") cannot be told apart
	// from a day-first or year-first reading.
	reAmbiguousNumeric = regexp.MustCompile(`^\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2}$`)

	// Trailing time range: "9:00AM-11:00AM", "9-11 AM", "18:00-20:00"
	reTimeRange = regexp.MustCompile(`(\d{1,2}(?::\d{2})?\s*(?:AM|PM)?)\s*-\s*(\d{1,2}(?::\d{2})?\s*(?:AM|PM)?)$`)

	reClock = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(AM|PM)?$`)

	// A whole string that is nothing but a time range.
	reTimeRangeOnly = regexp.MustCompile(`^(\d{1,2}(?::\d{2})?\s*(?:AM|PM)?)\s*-\s*(\d{1,2}(?::\d{2})?\s*(?:AM|PM)?)$`)

	reOrdinalWeekday = regexp.MustCompile(`(?i)^(first|second|third|fourth|fifth|last)\s+` +
		`(sunday|monday|tuesday|wednesday|thursday|friday|saturday)` +
		`(?:\s+of\s+(?:the\s+month|each\s+month|every\s+month|([a-z]+)))?$`)
)

var ordinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "last": -1,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Layouts with an explicit year and embedded time of day.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 3 PM",
	"January 2 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2 2006 3:04 PM",
	"01/02/2006 3:04 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
}

// Layouts with an explicit year and no time of day.
var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"01/02/2006",
	"1/2/2006",
}

// Layouts with no year; resolved by the nearest-plausible-occurrence rule.
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"01/02",
	"1/2",
}

// parseDateTime resolves the raw date/time strings of one observation
// into concrete instants in the normalizer's regional timezone.
func (n *Normalizer) parseDateTime(obs *meetings.RawObservation) (time.Time, *time.Time, bool, error) {
	raw := precleanDate(obs.RawDate)
	rawTime := precleanDate(obs.RawTime)

	reject := func(reason errors.RejectReason, msg string) (time.Time, *time.Time, bool, error) {
		return time.Time{}, nil, false, errors.NewRejectionError(reason, obs.AgencyID, "raw_date", obs.RawDate, msg)
	}

	if reAmbiguousNumeric.MatchString(raw) {
		return reject(errors.RejectAmbiguousDate, "two-digit year cannot be distinguished from a day")
	}

	// Ordinal weekday phrase: "third Tuesday", "first Monday of July".
	if m := reOrdinalWeekday.FindStringSubmatch(raw); m != nil {
		day, err := n.resolveOrdinalWeekday(m, obs)
		if err != nil {
			return time.Time{}, nil, false, err
		}
		return n.attachTime(day, rawTime, obs)
	}

	// A time range embedded in the date string or stated separately.
	datePart, startTok, endTok := splitTimeRange(raw)
	if startTok == "" && rawTime != "" {
		if s, e, ok := splitRangeTokens(rawTime); ok {
			datePart, startTok, endTok = raw, s, e
		}
	}
	if startTok != "" {
		day, hasYear, ok := parseCalendarDate(datePart, n.loc)
		if !ok {
			return reject(errors.RejectUnparseableDate, "unrecognized date shape")
		}
		if !hasYear {
			day = nearestYear(day, obs.ObservedAt, n.loc)
		}
		start, end, ok := resolveClockRange(day, startTok, endTok)
		if !ok {
			return reject(errors.RejectUnparseableDate, "unrecognized time range")
		}
		return start, end, false, nil
	}

	// Full date with embedded time of day.
	full := raw
	if rawTime != "" {
		full = raw + " " + rawTime
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, full, n.loc); err == nil {
			return t.In(n.loc), nil, false, nil
		}
	}

	// Date only, with a separately-stated time or none at all.
	day, hasYear, ok := parseCalendarDate(raw, n.loc)
	if !ok {
		return reject(errors.RejectUnparseableDate, "unrecognized date shape")
	}
	if !hasYear {
		day = nearestYear(day, obs.ObservedAt, n.loc)
	}
	return n.attachTime(day, rawTime, obs)
}

// attachTime combines a resolved calendar date with a separately-stated
// time-of-day string. No time at all means an all-day meeting.
func (n *Normalizer) attachTime(day time.Time, rawTime string, obs *meetings.RawObservation) (time.Time, *time.Time, bool, error) {
	if rawTime == "" {
		return day, nil, true, nil
	}
	if startTok, endTok, ok := splitRangeTokens(rawTime); ok {
		start, end, ok := resolveClockRange(day, startTok, endTok)
		if !ok {
			return time.Time{}, nil, false, errors.NewRejectionError(errors.RejectUnparseableDate,
				obs.AgencyID, "raw_time", obs.RawTime, "unrecognized time range")
		}
		return start, end, false, nil
	}
	h, min, ok := parseClock(rawTime)
	if !ok {
		return time.Time{}, nil, false, errors.NewRejectionError(errors.RejectUnparseableDate,
			obs.AgencyID, "raw_time", obs.RawTime, "unrecognized time of day")
	}
	return atClock(day, h, min), nil, false, nil
}

// atClock places a time of day on a calendar date as wall-clock time in
// the day's own location. Duration arithmetic from midnight would drift
// an hour on DST-transition days.
func atClock(day time.Time, h, min int) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, min, 0, 0, day.Location())
}

// resolveOrdinalWeekday resolves phrases like "third Tuesday" against the
// observation timestamp, rolling forward to the next month when the
// occurrence in the observation's month has already passed.
func (n *Normalizer) resolveOrdinalWeekday(m []string, obs *meetings.RawObservation) (time.Time, error) {
	ord := ordinals[strings.ToLower(m[1])]
	wd := weekdays[strings.ToLower(m[2])]
	ref := obs.ObservedAt.In(n.loc)

	if m[3] != "" {
		month, ok := months[strings.ToLower(m[3])]
		if !ok {
			return time.Time{}, errors.NewRejectionError(errors.RejectUnparseableDate,
				obs.AgencyID, "raw_date", obs.RawDate, "unrecognized month name")
		}
		day, ok := nthWeekday(ref.Year(), month, wd, ord, n.loc)
		if !ok {
			return time.Time{}, errors.NewRejectionError(errors.RejectAmbiguousDate,
				obs.AgencyID, "raw_date", obs.RawDate, "ordinal weekday does not occur in that month")
		}
		return nearestYearOccurrence(day, month, wd, ord, ref, n.loc)
	}

	day, ok := nthWeekday(ref.Year(), ref.Month(), wd, ord, n.loc)
	if ok && !day.Before(startOfDay(ref)) {
		return day, nil
	}
	// Already passed (or absent) this month; take next month's occurrence.
	next := ref.AddDate(0, 1, -ref.Day()+1)
	day, ok = nthWeekday(next.Year(), next.Month(), wd, ord, n.loc)
	if !ok {
		return time.Time{}, errors.NewRejectionError(errors.RejectAmbiguousDate,
			obs.AgencyID, "raw_date", obs.RawDate, "ordinal weekday does not occur in the upcoming month")
	}
	return day, nil
}

// nearestYearOccurrence applies the nearest-plausible-occurrence rule to
// a named-month ordinal phrase ("first Monday of January" observed in
// December refers to the coming January).
func nearestYearOccurrence(day time.Time, month time.Month, wd time.Weekday, ord int, ref time.Time, loc *time.Location) (time.Time, error) {
	if day.Before(ref.AddDate(0, -3, 0)) {
		if d, ok := nthWeekday(ref.Year()+1, month, wd, ord, loc); ok {
			return d, nil
		}
	} else if day.After(ref.AddDate(0, 3, 0)) {
		if d, ok := nthWeekday(ref.Year()-1, month, wd, ord, loc); ok {
			return d, nil
		}
	}
	return day, nil
}

// nthWeekday returns the nth occurrence of a weekday in a month, with
// ord -1 meaning the last occurrence. ok is false when the month has no
// such occurrence (a "fifth Tuesday" most months).
func nthWeekday(year int, month time.Month, wd time.Weekday, ord int, loc *time.Location) (time.Time, bool) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7

	if ord == -1 {
		day := first.AddDate(0, 0, offset)
		for day.AddDate(0, 0, 7).Month() == month {
			day = day.AddDate(0, 0, 7)
		}
		return day, true
	}

	day := first.AddDate(0, 0, offset+(ord-1)*7)
	if day.Month() != month {
		return time.Time{}, false
	}
	return day, true
}

// parseCalendarDate parses a date-only string, reporting whether the
// source stated a year.
func parseCalendarDate(s string, loc *time.Location) (time.Time, bool, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true, true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, true
		}
	}
	return time.Time{}, false, false
}

// nearestYear resolves a yearless date against the observation timestamp.
// A candidate more than 3 months in the past moves to the next calendar
// year; one more than 3 months in the future moves to the previous. This
// is the tie-break that keeps a mid-December crawl from filing a
// "January 5" posting under the year that just ended.
func nearestYear(day time.Time, observedAt time.Time, loc *time.Location) time.Time {
	ref := observedAt.In(loc)
	candidate := time.Date(ref.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	switch {
	case candidate.Before(ref.AddDate(0, -3, 0)):
		return time.Date(ref.Year()+1, day.Month(), day.Day(), 0, 0, 0, 0, loc)
	case candidate.After(ref.AddDate(0, 3, 0)):
		return time.Date(ref.Year()-1, day.Month(), day.Day(), 0, 0, 0, 0, loc)
	default:
		return candidate
	}
}

// splitTimeRange splits a trailing time range off a date string.
// Returns the date prefix and the two time tokens, or empty tokens when
// the string holds no range. The end token must carry enough to be a
// time on its own; "9:00AM-11:00AM" qualifies, a bare "3-5" does not
// unless a meridiem or minutes appear.
func splitTimeRange(s string) (datePart, startTok, endTok string) {
	m := reTimeRange.FindStringSubmatchIndex(s)
	if m == nil {
		return s, "", ""
	}
	startTok = strings.TrimSpace(s[m[2]:m[3]])
	endTok = strings.TrimSpace(s[m[4]:m[5]])
	// Require minutes or a meridiem somewhere, to avoid eating numeric
	// dates like "2025-06-03".
	if !strings.Contains(startTok+endTok, ":") &&
		!strings.Contains(endTok, "AM") && !strings.Contains(endTok, "PM") {
		return s, "", ""
	}
	return strings.Trim(strings.TrimSpace(s[:m[0]]), ",;"), startTok, endTok
}

// splitRangeTokens splits a string that is nothing but a time range.
func splitRangeTokens(s string) (startTok, endTok string, ok bool) {
	m := reTimeRangeOnly.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// resolveClockRange turns two time tokens into start/end instants on the
// given day. A start token without a meridiem inherits the end token's
// ("9:00-11:00am"), dropping back twelve hours when that reads backwards.
func resolveClockRange(day time.Time, startTok, endTok string) (time.Time, *time.Time, bool) {
	sh, sm, sOK := parseClock(startTok)
	eh, em, eOK := parseClock(endTok)
	if !sOK || !eOK {
		return time.Time{}, nil, false
	}

	hasMeridiem := func(tok string) bool {
		return strings.Contains(tok, "AM") || strings.Contains(tok, "PM")
	}
	if !hasMeridiem(startTok) && strings.Contains(endTok, "PM") && sh < 12 {
		sh += 12
	}

	start := atClock(day, sh, sm)
	end := atClock(day, eh, em)
	if !end.After(start) {
		if start.Sub(end) <= 12*time.Hour && sh >= 12 {
			start = atClock(day, sh-12, sm)
		} else {
			return time.Time{}, nil, false
		}
	}
	return start, &end, true
}

// parseClock parses a single time-of-day token into hour and minute.
func parseClock(s string) (int, int, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "noon":
		return 12, 0, true
	case "midnight":
		return 0, 0, true
	}
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min := 0
	if m[2] != "" {
		min, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "PM":
		if h > 12 {
			return 0, 0, false
		}
		if h != 12 {
			h += 12
		}
	case "AM":
		if h > 12 {
			return 0, 0, false
		}
		if h == 12 {
			h = 0
		}
	default:
		if h > 23 {
			return 0, 0, false
		}
	}
	if min > 59 {
		return 0, 0, false
	}
	return h, min, true
}

// startOfDay truncates an instant to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// precleanDate normalizes a raw date/time string: whitespace collapsed,
// dashes unified, ordinal suffixes and connective noise removed, and
// meridiems uppercased so the shared layouts match.
func precleanDate(s string) string {
	s = collapseWhitespace(s)
	s = strings.NewReplacer("–", "-", "—", "-", "‒", "-").Replace(s)
	s = reLeadingWeekday.ReplaceAllString(s, "")
	s = reOrdinalSuffix.ReplaceAllString(s, "$1")
	s = reMeridiem.ReplaceAllStringFunc(s, func(tok string) string {
		m := reMeridiem.FindStringSubmatch(tok)
		return m[1] + " " + strings.ToUpper(m[2]) + "M"
	})
	s = strings.ReplaceAll(s, " at ", " ")
	s = strings.ReplaceAll(s, " @ ", " ")
	return strings.TrimSpace(s)
}
