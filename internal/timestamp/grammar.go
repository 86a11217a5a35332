package timestamp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Both grammars expect the time first, followed anywhere later by the date,
// which is how post footers render ("11:30 PM · Aug 21, 2025").
var (
	numericDatePattern = regexp.MustCompile(
		`(?i)\b(?P<hour>\d{1,2}):(?P<minute>\d{2})\s*(?P<meridiem>[AP]M)?\b.*?` +
			`\b(?P<first>\d{1,2})[/.\-](?P<second>\d{1,2})[/.\-](?P<year>\d{2,4})\b`)

	monthNameDatePattern = regexp.MustCompile(
		`(?i)\b(?P<hour>\d{1,2}):(?P<minute>\d{2})\s*(?P<meridiem>[AP]M)?\b.*?` +
			`\b(?P<month>[A-Za-z]{3,})\s*(?P<day>\d{1,2}),\s*(?P<year>\d{2,4})\b`)

	monthNames = func() map[string]time.Month {
		m := make(map[string]time.Month, 24)
		for mo := time.January; mo <= time.December; mo++ {
			name := strings.ToLower(mo.String())
			m[name] = mo
			m[name[:3]] = mo
		}
		return m
	}()
)

// NumericDate recognizes "11:30 PM 21/08/2025" with /, . or - separators.
// The date is read day first; when that is not a valid calendar date but the
// month-first reading is ("8/21/25"), the month-first reading wins.
type NumericDate struct{}

func (NumericDate) Name() string { return "numeric-date" }

func (NumericDate) Parse(text string, loc *time.Location) (time.Time, bool) {
	g := namedGroups(numericDatePattern, text)
	if g == nil {
		return time.Time{}, false
	}
	clock, ok := parseClock(g)
	if !ok {
		return time.Time{}, false
	}

	first, _ := strconv.Atoi(g["first"])
	second, _ := strconv.Atoi(g["second"])
	year := expandYear(g["year"])

	day, month := first, second
	if !validDate(year, month, day) && validDate(year, first, second) {
		day, month = second, first
	}
	return clock.at(year, month, day, loc)
}

// MonthNameDate recognizes "11:30 PM Aug 21, 2025". Month names match both
// three-letter abbreviations and full names, case-insensitively.
type MonthNameDate struct{}

func (MonthNameDate) Name() string { return "month-name-date" }

func (MonthNameDate) Parse(text string, loc *time.Location) (time.Time, bool) {
	g := namedGroups(monthNameDatePattern, text)
	if g == nil {
		return time.Time{}, false
	}
	month, ok := monthNames[strings.ToLower(g["month"])]
	if !ok {
		return time.Time{}, false
	}
	clock, ok := parseClock(g)
	if !ok {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(g["day"])
	return clock.at(expandYear(g["year"]), int(month), day, loc)
}

type clockTime struct {
	hour, minute int
}

// parseClock converts the matched hour, minute and meridiem to a 24-hour clock.
func parseClock(g map[string]string) (clockTime, bool) {
	hour, err := strconv.Atoi(g["hour"])
	if err != nil {
		return clockTime{}, false
	}
	minute, err := strconv.Atoi(g["minute"])
	if err != nil {
		return clockTime{}, false
	}
	return clockTime{hour: To24Hour(hour, g["meridiem"]), minute: minute}, true
}

// at builds the local instant in loc and returns it in UTC. Fields that do
// not form a real wall-clock time yield false instead of being normalized.
func (c clockTime) at(year, month, day int, loc *time.Location) (time.Time, bool) {
	if !validDate(year, month, day) {
		return time.Time{}, false
	}
	if c.hour < 0 || c.hour > 23 || c.minute < 0 || c.minute > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, c.hour, c.minute, 0, 0, loc).UTC(), true
}

// To24Hour applies the 12-hour meridiem rules: PM adds 12 except at 12, and
// 12 AM is midnight. An empty meridiem leaves the hour untouched.
func To24Hour(hour int, meridiem string) int {
	switch strings.ToUpper(meridiem) {
	case "PM":
		if hour != 12 {
			return hour + 12
		}
	case "AM":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if y < 100 {
		y += 2000
	}
	return y
}

func validDate(year, month, day int) bool {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return false
	}
	// Day zero of the next month is the last day of this one.
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return day <= last
}

func namedGroups(re *regexp.Regexp, text string) map[string]string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	groups := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return groups
}
