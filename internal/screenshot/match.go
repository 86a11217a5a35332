package screenshot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window decides whether a candidate instant counts as matching a query
// instant. The zero value is exact-minute matching.
type Window struct {
	Minutes int
}

// Exact compares minute-truncated instants for equality.
func Exact() Window { return Window{} }

// Within matches candidates at most n minutes from the query, inclusive.
func Within(n int) Window { return Window{Minutes: n} }

// ParseWindow accepts "exact", "0", "5", "5m", "±5" and "+-5".
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "exact" {
		return Exact(), nil
	}
	s = strings.TrimPrefix(s, "±")
	s = strings.TrimPrefix(s, "+-")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "min"), "m")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return Window{}, fmt.Errorf("%w: window %q", ErrInvalidQuery, s)
	}
	return Within(n), nil
}

func (w Window) IsExact() bool { return w.Minutes <= 0 }

// Contains reports whether candidate satisfies the window around query.
func (w Window) Contains(query, candidate time.Time) bool {
	if w.IsExact() {
		return query.Truncate(time.Minute).Equal(candidate.Truncate(time.Minute))
	}
	d := candidate.Sub(query)
	if d < 0 {
		d = -d
	}
	return d <= time.Duration(w.Minutes)*time.Minute
}

func (w Window) String() string {
	if w.IsExact() {
		return "exact"
	}
	return fmt.Sprintf("±%d min", w.Minutes)
}

// Query is a wall-clock time entered by a user in 12-hour form.
type Query struct {
	Year     int
	Month    time.Month
	Day      int
	Hour     int // 1-12
	Minute   int
	Meridiem string // AM or PM
	Location *time.Location
	Window   Window
}

// Validate checks that the wall-clock fields form a real time of day on a
// real date. The location is not checked.
func (q Query) Validate() error {
	if q.Hour < 1 || q.Hour > 12 {
		return fmt.Errorf("%w: hour %d outside 1-12", ErrInvalidQuery, q.Hour)
	}
	if q.Minute < 0 || q.Minute > 59 {
		return fmt.Errorf("%w: minute %d outside 0-59", ErrInvalidQuery, q.Minute)
	}
	switch strings.ToUpper(q.Meridiem) {
	case "AM", "PM":
	default:
		return fmt.Errorf("%w: meridiem %q", ErrInvalidQuery, q.Meridiem)
	}
	d := time.Date(q.Year, q.Month, q.Day, 0, 0, 0, 0, time.UTC)
	if d.Year() != q.Year || d.Month() != q.Month || d.Day() != q.Day {
		return fmt.Errorf("%w: no such date %04d-%02d-%02d", ErrInvalidQuery, q.Year, int(q.Month), q.Day)
	}
	return nil
}

// Instant converts the query to UTC.
func (q Query) Instant() (time.Time, error) {
	if err := q.Validate(); err != nil {
		return time.Time{}, err
	}
	if q.Location == nil {
		return time.Time{}, fmt.Errorf("%w: timezone is required", ErrInvalidQuery)
	}

	hour := q.Hour % 12
	if strings.EqualFold(q.Meridiem, "PM") {
		hour += 12
	}
	return time.Date(q.Year, q.Month, q.Day, hour, q.Minute, 0, 0, q.Location).UTC(), nil
}

// ParseQuery builds a Query from form values: a YYYY-MM-DD date, 12-hour
// hour and minute, a meridiem and a window. The location is left unset.
func ParseQuery(date, hour, minute, meridiem, window string) (Query, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Query{}, errors.Join(ErrInvalidQuery, err)
	}
	h, err := strconv.Atoi(hour)
	if err != nil {
		return Query{}, errors.Join(ErrInvalidQuery, err)
	}
	m, err := strconv.Atoi(minute)
	if err != nil {
		return Query{}, errors.Join(ErrInvalidQuery, err)
	}
	win, err := ParseWindow(window)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Year:     d.Year(),
		Month:    d.Month(),
		Day:      d.Day(),
		Hour:     h,
		Minute:   m,
		Meridiem: meridiem,
		Window:   win,
	}, nil
}

// Match returns the records of idx within q's window, in index order. An
// empty index yields ErrEmptyIndex; an index with no qualifying record
// yields an empty, non-nil slice.
func Match(q Query, idx *Index) ([]Record, error) {
	if idx.Empty() {
		return nil, ErrEmptyIndex
	}

	at, err := q.Instant()
	if err != nil {
		return nil, err
	}

	matches := []Record{}
	for _, r := range idx.Records {
		if q.Window.Contains(at, r.Instant) {
			matches = append(matches, r)
		}
	}
	return matches, nil
}
