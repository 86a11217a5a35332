package timestamp

import (
	"log/slog"
	"time"

	"github.com/araddon/dateparse"
)

// minYear rejects results that carry a time of day but no real date.
const minYear = 1970

// Strategy is one stage of the parse chain. Parse returns the instant in UTC
// and true, or false when the stage does not recognize the text.
type Strategy interface {
	Name() string
	Parse(text string, loc *time.Location) (time.Time, bool)
}

// Parser tries its strategies in order and returns the first success.
type Parser struct {
	strategies []Strategy
}

// NewParser creates a Parser running strategies in the given order.
func NewParser(strategies ...Strategy) *Parser {
	return &Parser{strategies: strategies}
}

// DefaultParser runs the free-form parser first, then the numeric-date and
// month-name grammars.
func DefaultParser() *Parser {
	return NewParser(FreeForm{}, NumericDate{}, MonthNameDate{})
}

// Parse cleans text and converts it to a UTC instant. Timezone-naive text is
// interpreted in loc.
func (p *Parser) Parse(text string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	cleaned := Clean(text)
	if cleaned == "" {
		return time.Time{}, false
	}

	for _, s := range p.strategies {
		if t, ok := s.Parse(cleaned, loc); ok {
			slog.Debug("Parsed timestamp", "strategy", s.Name(), "text", cleaned, "utc", FormatMinute(t))
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FreeForm hands the whole text to a general-purpose date parser.
type FreeForm struct{}

func (FreeForm) Name() string { return "free-form" }

func (FreeForm) Parse(text string, loc *time.Location) (t time.Time, ok bool) {
	// dateparse panics on a handful of malformed inputs; OCR output finds them.
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(text, loc)
	if err != nil || parsed.Year() < minYear {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}
