package timestamp

import (
	"fmt"
	"time"
	_ "time/tzdata" // Embedded zone database for hosts without one
)

// LoadLocation resolves an IANA timezone identifier. An empty name or "UTC"
// resolves to UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// FormatMinute renders t in UTC at minute precision, the resolution at which
// instants are displayed and compared.
func FormatMinute(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04Z")
}
