package screenshot

import (
	"errors"
	"time"
)

var (
	// ErrDirectoryNotFound is returned when the folder to index does not exist.
	ErrDirectoryNotFound = errors.New("folder does not exist")

	// ErrEmptyIndex means nothing has been indexed for the folder, or nothing
	// in it carried a recognizable timestamp. It is distinct from a query
	// that simply matched no records.
	ErrEmptyIndex = errors.New("no indexed timestamps yet")

	// ErrInvalidQuery is returned for query fields that do not form a real
	// wall-clock time.
	ErrInvalidQuery = errors.New("invalid query")
)

// Record represents one screenshot whose timestamp was recognized
type Record struct {
	Source  string    `json:"source"`  // file name within the indexed folder
	Instant time.Time `json:"instant"` // always UTC
	Text    string    `json:"text"`    // cleaned candidate text that parsed
}

// Index represents every record recognized in a folder for one base timezone
type Index struct {
	Folder   string    `json:"folder"`
	Timezone string    `json:"timezone"`
	Records  []Record  `json:"records"`
	Total    int       `json:"total"`   // image files seen
	Skipped  int       `json:"skipped"` // image files that could not be read or decoded
	BuiltAt  time.Time `json:"built_at"`
}

// Empty reports whether the index holds no records.
func (i *Index) Empty() bool {
	return i == nil || len(i.Records) == 0
}
