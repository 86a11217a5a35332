package screenshot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/screenstamp/internal/scanning"
	"github.com/zombor/screenstamp/internal/timestamp"
	"github.com/zombor/screenstamp/internal/vision"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// DecodeFunc turns encoded file bytes into a BGR Mat owned by the caller.
type DecodeFunc func(data []byte, ext string) (gocv.Mat, error)

// Indexer recognizes the timestamp of every image in a Source.
type Indexer struct {
	recognizer   scanning.Recognizer
	preprocessor *vision.Preprocessor
	parser       *timestamp.Parser
	bands        []vision.Band
	strategy     Strategy
	decode       DecodeFunc
	workers      int
	timeSource   TimeSource
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithWorkers sets how many images are processed concurrently.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithStrategy replaces the first-success selection strategy.
func WithStrategy(s Strategy) Option {
	return func(ix *Indexer) { ix.strategy = s }
}

// WithBands replaces the default candidate bands.
func WithBands(bands []vision.Band) Option {
	return func(ix *Indexer) { ix.bands = bands }
}

// WithParams replaces the default preprocessing parameters.
func WithParams(p vision.Params) Option {
	return func(ix *Indexer) { ix.preprocessor = vision.NewPreprocessor(p) }
}

// WithParser replaces the default parse chain.
func WithParser(p *timestamp.Parser) Option {
	return func(ix *Indexer) { ix.parser = p }
}

// WithDecoder replaces vision.DecodeMat.
func WithDecoder(d DecodeFunc) Option {
	return func(ix *Indexer) { ix.decode = d }
}

// WithTimeSource replaces the wall clock used to stamp built indexes.
func WithTimeSource(ts TimeSource) Option {
	return func(ix *Indexer) { ix.timeSource = ts }
}

// NewIndexer creates an Indexer sharing one recognizer across all images.
func NewIndexer(recognizer scanning.Recognizer, opts ...Option) *Indexer {
	ix := &Indexer{
		recognizer:   recognizer,
		preprocessor: vision.NewPreprocessor(vision.DefaultParams()),
		parser:       timestamp.DefaultParser(),
		bands:        vision.DefaultBands,
		strategy:     FirstSuccess{},
		decode:       vision.DecodeMat,
		workers:      1,
		timeSource:   &defaultTimeSource{},
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

type outcome int

const (
	outcomeMissed outcome = iota
	outcomeIndexed
	outcomeSkipped
)

type fileResult struct {
	outcome outcome
	record  Record
}

// Build indexes every image in src, interpreting timezone-naive timestamps
// in loc. Images that cannot be decoded, or whose timestamp cannot be
// recognized, contribute no record. Records are ordered by source name
// regardless of the number of workers.
func (ix *Indexer) Build(ctx context.Context, src Source, loc *time.Location) (*Index, error) {
	if loc == nil {
		return nil, fmt.Errorf("base timezone is required")
	}

	names, err := src.List()
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	slog.Info("Indexing folder", "folder", src.Root(), "timezone", loc.String(), "images", len(names), "workers", ix.workers)
	start := time.Now()

	results := make([]fileResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ix.indexFile(gctx, src, name, loc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("indexing %s: %w", src.Root(), err)
	}
	// Workers stop scheduling on cancellation but an in-flight image may
	// finish with a partial result.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("indexing %s: %w", src.Root(), err)
	}

	idx := &Index{
		Folder:   src.Root(),
		Timezone: loc.String(),
		Records:  make([]Record, 0, len(names)),
		Total:    len(names),
		BuiltAt:  ix.timeSource.Now(),
	}
	for _, r := range results {
		switch r.outcome {
		case outcomeIndexed:
			idx.Records = append(idx.Records, r.record)
		case outcomeSkipped:
			idx.Skipped++
		}
	}
	slices.SortStableFunc(idx.Records, func(a, b Record) int {
		return strings.Compare(a.Source, b.Source)
	})

	slog.Info("Indexed folder",
		"folder", src.Root(),
		"indexed", len(idx.Records),
		"total", idx.Total,
		"skipped", idx.Skipped,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return idx, nil
}

func (ix *Indexer) indexFile(ctx context.Context, src Source, name string, loc *time.Location) fileResult {
	data, err := src.Get(name)
	if err != nil {
		slog.Warn("Skipping unreadable image", "source", name, "error", err)
		return fileResult{outcome: outcomeSkipped}
	}

	img, err := ix.decode(data, filepath.Ext(name))
	if err != nil {
		slog.Warn("Skipping undecodable image", "source", name, "error", err)
		return fileResult{outcome: outcomeSkipped}
	}
	defer img.Close()

	hit, ok := ix.IndexImage(ctx, img, loc)
	if !ok {
		slog.Debug("No timestamp recognized", "source", name)
		return fileResult{outcome: outcomeMissed}
	}

	slog.Debug("Recognized timestamp", "source", name, "text", hit.Text, "utc", timestamp.FormatMinute(hit.Instant))
	return fileResult{
		outcome: outcomeIndexed,
		record:  Record{Source: name, Instant: hit.Instant.UTC(), Text: hit.Text},
	}
}

// IndexImage selects at most one instant for img. Candidate bands are tried
// in priority order, then the whole image as a last resort.
func (ix *Indexer) IndexImage(ctx context.Context, img gocv.Mat, loc *time.Location) (Hit, bool) {
	crops := vision.Crop(img, ix.bands)
	defer vision.CloseAll(crops)

	stages := make([]Stage, 0, len(crops)+1)
	for _, c := range crops {
		stages = append(stages, ix.stage(c))
	}
	stages = append(stages, ix.stage(img))

	return ix.strategy.Select(ctx, stages, func(text string) (time.Time, bool) {
		return ix.parser.Parse(text, loc)
	})
}

// stage runs preprocessing and recognition for one region when invoked.
func (ix *Indexer) stage(region gocv.Mat) Stage {
	return func(ctx context.Context) []string {
		variants, err := ix.preprocessor.Variants(region)
		if err != nil {
			slog.Debug("Preprocessing failed", "error", err)
			return nil
		}
		defer vision.CloseAll(variants)

		return timestamp.Candidates(scanning.TimeLines(ctx, ix.recognizer, variants))
	}
}
