package screenshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"github.com/zombor/screenstamp/internal/vision"
)

// Builder builds an index for one folder
type Builder interface {
	Build(ctx context.Context, src Source, loc *time.Location) (*Index, error)
}

// Service indexes folders and answers match queries against them. Every
// operation uses the same base timezone.
type Service struct {
	builder    Builder
	cache      Cache
	loc        *time.Location
	extensions []string
	builds     singleflight.Group
}

// NewService creates a new Service. A nil cache keeps indexes in memory.
func NewService(builder Builder, cache Cache, loc *time.Location, extensions []string) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if loc == nil {
		loc = time.UTC
	}
	if len(extensions) == 0 {
		extensions = vision.ImageExtensions
	}
	return &Service{
		builder:    builder,
		cache:      cache,
		loc:        loc,
		extensions: extensions,
	}
}

// Location returns the base timezone
func (s *Service) Location() *time.Location {
	return s.loc
}

// Index returns the index for folder, rebuilding it when force is set or
// when the folder changed since the cached build.
func (s *Service) Index(ctx context.Context, folder string, force bool) (*Index, error) {
	src, err := NewFolder(folder, s.extensions)
	if err != nil {
		return nil, err
	}

	fingerprint, err := src.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprinting folder: %w", err)
	}

	if !force {
		idx, cached, err := s.cache.Load(src.Root(), s.loc.String())
		if err != nil {
			slog.Warn("Ignoring unreadable cache entry", "folder", src.Root(), "error", err)
		} else if idx != nil && cached == fingerprint {
			slog.Debug("Using cached index", "folder", src.Root(), "records", len(idx.Records))
			return idx, nil
		}
	}

	key := string(cacheKey(src.Root(), s.loc.String()))
	v, err, _ := s.builds.Do(key, func() (any, error) {
		idx, err := s.builder.Build(ctx, src, s.loc)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Store(idx, fingerprint); err != nil {
			slog.Warn("Failed to cache index", "folder", src.Root(), "error", err)
		}
		return idx, nil
	})
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	return v.(*Index), nil
}

// Find matches q against the index for folder. The query is always
// interpreted in the service's base timezone; the returned instant is the
// query converted to UTC.
func (s *Service) Find(ctx context.Context, folder string, q Query) ([]Record, time.Time, error) {
	q.Location = s.loc

	at, err := q.Instant()
	if err != nil {
		return nil, time.Time{}, err
	}

	idx, err := s.Index(ctx, folder, false)
	if err != nil {
		return nil, time.Time{}, err
	}

	matches, err := Match(q, idx)
	if err != nil {
		return nil, at, err
	}

	slog.Info("Matched query", "folder", idx.Folder, "query", at.Format(time.RFC3339), "window", q.Window.String(), "matches", len(matches))
	return matches, at, nil
}

// Preview re-decodes an image from folder and returns a JPEG that fits in a
// maxSide square.
func (s *Service) Preview(folder, name string, maxSide int) ([]byte, error) {
	src, err := NewFolder(folder, s.extensions)
	if err != nil {
		return nil, err
	}

	data, err := src.Get(name)
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}

	img, err := vision.Decode(data, filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("decoding preview: %w", err)
	}

	if maxSide > 0 {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encoding preview: %w", err)
	}
	return buf.Bytes(), nil
}

// IsUserError reports whether err came from bad input rather than a failure
// inside the pipeline.
func IsUserError(err error) bool {
	return errors.Is(err, ErrDirectoryNotFound) || errors.Is(err, ErrInvalidQuery)
}
