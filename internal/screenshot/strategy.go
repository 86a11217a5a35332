package screenshot

import (
	"context"
	"fmt"
	"time"
)

// Hit is the instant chosen for one image and the text it came from.
type Hit struct {
	Instant time.Time
	Text    string
}

// Stage lazily produces the cleaned, deduplicated candidate texts for one
// region of an image. Stages are ordered by priority; the whole image is
// always the last stage.
type Stage func(ctx context.Context) []string

// ParseFunc converts a candidate text to a UTC instant.
type ParseFunc func(text string) (time.Time, bool)

// Strategy picks at most one instant per image.
type Strategy interface {
	Select(ctx context.Context, stages []Stage, parse ParseFunc) (Hit, bool)
}

// FirstSuccess returns the first candidate that parses, walking stages in
// priority order and candidates in first-seen order. Later stages are never
// evaluated once a candidate parses.
type FirstSuccess struct{}

func (FirstSuccess) Select(ctx context.Context, stages []Stage, parse ParseFunc) (Hit, bool) {
	for _, stage := range stages {
		if ctx.Err() != nil {
			return Hit{}, false
		}
		for _, text := range stage(ctx) {
			if t, ok := parse(text); ok {
				return Hit{Instant: t, Text: text}, true
			}
		}
	}
	return Hit{}, false
}

// MajorityVote evaluates every stage, parses every candidate and returns the
// minute that the most candidates agree on. Ties go to the minute seen
// first; the returned text is the first candidate that produced it.
type MajorityVote struct{}

func (MajorityVote) Select(ctx context.Context, stages []Stage, parse ParseFunc) (Hit, bool) {
	type tally struct {
		first Hit
		votes int
	}

	var order []int64
	tallies := make(map[int64]*tally)
	for _, stage := range stages {
		if ctx.Err() != nil {
			return Hit{}, false
		}
		for _, text := range stage(ctx) {
			t, ok := parse(text)
			if !ok {
				continue
			}
			minute := t.Truncate(time.Minute).Unix()
			if tl, seen := tallies[minute]; seen {
				tl.votes++
				continue
			}
			tallies[minute] = &tally{first: Hit{Instant: t, Text: text}, votes: 1}
			order = append(order, minute)
		}
	}

	var best *tally
	for _, minute := range order {
		if tl := tallies[minute]; best == nil || tl.votes > best.votes {
			best = tl
		}
	}
	if best == nil {
		return Hit{}, false
	}
	return best.first, true
}

// StrategyByName resolves "first" or "vote".
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", "first":
		return FirstSuccess{}, nil
	case "vote":
		return MajorityVote{}, nil
	}
	return nil, fmt.Errorf("unknown selection strategy %q (valid: first, vote)", name)
}
