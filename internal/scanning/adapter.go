package scanning

import (
	"context"
	"log/slog"
	"strings"

	"gocv.io/x/gocv"

	"github.com/zombor/screenstamp/internal/timestamp"
)

// TimeLines runs rec once per variant and returns every recognized line that
// carries a time token, in recognition order. Lines without a time token are
// UI chrome (handles, counters, buttons) and are dropped here. Recognizer
// failures are logged and treated as an empty result.
func TimeLines(ctx context.Context, rec Recognizer, variants []gocv.Mat) []string {
	var lines []string
	for i, variant := range variants {
		if ctx.Err() != nil {
			return lines
		}

		data, err := encodePNG(variant)
		if err != nil {
			slog.Warn("Failed to encode variant", "variant", i, "error", err)
			continue
		}

		recognized, err := rec.Recognize(ctx, data)
		if err != nil {
			slog.Warn("Text recognition failed", "variant", i, "error", err)
			continue
		}

		for _, l := range recognized {
			text := strings.Join(strings.Fields(l.Text), " ")
			if text != "" && timestamp.HasTimeToken(text) {
				lines = append(lines, text)
			}
		}
	}
	return lines
}
