package scanning

import (
	"context"
	"image"
)

// Line is one line of text emitted by a Recognizer.
type Line struct {
	Text string
	// Confidence is in [0,100] when the backend reports one, else 0.
	Confidence float64
	// Box is the line's position in the submitted image when known.
	Box image.Rectangle
}

// Recognizer defines the interface for text recognition backends
type Recognizer interface {
	// Recognize returns the text lines found in a PNG-encoded image
	Recognize(ctx context.Context, png []byte) ([]Line, error)
	// Close closes the recognizer and releases resources
	Close() error
}
