// Package vision crops, preprocesses and decodes screenshot pixels ahead of
// text recognition.
package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// Band is a rectangular region of an image expressed as fractions of its
// height (Y0..Y1) and width (X0..X1).
type Band struct {
	Y0, Y1 float64
	X0, X1 float64
}

// DefaultBands lists the regions where post footers render their timestamp,
// most likely first.
var DefaultBands = []Band{
	{Y0: 0.75, Y1: 1.00, X0: 0.00, X1: 1.00}, // bottom third
	{Y0: 0.65, Y1: 0.92, X0: 0.00, X1: 1.00}, // mid-lower wide band
	{Y0: 0.85, Y1: 1.00, X0: 0.10, X1: 0.90}, // centered bottom strip
}

// Valid reports whether the fractions are within [0,1] and ordered.
func (b Band) Valid() bool {
	in := func(f float64) bool { return f >= 0 && f <= 1 }
	return in(b.Y0) && in(b.Y1) && in(b.X0) && in(b.X1) && b.Y0 < b.Y1 && b.X0 < b.X1
}

// Rect resolves the band against an image of the given size.
func (b Band) Rect(width, height int) image.Rectangle {
	return image.Rect(
		int(float64(width)*b.X0), int(float64(height)*b.Y0),
		int(float64(width)*b.X1), int(float64(height)*b.Y1),
	)
}

// Crop returns a copy of each band of img in band order. Invalid bands and
// bands that resolve to zero area are skipped. The caller owns the returned
// Mats and must close them, see CloseAll.
func Crop(img gocv.Mat, bands []Band) []gocv.Mat {
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	crops := make([]gocv.Mat, 0, len(bands))
	for _, b := range bands {
		if !b.Valid() {
			continue
		}
		r := b.Rect(img.Cols(), img.Rows()).Intersect(bounds)
		if r.Empty() {
			continue
		}
		view := img.Region(r)
		crops = append(crops, view.Clone())
		view.Close()
	}
	return crops
}

// CloseAll releases every Mat in mats.
func CloseAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
