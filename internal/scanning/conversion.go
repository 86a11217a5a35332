package scanning

import (
	"fmt"

	"gocv.io/x/gocv"
)

// encodePNG converts a preprocessed variant to a 3-channel PNG, the format
// every backend accepts.
func encodePNG(variant gocv.Mat) ([]byte, error) {
	if variant.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	src := variant
	if variant.Channels() == 1 {
		bgr := gocv.NewMat()
		defer bgr.Close()
		if err := gocv.CvtColor(variant, &bgr, gocv.ColorGrayToBGR); err != nil {
			return nil, fmt.Errorf("converting to BGR: %w", err)
		}
		src = bgr
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, src)
	if err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory that Close releases.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
