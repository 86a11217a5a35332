package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Params controls how a region is rendered for the recognizer.
type Params struct {
	// Regions whose shorter side is below LargeSide are scaled by SmallScale,
	// larger ones by LargeScale.
	LargeSide  int
	SmallScale float64
	LargeScale float64

	// Local histogram equalization.
	ClipLimit float64
	TileGrid  image.Point

	// Median filter aperture, must be odd.
	MedianKernel int

	// Adaptive Gaussian threshold neighbourhood (odd) and the constant
	// subtracted from the weighted mean.
	BlockSize int
	Bias      float32
}

// DefaultParams returns parameters tuned for small UI fonts.
func DefaultParams() Params {
	return Params{
		LargeSide:    1200,
		SmallScale:   2.0,
		LargeScale:   1.5,
		ClipLimit:    2.0,
		TileGrid:     image.Pt(8, 8),
		MedianKernel: 3,
		BlockSize:    31,
		Bias:         5,
	}
}

// Scale returns the upscaling factor for a region of the given size.
func (p Params) Scale(rows, cols int) float64 {
	if min(rows, cols) < p.LargeSide {
		return p.SmallScale
	}
	return p.LargeScale
}

// Preprocessor renders regions into binarized variants.
type Preprocessor struct {
	params Params
}

// NewPreprocessor creates a Preprocessor with the given parameters.
func NewPreprocessor(params Params) *Preprocessor {
	return &Preprocessor{params: params}
}

// Variants returns three single-channel renderings of region, in order: an
// adaptive threshold, its inverse, and a global Otsu threshold. All three
// share one upscaled, equalized and denoised grayscale base. region is not
// modified; the caller owns the returned Mats.
func (p *Preprocessor) Variants(region gocv.Mat) ([]gocv.Mat, error) {
	if region.Empty() {
		return nil, fmt.Errorf("empty region")
	}

	base, err := p.grayscale(region)
	if err != nil {
		return nil, err
	}
	defer base.Close()

	adaptive := gocv.NewMat()
	gocv.AdaptiveThreshold(base, &adaptive, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, p.params.BlockSize, p.params.Bias)

	inverse := gocv.NewMat()
	gocv.BitwiseNot(adaptive, &inverse)

	otsu := gocv.NewMat()
	gocv.Threshold(base, &otsu, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	variants := []gocv.Mat{adaptive, inverse, otsu}
	for _, v := range variants {
		if v.Empty() {
			CloseAll(variants)
			return nil, fmt.Errorf("thresholding region %dx%d", region.Cols(), region.Rows())
		}
	}
	return variants, nil
}

// grayscale upscales region, converts it to one channel, equalizes contrast
// locally and applies a light median filter.
func (p *Preprocessor) grayscale(region gocv.Mat) (gocv.Mat, error) {
	scale := p.params.Scale(region.Rows(), region.Cols())

	big := gocv.NewMat()
	defer big.Close()
	gocv.Resize(region, &big, image.Point{}, scale, scale, gocv.InterpolationCubic)
	if big.Empty() {
		return gocv.NewMat(), fmt.Errorf("resizing region %dx%d", region.Cols(), region.Rows())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	switch big.Channels() {
	case 1:
		big.CopyTo(&gray)
	case 4:
		if err := gocv.CvtColor(big, &gray, gocv.ColorBGRAToGray); err != nil {
			return gocv.NewMat(), fmt.Errorf("converting to grayscale: %w", err)
		}
	default:
		if err := gocv.CvtColor(big, &gray, gocv.ColorBGRToGray); err != nil {
			return gocv.NewMat(), fmt.Errorf("converting to grayscale: %w", err)
		}
	}

	clahe := gocv.NewCLAHEWithParams(p.params.ClipLimit, p.params.TileGrid)
	defer clahe.Close()
	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(gray, &equalized)

	denoised := gocv.NewMat()
	gocv.MedianBlur(equalized, &denoised, p.params.MedianKernel)
	if denoised.Empty() {
		denoised.Close()
		return gocv.NewMat(), fmt.Errorf("denoising region %dx%d", region.Cols(), region.Rows())
	}
	return denoised, nil
}
