package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ImageExtensions are the raster formats indexed by default.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// ExtraExtensions are opt-in formats: iPhone captures and screenshots saved
// as single-page PDFs.
var ExtraExtensions = []string{".heic", ".heif", ".pdf"}

// Decode decodes an encoded image. ext is the file extension and picks the
// decoder for formats the standard image registry cannot sniff.
func Decode(data []byte, ext string) (image.Image, error) {
	ext = strings.ToLower(ext)

	switch {
	case ext == ".pdf":
		return pdfToImage(data)
	case isHEICFormat(data) || ext == ".heic" || ext == ".heif":
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// DecodeMat decodes an encoded image into a 3-channel BGR Mat owned by the
// caller.
func DecodeMat(data []byte, ext string) (gocv.Mat, error) {
	img, err := Decode(data, ext)
	if err != nil {
		return gocv.NewMat(), err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("converting image to mat: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("decoded image is empty")
	}
	return mat, nil
}

// pdfToImage renders the first page of a PDF
func pdfToImage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
