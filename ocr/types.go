package ocr

import (
	"context"
	"image"
)

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Token represents a single raw detection emitted by an OCR engine: one
// recognized string together with its pixel bounding box and the engine's
// confidence in the reading. Tokens are plain values constructed fresh per
// scan; they carry no identity across scans.
type Token struct {
	// Left and Top locate the upper-left corner of the detection in pixel
	// coordinates with the origin in the upper-left corner of the image.
	Left int
	Top  int
	// Width and Height are the box dimensions in pixels.
	Width  int
	Height int
	// Confidence is the engine's score for the reading, in [0, 100];
	// higher is more trustworthy.
	Confidence float64
	// Text is the raw recognized string for this region.
	Text string
}

// Box returns the token's bounding box as an image.Rectangle.
func (t Token) Box() image.Rectangle {
	return image.Rect(t.Left, t.Top, t.Left+t.Width, t.Top+t.Height)
}

// IsEmpty reports whether the token has non-positive dimensions.
func (t Token) IsEmpty() bool { return t.Width <= 0 || t.Height <= 0 }

// Input encapsulates a single image submitted for OCR.
type Input struct {
	// ID is an optional caller-provided identifier that is echoed back in the
	// corresponding Result.
	ID string
	// Image is the encoded image payload in the format specified by Format.
	Image []byte
	// Format declares the image content type (e.g., image/png).
	Format ImageFormat
	// DPI carries the effective dots-per-inch for the image. Providers such as
	// Tesseract use this for scaling and layout heuristics; zero means unknown.
	DPI int
	// Languages is a list of language hints (e.g., "eng") that providers can
	// use to select trained data.
	Languages []string
	// Region restricts recognition to a subsection of the image. Nil means the
	// full image should be processed.
	Region *image.Rectangle
	// Metadata allows callers to pass through engine-specific knobs (e.g.,
	// "tessedit_pageseg_mode" for Tesseract) without hard-coding them into the
	// API surface.
	Metadata map[string]string
}

// Result captures OCR output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText contains the linearized text extracted from the image.
	PlainText string
	// Tokens carries the per-word detections with positional metadata.
	Tokens []Token
}

// Engine is the simplest OCR provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine handles multiple images in a single call, enabling providers
// that amortize setup costs or remote round-trips.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}
