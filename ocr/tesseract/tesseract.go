package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/draw"

	"github.com/wudi/shardscan/ocr"
)

func init() {
	ocr.SetDefaultEngine(NewTesseractEngine())
}

// MetadataUpscale is the input metadata key holding an integer scale factor.
// Screenshots of small UI counters often recognize poorly at native size;
// a value of 2 or 3 upscales the image before recognition. The key is
// consumed by this adapter and never forwarded to Tesseract.
const MetadataUpscale = "shardscan_upscale"

// WithUpscale requests that the image be enlarged by the given integer factor
// before recognition. Factors below 2 are ignored.
func WithUpscale(factor int) ocr.InputOption {
	return func(in *ocr.Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[MetadataUpscale] = strconv.Itoa(factor)
	}
}

// TesseractEngine implements Engine and BatchEngine using the gosseract client
// as the default OCR provider.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image input.
func (e *TesseractEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	c := e.clientFactory()
	defer c.Close()
	return e.recognizeWithClient(ctx, c, in)
}

// RecognizeBatch processes multiple inputs using a single client instance to
// amortize setup costs. Inputs are processed sequentially.
func (e *TesseractEngine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	results := make([]ocr.Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		c := e.clientFactory()
		res, err := e.recognizeWithClient(ctx, c, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		c.Close()
		results = append(results, res)
	}
	return results, nil
}

func (e *TesseractEngine) recognizeWithClient(ctx context.Context, c *gosseract.Client, in ocr.Input) (ocr.Result, error) {
	scale := upscaleFactor(in.Metadata)
	imgData, err := prepareImage(in.Image, in.Region, scale)
	if err != nil {
		return ocr.Result{}, err
	}
	if err := c.SetImageFromBytes(imgData); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if strings.HasPrefix(k, "shardscan_") {
			continue
		}
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	plain := strings.TrimSpace(text)

	tokens := extractTokens(c, scale, in.Region)

	return ocr.Result{
		InputID:   in.ID,
		PlainText: plain,
		Tokens:    tokens,
	}, nil
}

// extractTokens maps Tesseract word boxes back into the coordinate space of
// the original input image, undoing any upscale and region offset.
func extractTokens(c *gosseract.Client, scale int, region *image.Rectangle) []ocr.Token {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	offsetX, offsetY := 0, 0
	if region != nil {
		offsetX, offsetY = region.Min.X, region.Min.Y
	}
	tokens := make([]ocr.Token, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		tokens = append(tokens, ocr.Token{
			Left:       offsetX + b.Box.Min.X/scale,
			Top:        offsetY + b.Box.Min.Y/scale,
			Width:      b.Box.Dx() / scale,
			Height:     b.Box.Dy() / scale,
			Confidence: b.Confidence,
			Text:       word,
		})
	}
	return tokens
}

func upscaleFactor(metadata map[string]string) int {
	v, ok := metadata[MetadataUpscale]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 2 {
		return 1
	}
	return n
}

// prepareImage crops the input to the requested region and applies the
// upscale factor. With no region and factor 1 the original bytes pass
// through untouched.
func prepareImage(data []byte, region *image.Rectangle, scale int) ([]byte, error) {
	if region == nil && scale == 1 {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if region != nil {
		rect := region.Intersect(img.Bounds())
		if rect.Empty() {
			return nil, fmt.Errorf("region outside image bounds")
		}
		subImg, ok := img.(interface {
			SubImage(r image.Rectangle) image.Image
		})
		if !ok {
			return nil, fmt.Errorf("image does not support sub-image")
		}
		img = subImg.SubImage(rect)
	}
	if scale > 1 {
		src := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, src.Dx()*scale, src.Dy()*scale))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode prepared image: %w", err)
	}
	return buf.Bytes(), nil
}
