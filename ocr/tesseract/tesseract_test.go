package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/shardscan/ocr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderPNG(t *testing.T, text string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestTesseractEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	data := renderPNG(t, "Void Shards 123")
	in := ocr.NewInput("scan-0", data, ocr.ImageFormatPNG,
		ocr.WithLanguages("eng"), ocr.WithDPI(300), WithUpscale(2))

	res, err := NewTesseractEngine().Recognize(context.Background(), in)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if res.InputID != "scan-0" {
		t.Fatalf("unexpected input id: %s", res.InputID)
	}
	got := strings.ToLower(res.PlainText)
	if !strings.Contains(got, "void") || !strings.Contains(got, "123") {
		t.Fatalf("unexpected OCR output: %q", res.PlainText)
	}
	if len(res.Tokens) == 0 {
		t.Fatalf("expected word tokens")
	}
	for _, tok := range res.Tokens {
		if tok.IsEmpty() {
			t.Fatalf("token with empty box: %+v", tok)
		}
		// Boxes must come back in the original image's coordinate space.
		if tok.Left > 240 || tok.Top > 80 {
			t.Fatalf("token box outside original image: %+v", tok)
		}
	}
}

func TestPrepareImageCrop(t *testing.T) {
	data := renderPNG(t, "crop me")
	region := image.Rect(10, 10, 110, 60)
	out, err := prepareImage(data, &region, 1)
	if err != nil {
		t.Fatalf("prepareImage() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode cropped image: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("unexpected cropped size: %v", img.Bounds())
	}
}

func TestPrepareImageUpscale(t *testing.T) {
	data := renderPNG(t, "scale me")
	out, err := prepareImage(data, nil, 3)
	if err != nil {
		t.Fatalf("prepareImage() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode scaled image: %v", err)
	}
	if img.Bounds().Dx() != 720 || img.Bounds().Dy() != 240 {
		t.Fatalf("unexpected scaled size: %v", img.Bounds())
	}
}

func TestPrepareImagePassThrough(t *testing.T) {
	data := []byte("not even an image")
	out, err := prepareImage(data, nil, 1)
	if err != nil {
		t.Fatalf("prepareImage() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("expected untouched bytes")
	}
}

func TestPrepareImageRegionOutsideBounds(t *testing.T) {
	data := renderPNG(t, "x")
	region := image.Rect(1000, 1000, 1100, 1100)
	if _, err := prepareImage(data, &region, 1); err == nil {
		t.Fatalf("expected error for region outside image bounds")
	}
}

func TestUpscaleFactor(t *testing.T) {
	if got := upscaleFactor(nil); got != 1 {
		t.Fatalf("nil metadata: got %d", got)
	}
	if got := upscaleFactor(map[string]string{MetadataUpscale: "3"}); got != 3 {
		t.Fatalf("factor 3: got %d", got)
	}
	if got := upscaleFactor(map[string]string{MetadataUpscale: "1"}); got != 1 {
		t.Fatalf("factor below 2 must be ignored: got %d", got)
	}
	if got := upscaleFactor(map[string]string{MetadataUpscale: "junk"}); got != 1 {
		t.Fatalf("junk factor must be ignored: got %d", got)
	}
}

func TestWithUpscaleOption(t *testing.T) {
	in := ocr.Input{}
	WithUpscale(2)(&in)
	if in.Metadata[MetadataUpscale] != "2" {
		t.Fatalf("expected upscale metadata, got %+v", in.Metadata)
	}
}
