package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/wudi/shardscan/ocr"
	"github.com/wudi/shardscan/shard"
)

// inventoryTokens mimics OCR output for a screenshot with two shard slots,
// one spurious label, and one orphan quantity. The "123" value is detected
// twice with offset boxes, the usual near-duplicate artifact.
func inventoryTokens() []ocr.Token {
	return []ocr.Token{
		{Left: 640, Top: 20, Width: 60, Height: 25, Confidence: 96, Text: "Void"},
		{Left: 706, Top: 20, Width: 84, Height: 25, Confidence: 91, Text: "Shards"},
		{Left: 660, Top: 60, Width: 40, Height: 16, Confidence: 87.5, Text: "123"},
		{Left: 661, Top: 61, Width: 39, Height: 16, Confidence: 65.0, Text: "123"},

		{Left: 1200, Top: 20, Width: 100, Height: 25, Confidence: 94, Text: "Ancient"},
		{Left: 1306, Top: 20, Width: 84, Height: 25, Confidence: 89, Text: "Shardss"},
		{Left: 1240, Top: 60, Width: 30, Height: 16, Confidence: 90, Text: "45"},

		// Proximity pairing picks this label up, but it is not a shard.
		{Left: 100, Top: 400, Width: 90, Height: 25, Confidence: 80, Text: "Treasure"},
		{Left: 120, Top: 440, Width: 10, Height: 16, Confidence: 85, Text: "7"},

		// No label anywhere near this quantity.
		{Left: 1800, Top: 900, Width: 30, Height: 16, Confidence: 92, Text: "99"},
	}
}

type fakeEngine struct {
	tokens []ocr.Token
	err    error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, in ocr.Input) (ocr.Result, error) {
	if f.err != nil {
		return ocr.Result{}, f.err
	}
	return ocr.Result{InputID: in.ID, Tokens: f.tokens}, nil
}

func TestScanTokens(t *testing.T) {
	s := New(&fakeEngine{})
	counts := s.ScanTokens(inventoryTokens())

	want := Counts{shard.CategoryVoid: 123, shard.CategoryAncient: 45}
	if len(counts) != len(want) {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	for cat, n := range want {
		if counts[cat] != n {
			t.Fatalf("counts[%v] = %d, want %d", cat, counts[cat], n)
		}
	}
	if counts.Total() != 168 {
		t.Fatalf("Total() = %d, want 168", counts.Total())
	}
}

func TestScanUsesEngine(t *testing.T) {
	s := New(&fakeEngine{tokens: inventoryTokens()})
	counts, err := s.Scan(context.Background(), []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if counts[shard.CategoryVoid] != 123 {
		t.Fatalf("unexpected void count: %+v", counts)
	}
}

func TestScanPropagatesEngineError(t *testing.T) {
	boom := errors.New("tesseract exploded")
	s := New(&fakeEngine{err: boom})
	_, err := s.Scan(context.Background(), []byte("png-bytes"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped engine error, got %v", err)
	}
}

func TestScanTokensEmptyInput(t *testing.T) {
	s := New(&fakeEngine{})
	counts := s.ScanTokens(nil)
	if len(counts) != 0 || counts.Total() != 0 {
		t.Fatalf("expected empty counts, got %+v", counts)
	}
}

func TestScanTokensMergePicksConfidentReading(t *testing.T) {
	// The low-confidence duplicate disagrees on the digits; the confident
	// reading must win.
	tokens := []ocr.Token{
		{Left: 640, Top: 20, Width: 60, Height: 25, Confidence: 96, Text: "Sacred"},
		{Left: 660, Top: 60, Width: 40, Height: 16, Confidence: 91, Text: "12"},
		{Left: 661, Top: 61, Width: 39, Height: 16, Confidence: 55, Text: "72"},
	}
	counts := New(&fakeEngine{}).ScanTokens(tokens)
	if counts[shard.CategorySacred] != 12 {
		t.Fatalf("expected confident reading 12, got %+v", counts)
	}
}

func TestScanTokensThousandsSeparator(t *testing.T) {
	tokens := []ocr.Token{
		{Left: 640, Top: 20, Width: 90, Height: 25, Confidence: 96, Text: "Mystery"},
		{Left: 660, Top: 60, Width: 50, Height: 16, Confidence: 90, Text: "1,234"},
	}
	counts := New(&fakeEngine{}).ScanTokens(tokens)
	if counts[shard.CategoryMystery] != 1234 {
		t.Fatalf("expected 1234, got %+v", counts)
	}
}

func TestWithLabelRadiusBoundsPairing(t *testing.T) {
	tokens := []ocr.Token{
		{Left: 640, Top: 20, Width: 60, Height: 25, Confidence: 96, Text: "Void"},
		{Left: 660, Top: 60, Width: 40, Height: 16, Confidence: 90, Text: "5"},
	}
	strict := New(&fakeEngine{}, WithLabelRadius(10))
	if counts := strict.ScanTokens(tokens); len(counts) != 0 {
		t.Fatalf("expected tight radius to reject pairing, got %+v", counts)
	}
	loose := New(&fakeEngine{}, WithLabelRadius(200))
	if counts := loose.ScanTokens(tokens); counts[shard.CategoryVoid] != 5 {
		t.Fatalf("expected loose radius to pair, got %+v", counts)
	}
}

func TestWithPartitioner(t *testing.T) {
	// A partitioner that isolates every token produces one band per
	// detection, so the duplicate reading is counted twice.
	each := func(tokens []ocr.Token) [][]ocr.Token {
		out := make([][]ocr.Token, 0, len(tokens))
		for _, tok := range tokens {
			out = append(out, []ocr.Token{tok})
		}
		return out
	}
	tokens := []ocr.Token{
		{Left: 640, Top: 20, Width: 60, Height: 25, Confidence: 96, Text: "Void"},
		{Left: 660, Top: 60, Width: 40, Height: 16, Confidence: 91, Text: "10"},
		{Left: 661, Top: 61, Width: 39, Height: 16, Confidence: 55, Text: "10"},
	}
	counts := New(&fakeEngine{}, WithPartitioner(each)).ScanTokens(tokens)
	if counts[shard.CategoryVoid] != 20 {
		t.Fatalf("expected custom partitioner to double-count, got %+v", counts)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"123", 123, true},
		{"1,234", 1234, true},
		{" 42 ", 42, true},
		{"0", 0, true},
		{"", 0, false},
		{",", 0, false},
		{"12a", 0, false},
		{"Void", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseQuantity(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseQuantity(%q) = (%d, %v), want (%d, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}
