// Package scan orchestrates a full shard-inventory scan: it drives an OCR
// engine over a screenshot, reconciles the raw detections into one quantity
// per band, pairs each quantity with its nearest label, and classifies the
// labels into canonical shard categories.
package scan

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/wudi/shardscan/band"
	"github.com/wudi/shardscan/observability"
	"github.com/wudi/shardscan/ocr"
	"github.com/wudi/shardscan/shard"
)

// Counts holds the scan outcome: one integer quantity per shard category.
type Counts map[shard.Category]int

// Total returns the sum of all counted shards.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Partitioner groups raw tokens into geometric bands. It is a separate,
// swappable heuristic; band.Partition is the default.
type Partitioner func([]ocr.Token) [][]ocr.Token

// Option configures a Scanner.
type Option func(*Scanner)

// WithPartitioner replaces the default band partitioning heuristic.
func WithPartitioner(p Partitioner) Option {
	return func(s *Scanner) { s.partition = p }
}

// WithLogger routes scanner diagnostics to the given logger.
func WithLogger(l observability.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithTracer attaches a tracer to scan operations.
func WithTracer(t observability.Tracer) Option {
	return func(s *Scanner) { s.tracer = t }
}

// WithLabelRadius bounds the label search distance in pixels. Zero (the
// default) derives the bound from each quantity token's height.
func WithLabelRadius(px int) Option {
	return func(s *Scanner) { s.labelRadius = px }
}

// Scanner turns screenshots into shard counts. The zero value is not usable;
// construct with New. A Scanner is safe for concurrent use: it only reads
// its own configuration and per-call inputs.
type Scanner struct {
	engine      ocr.Engine
	partition   Partitioner
	logger      observability.Logger
	tracer      observability.Tracer
	labelRadius int
}

// New constructs a Scanner over the given OCR engine.
func New(engine ocr.Engine, opts ...Option) *Scanner {
	s := &Scanner{
		engine: engine,
		partition: func(tokens []ocr.Token) [][]ocr.Token {
			return band.Partition(tokens)
		},
		logger: observability.NopLogger{},
		tracer: observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan recognizes the encoded screenshot and classifies its shard counters.
func (s *Scanner) Scan(ctx context.Context, img []byte, opts ...ocr.InputOption) (Counts, error) {
	ctx, span := s.tracer.StartSpan(ctx, "scan")
	defer span.Finish()

	in := ocr.NewInput("scan", img, ocr.ImageFormatPNG, opts...)
	res, err := s.engine.Recognize(ctx, in)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("recognize screenshot: %w", err)
	}
	s.logger.Debug("recognized screenshot",
		observability.String("engine", s.engine.Name()),
		observability.Int("tokens", len(res.Tokens)))
	return s.ScanTokens(res.Tokens), nil
}

// ScanTokens classifies pre-extracted tokens. This is the pure path behind
// Scan, exposed for replaying saved OCR output (e.g. hOCR files).
func (s *Scanner) ScanTokens(tokens []ocr.Token) Counts {
	quantities, labelWords := splitTokens(tokens)
	labels := groupLabels(s.partition, labelWords)

	bands := s.partition(quantities)
	s.logger.Debug("partitioned quantity tokens",
		observability.Int("quantities", len(quantities)),
		observability.Int("bands", len(bands)))

	counts := make(Counts)
	for _, b := range bands {
		merged := band.Merge(b)
		if len(merged) == 0 {
			continue
		}
		winner := merged[0]
		value, ok := parseQuantity(winner.Text)
		if !ok {
			continue
		}
		label, ok := s.nearestLabel(winner, labels)
		if !ok {
			s.logger.Debug("quantity without nearby label",
				observability.String("text", winner.Text))
			continue
		}
		category, ok := shard.Classify(label.text)
		if !ok {
			s.logger.Debug("label did not classify",
				observability.String("label", label.text))
			continue
		}
		counts[category] += value
	}
	return counts
}

// label is a group of adjacent word tokens joined in reading order.
type label struct {
	text   string
	bounds image.Rectangle
}

func (l label) center() image.Point {
	return image.Pt((l.bounds.Min.X+l.bounds.Max.X)/2, (l.bounds.Min.Y+l.bounds.Max.Y)/2)
}

// splitTokens separates quantity candidates (numeric text) from label word
// candidates. Zero-area tokens are dropped on both sides.
func splitTokens(tokens []ocr.Token) (quantities, labelWords []ocr.Token) {
	for _, t := range tokens {
		if t.IsEmpty() || strings.TrimSpace(t.Text) == "" {
			continue
		}
		if _, ok := parseQuantity(t.Text); ok {
			quantities = append(quantities, t)
		} else {
			labelWords = append(labelWords, t)
		}
	}
	return quantities, labelWords
}

// groupLabels bands adjacent label words and joins each group into a single
// label string in left-to-right order, so "Void" + "Shards" becomes one
// candidate "Void Shards".
func groupLabels(partition Partitioner, words []ocr.Token) []label {
	labels := make([]label, 0)
	for _, group := range partition(words) {
		sorted := append([]ocr.Token(nil), group...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Left < sorted[j].Left })
		parts := make([]string, 0, len(sorted))
		bounds := sorted[0].Box()
		for _, t := range sorted {
			parts = append(parts, t.Text)
			bounds = bounds.Union(t.Box())
		}
		labels = append(labels, label{text: strings.Join(parts, " "), bounds: bounds})
	}
	return labels
}

// nearestLabel finds the closest label group by box-center distance, bounded
// by the configured radius (or a default derived from the quantity token's
// height).
func (s *Scanner) nearestLabel(quantity ocr.Token, labels []label) (label, bool) {
	radius := float64(s.labelRadius)
	if radius <= 0 {
		radius = float64(quantity.Height) * 8
	}
	qBox := quantity.Box()
	qCenter := image.Pt((qBox.Min.X+qBox.Max.X)/2, (qBox.Min.Y+qBox.Max.Y)/2)

	best := label{}
	bestDist := math.Inf(1)
	found := false
	for _, l := range labels {
		c := l.center()
		dx := float64(c.X - qCenter.X)
		dy := float64(c.Y - qCenter.Y)
		dist := math.Hypot(dx, dy)
		if dist <= radius && dist < bestDist {
			best = l
			bestDist = dist
			found = true
		}
	}
	return best, found
}

// parseQuantity interprets a token's text as an on-screen counter value.
// Thousands separators are tolerated; anything else disqualifies the token
// as a quantity.
func parseQuantity(text string) (int, bool) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return 0, false
	}
	value := 0
	digits := 0
	for _, r := range cleaned {
		switch {
		case r >= '0' && r <= '9':
			value = value*10 + int(r-'0')
			digits++
		case r == ',' || r == '.':
			// thousands separator
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	return value, true
}
