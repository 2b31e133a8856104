// Package band reconciles overlapping OCR detections. OCR engines routinely
// emit several near-duplicate boxes for a single on-screen value; this
// package groups detections that cover the same physical region into bands
// (Partition) and collapses each band to its most trustworthy reading
// (Merge). Both operations are pure and safe for concurrent use.
package band

import (
	"image"

	"github.com/wudi/shardscan/ocr"
)

// Merge collapses a band of tokens describing the same physical value into a
// single representative: the token with the highest confidence. Ties are
// broken in favor of the token encountered first, so output is stable under
// upstream ordering instability. An empty band yields an empty result.
//
// Merge picks by confidence alone; it does not vote across tokens whose
// texts disagree. Overlap detection is geometric, not semantic.
func Merge(tokens []ocr.Token) []ocr.Token {
	if len(tokens) == 0 {
		return nil
	}
	best := tokens[0]
	for _, t := range tokens[1:] {
		if t.Confidence > best.Confidence {
			best = t
		}
	}
	return []ocr.Token{best}
}

// Option tunes the Partition proximity heuristic.
type Option func(*config)

type config struct {
	gapFraction float64
	minGap      int
}

// WithGapFraction sets the fraction of a token's height by which its box is
// inflated before overlap testing. The default is 0.5.
func WithGapFraction(f float64) Option {
	return func(c *config) { c.gapFraction = f }
}

// WithMinGap sets the minimum inflation in pixels regardless of token
// height. The default is 2.
func WithMinGap(px int) Option {
	return func(c *config) { c.minGap = px }
}

// Partition groups tokens into bands by geometric proximity: two tokens
// belong to the same band when their boxes, each inflated by the configured
// gap, intersect, and bands are the transitive closure of that relation.
// Zero-area tokens are dropped. The result is deterministic: bands appear in
// order of their first token, and tokens keep input order within a band.
func Partition(tokens []ocr.Token, opts ...Option) [][]ocr.Token {
	cfg := config{gapFraction: 0.5, minGap: 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	valid := make([]ocr.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.IsEmpty() {
			continue
		}
		valid = append(valid, t)
	}
	if len(valid) == 0 {
		return nil
	}

	inflated := make([]image.Rectangle, len(valid))
	for i, t := range valid {
		inflated[i] = inflate(t.Box(), gap(t, cfg))
	}

	parent := make([]int, len(valid))
	for i := range parent {
		parent[i] = i
	}
	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			if inflated[i].Overlaps(inflated[j]) {
				union(parent, i, j)
			}
		}
	}

	order := make([]int, 0)
	groups := make(map[int][]ocr.Token)
	for i, t := range valid {
		root := find(parent, i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], t)
	}
	bands := make([][]ocr.Token, 0, len(order))
	for _, root := range order {
		bands = append(bands, groups[root])
	}
	return bands
}

func gap(t ocr.Token, cfg config) int {
	g := int(float64(t.Height) * cfg.gapFraction)
	if g < cfg.minGap {
		g = cfg.minGap
	}
	return g
}

func inflate(r image.Rectangle, by int) image.Rectangle {
	return image.Rect(r.Min.X-by, r.Min.Y-by, r.Max.X+by, r.Max.Y+by)
}

func find(parent []int, i int) int {
	for parent[i] != i {
		parent[i] = parent[parent[i]]
		i = parent[i]
	}
	return i
}

func union(parent []int, a, b int) {
	ra, rb := find(parent, a), find(parent, b)
	if ra == rb {
		return
	}
	// Attach the later root under the earlier one so band order follows
	// first-token order.
	if ra < rb {
		parent[rb] = ra
	} else {
		parent[ra] = rb
	}
}
