// Package shard defines the closed set of in-game shard categories and
// classifies raw OCR label text onto it. Classification is a lookup problem
// over a small fixed vocabulary, hardened against the one noise pattern OCR
// engines reliably introduce on these labels: a spurious trailing "s"
// appended to words that may or may not already end in one ("Shard" →
// "Shards" → "Shardss").
package shard

import "strings"

// Category identifies one of the fixed, game-defined shard currencies.
type Category int

const (
	// CategoryUnknown is the explicit no-match result; it is never a valid
	// classification target.
	CategoryUnknown Category = iota
	CategoryMystery
	CategoryAncient
	CategoryVoid
	CategorySacred
	CategoryPrimal
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{CategoryMystery, CategoryAncient, CategoryVoid, CategorySacred, CategoryPrimal}
}

// Key returns the short internal identifier for the category, distinct from
// any on-screen label.
func (c Category) Key() string {
	switch c {
	case CategoryMystery:
		return "mystery"
	case CategoryAncient:
		return "ancient"
	case CategoryVoid:
		return "void"
	case CategorySacred:
		return "sacred"
	case CategoryPrimal:
		return "primal"
	default:
		return "unknown"
	}
}

// String returns the category's display name.
func (c Category) String() string {
	switch c {
	case CategoryMystery:
		return "Mystery Shard"
	case CategoryAncient:
		return "Ancient Shard"
	case CategoryVoid:
		return "Void Shard"
	case CategorySacred:
		return "Sacred Shard"
	case CategoryPrimal:
		return "Primal Shard"
	default:
		return "Unknown"
	}
}

// byKey maps normalized label keys to categories. Keys are stored in
// normalized form (see normalizeKey), so every accepted surface variant of a
// label funnels to one entry. Both the bare category word and the full
// "<name> shard" label are accepted, since the game renders either depending
// on screen.
var byKey = map[string]Category{
	"mystery":       CategoryMystery,
	"mystery shard": CategoryMystery,
	"ancient":       CategoryAncient,
	"ancient shard": CategoryAncient,
	"void":          CategoryVoid,
	"void shard":    CategoryVoid,
	"sacred":        CategorySacred,
	"sacred shard":  CategorySacred,
	"primal":        CategoryPrimal,
	"primal shard":  CategoryPrimal,
}

// Classify maps a raw, possibly noisy label string onto a Category. The
// second return value reports whether the label matched; unmatched labels
// are expected, since label candidates are found by proximity heuristics and
// include arbitrary nearby screen text.
func Classify(rawLabel string) (Category, bool) {
	c, ok := byKey[normalizeKey(rawLabel)]
	if !ok {
		return CategoryUnknown, false
	}
	return c, true
}

// normalizeKey produces the deterministic lookup key for a raw label:
// lowercase, surrounding whitespace trimmed, inner whitespace runs collapsed
// to a single space, and the trailing run of 's' characters (with any spaces
// mixed in) removed. The suffix rule absorbs both real pluralization
// ("Shards") and the doubled artifact ("Shardss") with one pass; it cannot
// cause false matches because the lookup table only contains known keys. An
// unrelated word ending in "s" strips to a form that is simply absent from
// the table.
func normalizeKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.Join(strings.Fields(key), " ")
	key = strings.TrimRight(key, "s ")
	return key
}
