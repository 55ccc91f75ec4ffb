// Package thumbnail resolves a point to the illustrative image it shows in
// the detail panel. URL construction is left to the caller; this package
// fixes the part that must stay deterministic: the category keywords and the
// cache bucket.
package thumbnail

import (
	"fmt"

	"github.com/vanderheijden86/sensemap/pkg/model"
)

// CacheBuckets bounds the number of distinct images per keyword set. Many
// points share an image, which keeps the remote cache warm.
const CacheBuckets = 100

// Keyword sets for points that do not resolve to a palette category.
const (
	MixedKeywords    = "city,life"
	FallbackKeywords = "abstract"
)

// Ref identifies a cached thumbnail.
type Ref struct {
	Category string `json:"category"`
	Keywords string `json:"keywords"`
	Bucket   int    `json:"bucket"`
}

// Bucket maps an ID onto [0, CacheBuckets).
func Bucket(id int) int {
	b := id % CacheBuckets
	if b < 0 {
		b += CacheBuckets
	}
	return b
}

// Resolve computes the thumbnail reference for p using its true dominant
// category (ties go to the first category in palette order).
func Resolve(p model.Point, palette model.Palette) Ref {
	cat, _ := p.TrueDominant(palette)
	return Ref{
		Category: cat,
		Keywords: Keywords(cat, palette),
		Bucket:   Bucket(p.ID),
	}
}

// Keywords returns the keyword set for a category name.
func Keywords(category string, palette model.Palette) string {
	if category == model.Mixed {
		return MixedKeywords
	}
	if c, ok := palette.Lookup(category); ok && c.Keywords != "" {
		return c.Keywords
	}
	return FallbackKeywords
}

// URL fills a URL template with the reference. The template receives the
// keywords and the bucket, in that order, e.g.
// "https://loremflickr.com/320/240/%s?lock=%d".
func (r Ref) URL(template string) string {
	return fmt.Sprintf(template, r.Keywords, r.Bucket)
}
