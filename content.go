package guardian

import (
	"strings"
	"time"
)

// msThreshold is the cutoff above which a raw duration value is assumed to be
// milliseconds rather than seconds. Catalog APIs disagree on the unit; no real
// kids video runs 100000 seconds (~28 hours), so anything above it is ms.
const msThreshold = 100000

// ContentItem describes one candidate video or track to be judged. It is
// constructed fresh per gating decision from externally supplied catalog
// metadata and never mutated.
type ContentItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`

	// Duration is the raw duration as delivered by the catalog. Values above
	// msThreshold are interpreted as milliseconds; use DurationSeconds.
	Duration int64 `json:"duration"`

	ViewCount    int64  `json:"view_count"`
	LikeCount    *int64 `json:"like_count,omitempty"`
	DislikeCount *int64 `json:"dislike_count,omitempty"`

	Category     string     `json:"category,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// TextContent returns the lowercased concatenation of title, source name and
// description — the text all keyword and pattern scans run against.
func (c ContentItem) TextContent() string {
	return strings.ToLower(c.Title + " " + c.SourceName + " " + c.Description)
}

// DurationSeconds normalizes the raw duration to seconds.
func (c ContentItem) DurationSeconds() int64 {
	if c.Duration > msThreshold {
		return c.Duration / 1000
	}
	return c.Duration
}

// LikeRatio returns likes/(likes+dislikes) and true when both counts are
// known and at least one vote exists. Otherwise ok is false and the engine
// falls back to a neutral community score.
func (c ContentItem) LikeRatio() (ratio float64, ok bool) {
	if c.LikeCount == nil || c.DislikeCount == nil {
		return 0, false
	}
	total := *c.LikeCount + *c.DislikeCount
	if total <= 0 {
		return 0, false
	}
	return float64(*c.LikeCount) / float64(total), true
}
