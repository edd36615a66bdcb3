package guardian

import "strings"

// Component maxima of the Guardian Score breakdown.
const (
	maxTrustScore     = 250
	maxContentScore   = 300
	maxCategoryScore  = 150
	maxDurationScore  = 100
	maxCommunityScore = 100
	maxMetadataScore  = 100
	maxTotalScore     = 1000
)

// ScoreBreakdown names the six weighted components of a Guardian Score.
type ScoreBreakdown struct {
	Trust     int `json:"trust"`     // ≤250, from the source's trust level
	Content   int `json:"content"`   // ≤300, keyword and pattern signals in the text
	Category  int `json:"category"`  // ≤150, category vs. the tier's allow-set
	Duration  int `json:"duration"`  // ≤100, length vs. the tier's recommended maximum
	Community int `json:"community"` // ≤100, like/dislike ratio
	Metadata  int `json:"metadata"`  // ≤100, completeness heuristics
}

// GuardianScore is the 0–1000 composite safety score. Before rule
// adjustments the breakdown components sum to Total exactly.
type GuardianScore struct {
	Total     int            `json:"total"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// BlockedScore is the zero score attached to blocked verdicts.
func BlockedScore() GuardianScore { return GuardianScore{} }

// withAdjustment applies an accumulated rule adjustment and re-clamps the
// total to [0, 1000]. The breakdown is left as computed.
func (s GuardianScore) withAdjustment(delta int) GuardianScore {
	s.Total = clamp(s.Total+delta, 0, maxTotalScore)
	return s
}

// vocabulary holds the lowercased keyword and pattern tables the content
// component scans for.
type vocabulary struct {
	safeKeywords     []string
	strongIndicators []string
	suspicious       []string
}

// tierTable is the compiled per-tier policy row.
type tierTable struct {
	requiredScore  int
	maxDurationSec int64               // 0 = unlimited
	categories     map[string]struct{} // lowercased allow-set
}

// scoreContent computes the six-component Guardian Score. It is a pure
// function of its inputs: no I/O, no hidden state.
func scoreContent(item ContentItem, trust TrustLevel, tier AgeTier, tt tierTable, v vocabulary) GuardianScore {
	b := ScoreBreakdown{
		Trust:     trust.BaseScore(),
		Content:   contentScore(item, tier, v),
		Category:  categoryScore(item, tier, tt),
		Duration:  durationScore(item, tier, tt),
		Community: communityScore(item),
		Metadata:  metadataScore(item),
	}
	total := b.Trust + b.Content + b.Category + b.Duration + b.Community + b.Metadata
	return GuardianScore{
		Total:     clamp(total, 0, maxTotalScore),
		Breakdown: b,
	}
}

// contentScore starts from a 150 baseline, rewards safe-keyword matches and
// strong safe indicators, and in strict mode penalizes suspicious phrasing.
func contentScore(item ContentItem, tier AgeTier, v vocabulary) int {
	const (
		baseline       = 150
		perKeyword     = 15
		keywordCap     = 100
		indicatorBonus = 50
	)

	text := item.TextContent()
	score := baseline

	bonus := countMatches(text, v.safeKeywords) * perKeyword
	if bonus > keywordCap {
		bonus = keywordCap
	}
	score += bonus

	for _, ind := range v.strongIndicators {
		if strings.Contains(text, ind) {
			score += indicatorBonus
			break
		}
	}

	if tier.StrictMode() {
		penalty := countMatches(text, v.suspicious) * suspiciousPatternPenalty
		if penalty > suspiciousPenaltyCap {
			penalty = suspiciousPenaltyCap
		}
		score -= penalty
	}

	return clamp(score, 0, maxContentScore)
}

// categoryScore compares the item's category to the tier's allow-set. The
// unrestricted tier carries no allow-set and always scores full marks;
// uncategorized content scores a cautious middle value elsewhere.
func categoryScore(item ContentItem, tier AgeTier, tt tierTable) int {
	const (
		uncategorized = 75
		allowed       = maxCategoryScore
		disallowed    = 50
	)
	if tier.Unrestricted() {
		return allowed
	}
	if item.Category == "" {
		return uncategorized
	}
	if _, ok := tt.categories[strings.ToLower(item.Category)]; ok {
		return allowed
	}
	return disallowed
}

// durationScore bands the normalized duration against the tier's maximum
// recommended duration. Shorter is safer for younger viewers.
func durationScore(item ContentItem, tier AgeTier, tt tierTable) int {
	if tier.Unrestricted() || tt.maxDurationSec <= 0 {
		return maxDurationScore
	}
	ratio := float64(item.DurationSeconds()) / float64(tt.maxDurationSec)
	switch {
	case ratio <= 0.5:
		return 100
	case ratio <= 0.75:
		return 80
	case ratio <= 1.0:
		return 60
	case ratio <= 1.5:
		return 30
	default:
		return 10
	}
}

// communityScore bands the like ratio; absent vote data scores neutral.
func communityScore(item ContentItem) int {
	ratio, ok := item.LikeRatio()
	if !ok {
		return 50
	}
	switch {
	case ratio >= 0.98:
		return 100
	case ratio >= 0.95:
		return 90
	case ratio >= 0.90:
		return 80
	case ratio >= 0.80:
		return 70
	case ratio >= 0.70:
		return 50
	case ratio >= 0.50:
		return 30
	default:
		return 10
	}
}

// metadataScore rewards well-formed listings: a reasonable title length, a
// real description, and a source name that doesn't look like a throwaway
// account.
func metadataScore(item ContentItem) int {
	score := 50

	switch n := len(item.Title); {
	case n >= 10 && n <= 100:
		score += 20
	case n >= 5 && n <= 150:
		score += 10
	default:
		score -= 10
	}

	if strings.TrimSpace(item.Description) != "" {
		score += 15
		if len(item.Description) >= 100 {
			score += 10
		}
	}

	name := strings.ToLower(item.SourceName)
	if len(name) >= 3 && !strings.Contains(name, "user") {
		score += 5
	}

	return clamp(score, 0, maxMetadataScore)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
