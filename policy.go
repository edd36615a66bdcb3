package guardian

import (
	"encoding/json"
	"fmt"
	"io"
)

// TrustPolicy holds the identity sets the trust classifier matches against.
// All sets are deployment data; empty sets are valid (everything resolves
// NEUTRAL until the roster is populated).
type TrustPolicy struct {
	VerifiedPartnerIDs   []string `json:"verified_partner_ids,omitempty"`
	TrustedIDs           []string `json:"trusted_ids,omitempty"`
	BlockedIDs           []string `json:"blocked_ids,omitempty"`
	TrustedNameFragments []string `json:"trusted_name_fragments,omitempty"`
}

// TierPolicy is one row of the per-tier policy tables.
type TierPolicy struct {
	RequiredScore      int      `json:"required_score"`
	MaxDurationSeconds int64    `json:"max_duration_seconds"` // 0 = unlimited
	Blocklist          []string `json:"blocklist"`
	AllowedCategories  []string `json:"allowed_categories"`
}

// Vocabulary holds the keyword and pattern tables the content component and
// the suspicious-pattern rule scan for.
type Vocabulary struct {
	SafeKeywords         []string `json:"safe_keywords"`
	StrongSafeIndicators []string `json:"strong_safe_indicators"`
	SuspiciousPatterns   []string `json:"suspicious_patterns"`
}

// Policy is the complete configuration snapshot for the engine. It is loaded
// once at startup and swapped atomically on remote policy updates; it is
// never mutated in place.
type Policy struct {
	Trust       TrustPolicy            `json:"trust"`
	Reputation  ReputationBands        `json:"reputation"`
	Tiers       map[AgeTier]TierPolicy `json:"tiers"`
	Vocabulary  Vocabulary             `json:"vocabulary"`
	CustomRules []ExprRuleSpec         `json:"custom_rules,omitempty"`
}

// DefaultTrustedNameFragments are curated producer-name fragments that
// promote an unknown source to RECOGNIZED.
var DefaultTrustedNameFragments = []string{
	"sesame street",
	"pbs kids",
	"nick jr",
	"bbc children",
	"national geographic kids",
	"super simple songs",
	"storybots",
}

// DefaultSafeKeywords reward family-safe vocabulary in the content text.
var DefaultSafeKeywords = []string{
	"educational", "learning", "kids", "children", "family",
	"nursery", "preschool", "kindergarten", "alphabet", "counting",
	"phonics", "lullaby", "storytime", "bedtime", "sing along",
	"science", "craft", "drawing", "animals",
}

// DefaultStrongSafeIndicators are phrases so strongly associated with
// curated children's programming that they earn a flat content bonus.
var DefaultStrongSafeIndicators = []string{
	"nursery rhyme",
	"for kids",
	"for toddlers",
	"read aloud",
	"learn with",
}

// DefaultSuspiciousPatterns mark manipulative or low-quality phrasing that
// strict mode penalizes.
var DefaultSuspiciousPatterns = []string{
	"you won't believe",
	"gone wrong",
	"3am",
	"not clickbait",
	"free robux",
	"free vbucks",
	"click here",
	"giveaway",
	"100% real",
	"shocking",
	"do not watch",
}

// blocklistSteps are the terms each tier adds on top of the next looser
// tier, so stricter tiers always carry superset blocklists.
var blocklistSteps = map[AgeTier][]string{
	TierUnder16: {"18+", "nsfw", "xxx", "explicit", "porn", "gore", "onlyfans", "casino", "gambling"},
	TierUnder14: {"horror", "jumpscare", "dating", "vape", "drunk"},
	TierUnder13: {"creepypasta", "slasher", "ouija", "seance"},
	TierUnder12: {"haunted", "murder", "killer", "torture"},
	TierUnder10: {"zombie", "demon", "exorcism", "blood"},
	TierUnder8:  {"scary", "weapon", "prank", "fight"},
	TierUnder5:  {"challenge", "wrestling", "villain"},
}

// DefaultBlocklist returns the cumulative blocklist for a tier. The
// unrestricted tier has none.
func DefaultBlocklist(tier AgeTier) []string {
	var terms []string
	for _, t := range AllTiers {
		if t == TierAll || t.Strictness() > tier.Strictness() {
			continue
		}
		terms = append(terms, blocklistSteps[t]...)
	}
	return terms
}

// defaultTierRows holds the non-blocklist per-tier defaults.
var defaultTierRows = map[AgeTier]TierPolicy{
	TierAll:     {RequiredScore: 0, MaxDurationSeconds: 0},
	TierUnder16: {RequiredScore: 300, MaxDurationSeconds: 7200},
	TierUnder14: {RequiredScore: 350, MaxDurationSeconds: 5400},
	TierUnder13: {RequiredScore: 400, MaxDurationSeconds: 3600},
	TierUnder12: {RequiredScore: 450, MaxDurationSeconds: 2700},
	TierUnder10: {RequiredScore: 500, MaxDurationSeconds: 1800},
	TierUnder8:  {RequiredScore: 550, MaxDurationSeconds: 1200},
	TierUnder5:  {RequiredScore: 600, MaxDurationSeconds: 900},
}

// defaultCategories are the per-tier category allow-sets, shrinking as
// tiers get stricter. The unrestricted tier carries no allow-set.
var defaultCategories = map[AgeTier][]string{
	TierAll:     nil,
	TierUnder16: {"education", "music", "entertainment", "gaming", "sports", "science", "animals", "diy", "travel"},
	TierUnder14: {"education", "music", "entertainment", "gaming", "sports", "science", "animals", "diy"},
	TierUnder13: {"education", "music", "entertainment", "gaming", "science", "animals", "diy"},
	TierUnder12: {"education", "music", "entertainment", "science", "animals", "diy"},
	TierUnder10: {"education", "music", "entertainment", "science", "animals"},
	TierUnder8:  {"education", "music", "animals", "cartoons"},
	TierUnder5:  {"education", "music", "nursery", "cartoons"},
}

// DefaultPolicy returns the curated production defaults. Deployments
// typically take this and fill in the trust identity sets.
func DefaultPolicy() Policy {
	tiers := make(map[AgeTier]TierPolicy, len(AllTiers))
	for _, t := range AllTiers {
		row := defaultTierRows[t]
		row.Blocklist = DefaultBlocklist(t)
		row.AllowedCategories = append([]string(nil), defaultCategories[t]...)
		tiers[t] = row
	}
	return Policy{
		Trust: TrustPolicy{
			TrustedNameFragments: append([]string(nil), DefaultTrustedNameFragments...),
		},
		Reputation: DefaultReputationBands(),
		Tiers:      tiers,
		Vocabulary: Vocabulary{
			SafeKeywords:         append([]string(nil), DefaultSafeKeywords...),
			StrongSafeIndicators: append([]string(nil), DefaultStrongSafeIndicators...),
			SuspiciousPatterns:   append([]string(nil), DefaultSuspiciousPatterns...),
		},
	}
}

// Validate checks that the policy tables are complete and internally
// consistent. A policy failing validation must not reach the engine; missing
// entries are a startup error, never a per-call one.
func (p Policy) Validate() error {
	prevRequired := -1
	for _, tier := range AllTiers {
		row, ok := p.Tiers[tier]
		if !ok {
			return fmt.Errorf("policy: missing tier entry for %s", tier)
		}
		if row.RequiredScore < 0 || row.RequiredScore > maxTotalScore {
			return fmt.Errorf("policy: tier %s required score %d out of range", tier, row.RequiredScore)
		}
		if row.RequiredScore < prevRequired {
			return fmt.Errorf("policy: required score must not decrease with strictness (tier %s)", tier)
		}
		prevRequired = row.RequiredScore

		if tier.Unrestricted() {
			continue
		}
		if len(row.Blocklist) == 0 {
			return fmt.Errorf("policy: tier %s has an empty blocklist", tier)
		}
		if len(row.AllowedCategories) == 0 {
			return fmt.Errorf("policy: tier %s has no category allow-set", tier)
		}
		if row.MaxDurationSeconds <= 0 {
			return fmt.Errorf("policy: tier %s has no maximum duration", tier)
		}
	}

	b := p.Reputation
	if !(b.VerifiedPartner > b.Trusted && b.Trusted > b.Recognized &&
		b.Recognized > b.Neutral && b.Neutral > b.Suspicious && b.Suspicious >= 0) {
		return fmt.Errorf("policy: reputation cut points must strictly descend")
	}

	for i, spec := range p.CustomRules {
		if err := spec.validate(); err != nil {
			return fmt.Errorf("policy: custom rule %d: %w", i, err)
		}
	}
	return nil
}

// LoadPolicy decodes and validates a policy document, as delivered by the
// settings-sync collaborator.
func LoadPolicy(r io.Reader) (Policy, error) {
	var p Policy
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
