package guardian

// CoarseTier is the four-tier model used by adjacent parts of the system
// (profile settings, cross-device sync).
type CoarseTier string

const (
	CoarseTeen      CoarseTier = "TEEN"
	CoarsePreteen   CoarseTier = "PRETEEN"
	CoarseChild     CoarseTier = "CHILD"
	CoarsePreschool CoarseTier = "PRESCHOOL"
)

// TierMapVersion identifies the fine↔coarse mapping tables below. The
// collapse is lossy and asymmetric under round-trip; that asymmetry is a
// confirmed product decision, so the tables are explicit lookup data and
// must not be re-derived. Bump the version when product changes them.
const TierMapVersion = "2024-07"

// fineToCoarse collapses the eight fine tiers onto the coarse model. Note
// UNDER_12 lands on PRETEEN rather than CHILD.
var fineToCoarse = map[AgeTier]CoarseTier{
	TierAll:     CoarseTeen,
	TierUnder16: CoarseTeen,
	TierUnder14: CoarsePreteen,
	TierUnder13: CoarsePreteen,
	TierUnder12: CoarsePreteen,
	TierUnder10: CoarseChild,
	TierUnder8:  CoarseChild,
	TierUnder5:  CoarsePreschool,
}

// coarseToFine expands a coarse tier to the fine tier the engine gates
// with. Each coarse tier maps to a single representative fine tier, so
// several round-trips do not return the original value (e.g. UNDER_14 →
// PRETEEN → UNDER_13, but UNDER_12 → PRETEEN → UNDER_13 loosens).
var coarseToFine = map[CoarseTier]AgeTier{
	CoarseTeen:      TierUnder16,
	CoarsePreteen:   TierUnder13,
	CoarseChild:     TierUnder10,
	CoarsePreschool: TierUnder5,
}

// ToCoarseTier collapses a fine tier to the coarse model.
func ToCoarseTier(tier AgeTier) CoarseTier {
	if c, ok := fineToCoarse[tier]; ok {
		return c
	}
	// Unknown fine tiers fail closed onto the strictest coarse tier.
	return CoarsePreschool
}

// FromCoarseTier resolves a coarse tier to the fine tier used for gating.
func FromCoarseTier(c CoarseTier) AgeTier {
	if t, ok := coarseToFine[c]; ok {
		return t
	}
	return TierUnder5
}
