package guardian

import "fmt"

// AgeTier is the target age restriction for a gating decision, ordered by
// strictness: TierAll is unrestricted, TierUnder5 is the most restrictive.
// The integer value of a tier IS its strictness.
type AgeTier int

const (
	TierAll     AgeTier = iota // no restriction
	TierUnder16                // viewer under 16
	TierUnder14                // viewer under 14
	TierUnder13                // viewer under 13
	TierUnder12                // viewer under 12
	TierUnder10                // viewer under 10
	TierUnder8                 // viewer under 8
	TierUnder5                 // viewer under 5
)

// strictModeStrictness is the strictness at which rules switch to strict
// mode (suspicious-pattern scanning and content penalties become active).
const strictModeStrictness = 4

// AllTiers lists every tier in ascending strictness order.
var AllTiers = []AgeTier{
	TierAll, TierUnder16, TierUnder14, TierUnder13,
	TierUnder12, TierUnder10, TierUnder8, TierUnder5,
}

// Strictness returns the integer strictness of the tier (0 = unrestricted).
func (t AgeTier) Strictness() int { return int(t) }

// Unrestricted reports whether the tier applies no restriction at all.
func (t AgeTier) Unrestricted() bool { return t == TierAll }

// StrictMode reports whether strict-mode scanning applies at this tier.
func (t AgeTier) StrictMode() bool { return t.Strictness() >= strictModeStrictness }

func (t AgeTier) String() string {
	switch t {
	case TierAll:
		return "ALL"
	case TierUnder16:
		return "UNDER_16"
	case TierUnder14:
		return "UNDER_14"
	case TierUnder13:
		return "UNDER_13"
	case TierUnder12:
		return "UNDER_12"
	case TierUnder10:
		return "UNDER_10"
	case TierUnder8:
		return "UNDER_8"
	case TierUnder5:
		return "UNDER_5"
	default:
		return fmt.Sprintf("AgeTier(%d)", int(t))
	}
}

// ParseAgeTier resolves a tier name (as produced by String) back to a tier.
func ParseAgeTier(name string) (AgeTier, error) {
	for _, t := range AllTiers {
		if t.String() == name {
			return t, nil
		}
	}
	return TierAll, fmt.Errorf("unknown age tier %q", name)
}

// MarshalText implements encoding.TextMarshaler so tiers serialize by name,
// including as JSON map keys in policy documents.
func (t AgeTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *AgeTier) UnmarshalText(b []byte) error {
	parsed, err := ParseAgeTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
