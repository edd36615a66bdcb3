package guardian

import (
	"fmt"
	"strings"
)

// TrustLevel classifies how reliable a content source is, from curated
// partners down to explicitly denylisted channels.
type TrustLevel int

const (
	TrustVerifiedPartner TrustLevel = iota // curated partner catalog
	TrustTrusted                           // vetted safe channel
	TrustRecognized                        // name matches a known-good producer
	TrustNeutral                           // no signal either way
	TrustSuspicious                        // weak negative reputation
	TrustBlocked                           // explicit denylist entry
)

func (l TrustLevel) String() string {
	switch l {
	case TrustVerifiedPartner:
		return "VERIFIED_PARTNER"
	case TrustTrusted:
		return "TRUSTED"
	case TrustRecognized:
		return "RECOGNIZED"
	case TrustNeutral:
		return "NEUTRAL"
	case TrustSuspicious:
		return "SUSPICIOUS"
	case TrustBlocked:
		return "BLOCKED"
	default:
		return "NEUTRAL"
	}
}

// MarshalText serializes the level by name in verdict and policy JSON.
func (l TrustLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *TrustLevel) UnmarshalText(b []byte) error {
	for _, lvl := range []TrustLevel{
		TrustVerifiedPartner, TrustTrusted, TrustRecognized,
		TrustNeutral, TrustSuspicious, TrustBlocked,
	} {
		if lvl.String() == string(b) {
			*l = lvl
			return nil
		}
	}
	return fmt.Errorf("unknown trust level %q", string(b))
}

// BaseScore is the trust component contributed to the Guardian Score (≤250).
func (l TrustLevel) BaseScore() int {
	switch l {
	case TrustVerifiedPartner:
		return 250
	case TrustTrusted:
		return 200
	case TrustRecognized:
		return 150
	case TrustNeutral:
		return 125
	case TrustSuspicious:
		return 50
	default:
		return 0
	}
}

// Multiplier is an informational weight carried alongside the level for
// callers that rank sources; the score calculator itself uses BaseScore only.
func (l TrustLevel) Multiplier() float64 {
	switch l {
	case TrustVerifiedPartner:
		return 1.5
	case TrustTrusted:
		return 1.3
	case TrustRecognized:
		return 1.15
	case TrustNeutral:
		return 1.0
	case TrustSuspicious:
		return 0.6
	default:
		return 0
	}
}

// AutoApprove reports whether content from this source is approved without
// keyword or score checks.
func (l TrustLevel) AutoApprove() bool {
	return l == TrustVerifiedPartner || l == TrustTrusted
}

// IsBlocked reports whether the source is explicitly denylisted.
func (l TrustLevel) IsBlocked() bool { return l == TrustBlocked }

// ReputationBands holds the cut points for bucketing a 0–100 reputation
// score into a TrustLevel. A score below Suspicious classifies as BLOCKED.
type ReputationBands struct {
	VerifiedPartner int `json:"verified_partner"`
	Trusted         int `json:"trusted"`
	Recognized      int `json:"recognized"`
	Neutral         int `json:"neutral"`
	Suspicious      int `json:"suspicious"`
}

// DefaultReputationBands are the production cut points.
func DefaultReputationBands() ReputationBands {
	return ReputationBands{
		VerifiedPartner: 95,
		Trusted:         85,
		Recognized:      70,
		Neutral:         40,
		Suspicious:      10,
	}
}

// Classify buckets a 0–100 reputation score by the band cut points.
func (b ReputationBands) Classify(score int) TrustLevel {
	switch {
	case score >= b.VerifiedPartner:
		return TrustVerifiedPartner
	case score >= b.Trusted:
		return TrustTrusted
	case score >= b.Recognized:
		return TrustRecognized
	case score >= b.Neutral:
		return TrustNeutral
	case score >= b.Suspicious:
		return TrustSuspicious
	default:
		return TrustBlocked
	}
}

// trustRoster is the compiled form of the policy's identity sets.
type trustRoster struct {
	verified  map[string]struct{}
	trusted   map[string]struct{}
	denylist  map[string]struct{}
	fragments []string // lowercased trusted-name fragments
}

// classify resolves a source identity to a TrustLevel. Unknown or empty
// identities always resolve to NEUTRAL: BLOCKED requires an explicit
// denylist entry, never absence of data.
func (r *trustRoster) classify(sourceID, sourceName string) TrustLevel {
	if sourceID != "" {
		if _, ok := r.denylist[sourceID]; ok {
			return TrustBlocked
		}
		if _, ok := r.verified[sourceID]; ok {
			return TrustVerifiedPartner
		}
		if _, ok := r.trusted[sourceID]; ok {
			return TrustTrusted
		}
	}
	if sourceName != "" {
		lower := strings.ToLower(sourceName)
		for _, frag := range r.fragments {
			if strings.Contains(lower, frag) {
				return TrustRecognized
			}
		}
	}
	return TrustNeutral
}

func compileRoster(p TrustPolicy) *trustRoster {
	r := &trustRoster{
		verified: make(map[string]struct{}, len(p.VerifiedPartnerIDs)),
		trusted:  make(map[string]struct{}, len(p.TrustedIDs)),
		denylist: make(map[string]struct{}, len(p.BlockedIDs)),
	}
	for _, id := range p.VerifiedPartnerIDs {
		r.verified[id] = struct{}{}
	}
	for _, id := range p.TrustedIDs {
		r.trusted[id] = struct{}{}
	}
	for _, id := range p.BlockedIDs {
		r.denylist[id] = struct{}{}
	}
	for _, frag := range p.TrustedNameFragments {
		frag = strings.ToLower(strings.TrimSpace(frag))
		if frag != "" {
			r.fragments = append(r.fragments, frag)
		}
	}
	return r
}
