package permissions

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTier is returned for subscription values outside the configured tiers.
// Callers should treat it as a configuration bug rather than a denial.
var ErrUnknownTier = errors.New("permission: unknown subscription tier")

// Tier is a purchased subscription plan level.
type Tier string

const (
	TierFree   Tier = "Free"
	TierPro    Tier = "Pro"
	TierUltime Tier = "Ultime"
)

// ladder lists the tiers from least to most feature rich.
var ladder = []Tier{TierFree, TierPro, TierUltime}

// Tiers returns the known tiers ordered by feature richness.
func Tiers() []Tier {
	return append([]Tier(nil), ladder...)
}

func (t Tier) String() string { return string(t) }

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// Rank returns the position of t on the ladder, or -1 when unknown.
func (t Tier) Rank() int {
	for i, known := range ladder {
		if known == t {
			return i
		}
	}
	return -1
}

// ParseTier accepts tier names case-insensitively ("pro", "ULTIME").
func ParseTier(raw string) (Tier, error) {
	value := strings.TrimSpace(raw)
	for _, known := range ladder {
		if strings.EqualFold(string(known), value) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownTier, raw)
}
