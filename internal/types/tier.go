package types

import (
	"fmt"
	"strings"
)

// Tier is a quality/source level of an answer. base is the curated
// reference answer; low/medium/high are the levels that get their own
// fine-tuned model.
type Tier string

const (
	TierBase   Tier = "base"
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Levels are the tiers that must all be complete for a test to be ready,
// in the order they are reported.
var Levels = []Tier{TierLow, TierMedium, TierHigh}

func ParseTier(raw string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case TierBase, TierLow, TierMedium, TierHigh:
		return t, nil
	}
	return "", fmt.Errorf("unknown answer type %q", raw)
}

func ParseLevel(raw string) (Tier, error) {
	t, err := ParseTier(raw)
	if err != nil {
		return "", fmt.Errorf("unknown level %q", raw)
	}
	if !t.IsLevel() {
		return "", fmt.Errorf("level must be one of low, medium, high: got %q", raw)
	}
	return t, nil
}

func (t Tier) IsLevel() bool {
	return t == TierLow || t == TierMedium || t == TierHigh
}

// Collection is the name of the collection holding this tier's answers.
func (t Tier) Collection() string {
	return string(t) + "_answer"
}

func (t Tier) String() string { return string(t) }
