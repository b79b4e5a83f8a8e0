package search

import (
	"strings"

	"github.com/litmesh/litmesh/internal/errors"
	"github.com/litmesh/litmesh/internal/source"
)

// StrategyConfig tunes strategy assembly.
type StrategyConfig struct {
	// Target is the default total article count when the caller gives none.
	Target int `yaml:"target" json:"target"`

	// ExpectedPerSource is the per-source result count requested at each
	// tier. Later tiers ask for more to compensate for lower precision.
	ExpectedPerSource map[Tier]int `yaml:"expected_per_source" json:"expected_per_source"`
}

// DefaultStrategyConfig returns the standard per-tier expectations.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		Target: 10,
		ExpectedPerSource: map[Tier]int{
			TierP1: 10,
			TierP2: 15,
			TierP3: 20,
		},
	}
}

// NewStrategy expands a raw query and assembles an immutable search
// strategy. The only error is validation: an empty query is rejected
// here, before any network activity.
func NewStrategy(expander *QueryExpander, query string, target int, filters source.Filters, category string, cfg StrategyConfig) (*Strategy, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, errors.New(errors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	if target <= 0 {
		target = cfg.Target
	}
	if target <= 0 {
		target = DefaultStrategyConfig().Target
	}

	primary, secondary, tertiary := expander.Expand(trimmed)

	expected := make(map[Tier]int, len(Tiers))
	for _, t := range Tiers {
		if n, ok := cfg.ExpectedPerSource[t]; ok && n > 0 {
			expected[t] = n
		} else {
			expected[t] = DefaultStrategyConfig().ExpectedPerSource[t]
		}
	}

	return &Strategy{
		Original:  trimmed,
		Primary:   primary,
		Secondary: secondary,
		Tertiary:  tertiary,
		Expected:  expected,
		Filters:   filters,
		Target:    target,
		Category:  category,
	}, nil
}
