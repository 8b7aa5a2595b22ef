package hmm

import (
	"encoding/json"
	"fmt"
	"os"
)

// Bonus is an additive log-score applied to a specific character pair
// transition, on top of the regular transition probability. Pairs
// absent from the table contribute 0 — a neutral no-op, not a penalty.
type Bonus struct {
	pairs map[[2]rune]float64
}

// NewBonus builds a Bonus table from a mapping keyed by the two-rune
// concatenation of the pair (matching the wire format's "word_bigram_bonus"
// keys, e.g. "你号").
func NewBonus(byConcat map[string]float64) *Bonus {
	pairs := make(map[[2]rune]float64, len(byConcat))

	for k, v := range byConcat {
		runes := []rune(k)
		if len(runes) != 2 {
			continue
		}

		pairs[[2]rune{runes[0], runes[1]}] = v
	}

	return &Bonus{pairs: pairs}
}

// LoadBonus reads a standalone bigram-bonus JSON file — the same
// character-pair-to-float schema as lexicon_aggregate.json's
// word_bigram_bonus field — for callers that want to override or
// supplement the bonus a lexicon file already carries.
func LoadBonus(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrResourceMissing, path)
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrResourceMissing, path, err)
	}

	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceMalformed, path, err)
	}

	return m, nil
}

// Get returns the additive bonus for transitioning from prev to c, or
// 0 if the pair is not in the table. A nil *Bonus (no table supplied)
// also returns 0 for every pair, so callers never need a nil check.
func (b *Bonus) Get(prev, c rune) float64 {
	if b == nil {
		return 0
	}

	return b.pairs[[2]rune{prev, c}]
}
