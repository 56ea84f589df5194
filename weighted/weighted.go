// Package weighted picks items at random in proportion to their weights.
package weighted

import (
	"math/rand/v2"
	"sort"
)

type Choice[T any] struct {
	Item   T
	Weight float64
}

func weight(w float64) float64 {
	if w < 0 {
		return 0
	}
	return w
}

// Total sums the weights, counting negative weights as 0.
func Total[T any](choices []Choice[T]) float64 {
	total := 0.0
	for _, c := range choices {
		total += weight(c.Weight)
	}
	return total
}

// Remainder returns what is left of total after used, never below 0.
func Remainder(total, used float64) float64 {
	return weight(total - used)
}

// Probabilities normalizes the weights. Returns nil if the total weight is 0.
func Probabilities[T any](choices []Choice[T]) []float64 {
	total := Total(choices)
	if total <= 0 {
		return nil
	}
	result := make([]float64, len(choices))
	for i, c := range choices {
		result[i] = weight(c.Weight) / total
	}
	return result
}

// Pick selects one item by searching the cumulative distribution with a roll from rng.
// Returns false if there is nothing with positive weight to pick.
func Pick[T any](rng *rand.Rand, choices []Choice[T]) (T, bool) {
	cumulative := make([]float64, len(choices))
	total := 0.0
	for i, c := range choices {
		total += weight(c.Weight)
		cumulative[i] = total
	}
	if total <= 0 {
		var zero T
		return zero, false
	}
	target := rng.Float64() * total
	idx := sort.Search(len(cumulative), func(i int) bool {
		return cumulative[i] > target
	})
	if idx >= len(choices) {
		// Floating point edge case, take the last positive choice.
		idx = len(choices) - 1
		for idx > 0 && weight(choices[idx].Weight) == 0 {
			idx--
		}
	}
	return choices[idx].Item, true
}
