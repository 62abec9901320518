package coord

import "sort"

// DefaultThreshold is the visible fraction an item needs before it counts
// as visible. Above one half, two adjacent full-height items can never both
// qualify in the same frame.
const DefaultThreshold = 0.85

// Visibility is the visible fraction of one rendered item, in render order.
type Visibility struct {
	ID       string
	Fraction float64
}

// Visible filters entries to those at or above threshold and orders them by
// fraction, most visible first. Ties keep render order.
func Visible(entries []Visibility, threshold float64) []string {
	kept := make([]Visibility, 0, len(entries))
	for _, e := range entries {
		if e.Fraction >= threshold {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Fraction > kept[j].Fraction
	})

	ids := make([]string, len(kept))
	for i, e := range kept {
		ids[i] = e.ID
	}
	return ids
}
