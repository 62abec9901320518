package feed

import (
	"math/rand"
	"sort"

	"github.com/abelbrown/reelcut/internal/geo"
	"github.com/abelbrown/reelcut/internal/model"
)

// Shuffler permutes a page in place.
type Shuffler func(items []model.FeedItem)

// RandomShuffler returns a uniform Fisher-Yates shuffle seeded by seed.
func RandomShuffler(seed int64) Shuffler {
	rng := rand.New(rand.NewSource(seed))
	return func(items []model.FeedItem) {
		rng.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
	}
}

// NoShuffle keeps server order.
func NoShuffle(items []model.FeedItem) {}

// withDistances returns a copy of items with DistanceKm filled in from
// origin. A nil origin clears every distance.
func withDistances(items []model.FeedItem, origin *model.Coordinate) []model.FeedItem {
	out := make([]model.FeedItem, len(items))
	for i, it := range items {
		it.DistanceKm = nil
		if origin != nil && it.Location != nil {
			d := geo.Distance(*origin, *it.Location)
			it.DistanceKm = &d
		}
		out[i] = it
	}
	return out
}

// sortByDistance orders items nearest first. Items without a distance go
// last. Ties keep their current order.
func sortByDistance(items []model.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].DistanceKm, items[j].DistanceKm
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
}
