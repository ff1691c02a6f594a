package usecases

import "github.com/StiensB/RestaurantFinder/internal/core/domain"

// ApplyFilters produces the displayed view of the working set: a restaurant
// is kept iff all three display predicates hold. The working set itself is
// never mutated.
func ApplyFilters(set []domain.Restaurant, filters domain.DisplayFilters) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(set))
	for i := range set {
		if filters.Matches(&set[i]) {
			out = append(out, set[i])
		}
	}
	return out
}
