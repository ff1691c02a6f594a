package usecases

import (
	"sort"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
)

// MinAdmittedRating is the fixed admission floor applied at normalization
// time. It is independent of the user-adjustable minimum-rating display
// filter and not configurable.
const MinAdmittedRating = 3.5

// Normalize maps raw provider records into the Restaurant working set.
// Records with no rating, a rating below the admission floor, or no
// resolvable geometry are dropped whole; malformed optional fields never
// cause a drop on their own. The result is sorted descending by rating,
// stable with respect to provider order among equals.
func Normalize(raw []domain.RawPlace) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(raw))
	for _, p := range raw {
		if p.Rating == nil || *p.Rating < MinAdmittedRating {
			continue
		}
		if p.Location == nil {
			continue
		}
		if p.Name == "" {
			continue
		}

		out = append(out, domain.Restaurant{
			ID:          p.PlaceID,
			Name:        p.Name,
			Rating:      p.Rating,
			RatingCount: p.UserRatingsTotal,
			Address:     p.Vicinity,
			Categories:  categories(p.Types),
			Location:    *p.Location,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RatingOrZero() > out[j].RatingOrZero()
	})
	return out
}

// categories copies the provider's type tags, preserving order. Generic
// tags every place carries are stripped so cuisine filtering has signal.
func categories(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, 0, len(types))
	for _, t := range types {
		if t == "point_of_interest" || t == "establishment" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
