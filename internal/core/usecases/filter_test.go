package usecases_test

import (
	"testing"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/usecases"
)

func testSet() []domain.Restaurant {
	return []domain.Restaurant{
		{
			ID: "a", Name: "Pizza Place", Rating: f(4.2), RatingCount: i(150),
			Address: "1 Main St", Categories: []string{"restaurant", "pizza"},
			Location: domain.GeoPoint{Lat: 1, Lon: 1},
		},
		{
			ID: "b", Name: "Sushi Bar", Rating: f(4.7),
			Address: "2 High St", Categories: []string{"restaurant", "sushi"},
			Location: domain.GeoPoint{Lat: 1, Lon: 1},
		},
		{
			ID: "c", Name: "Corner Cafe",
			Address: "3 Main St", Categories: []string{"cafe"},
			Location: domain.GeoPoint{Lat: 1, Lon: 1},
		},
	}
}

func ids(set []domain.Restaurant) []string {
	out := make([]string, len(set))
	for i, r := range set {
		out[i] = r.ID
	}
	return out
}

func TestApplyFilters_NoFiltersPassesAll(t *testing.T) {
	out := usecases.ApplyFilters(testSet(), domain.DisplayFilters{})
	if len(out) != 3 {
		t.Fatalf("expected all 3 restaurants, got %v", ids(out))
	}
}

func TestApplyFilters_SearchTermMatchesNameOrAddress(t *testing.T) {
	// "main" matches a's address and c's address, not b
	out := usecases.ApplyFilters(testSet(), domain.DisplayFilters{SearchTerm: "MAIN"})
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Fatalf("expected [a c], got %v", ids(out))
	}

	out = usecases.ApplyFilters(testSet(), domain.DisplayFilters{SearchTerm: "sushi"})
	if len(out) != 1 || out[0].ID != "b" {
		t.Fatalf("expected [b] by name, got %v", ids(out))
	}
}

func TestApplyFilters_CuisineMatchesCategories(t *testing.T) {
	out := usecases.ApplyFilters(testSet(), domain.DisplayFilters{Cuisine: "Pizza"})
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("expected [a], got %v", ids(out))
	}
}

func TestApplyFilters_UnratedFailsPositiveMinRating(t *testing.T) {
	// c has no rating: included at minRating 0, excluded at any positive one
	out := usecases.ApplyFilters(testSet(), domain.DisplayFilters{MinRating: 0})
	if len(out) != 3 {
		t.Fatalf("minRating 0 must include unrated, got %v", ids(out))
	}

	out = usecases.ApplyFilters(testSet(), domain.DisplayFilters{MinRating: 0.5})
	for _, r := range out {
		if r.ID == "c" {
			t.Fatal("unrated restaurant included despite positive minRating")
		}
	}
}

func TestApplyFilters_AllPredicatesMustHold(t *testing.T) {
	// Pizza Place at 4.2 passes both minRating 4 and the pizza cuisine
	// filter; everything else fails at least one predicate.
	out := usecases.ApplyFilters(testSet(), domain.DisplayFilters{
		Cuisine:   "pizza",
		MinRating: 4,
	})
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("expected [a] (4.2 >= 4, pizza in categories), got %v", ids(out))
	}
}

func TestApplyFilters_DoesNotMutateWorkingSet(t *testing.T) {
	set := testSet()
	_ = usecases.ApplyFilters(set, domain.DisplayFilters{SearchTerm: "pizza"})
	if len(set) != 3 {
		t.Fatal("working set length changed")
	}
	if set[0].ID != "a" || set[1].ID != "b" || set[2].ID != "c" {
		t.Fatalf("working set order changed: %v", ids(set))
	}
}
