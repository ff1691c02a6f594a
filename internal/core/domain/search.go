package domain

import "strings"

// Radius bounds accepted by the places boundary, in meters
// (one mile to the provider's maximum).
const (
	MinRadiusMeters = 1609
	MaxRadiusMeters = 40000
)

// SearchParams describes one nearby-search request. It is rebuilt from the
// current viewport center and filter state on every triggered search and
// never persisted.
type SearchParams struct {
	Center       GeoPoint `json:"center"`
	RadiusMeters int      `json:"radius_meters"`
	Keyword      string   `json:"keyword,omitempty"`
}

// ClampRadius forces the radius into the accepted range.
func (p *SearchParams) ClampRadius() {
	if p.RadiusMeters < MinRadiusMeters {
		p.RadiusMeters = MinRadiusMeters
	}
	if p.RadiusMeters > MaxRadiusMeters {
		p.RadiusMeters = MaxRadiusMeters
	}
}

// DisplayFilters are the client-side filters applied to the already-fetched
// working set. They are distinct from SearchParams: only Cuisine feeds back
// into the server keyword.
type DisplayFilters struct {
	SearchTerm string  `json:"search_term,omitempty"`
	Cuisine    string  `json:"cuisine,omitempty"`
	MinRating  float64 `json:"min_rating,omitempty"`
}

// Matches reports whether a restaurant passes all three display predicates.
func (f DisplayFilters) Matches(r *Restaurant) bool {
	return f.matchesSearch(r) && f.matchesCuisine(r) && f.matchesRating(r)
}

func (f DisplayFilters) matchesSearch(r *Restaurant) bool {
	if f.SearchTerm == "" {
		return true
	}
	term := strings.ToLower(f.SearchTerm)
	return strings.Contains(strings.ToLower(r.Name), term) ||
		strings.Contains(strings.ToLower(r.Address), term)
}

func (f DisplayFilters) matchesCuisine(r *Restaurant) bool {
	if f.Cuisine == "" {
		return true
	}
	cuisine := strings.ToLower(f.Cuisine)
	for _, c := range r.Categories {
		if strings.Contains(strings.ToLower(c), cuisine) {
			return true
		}
	}
	return false
}

// matchesRating requires a present rating once MinRating > 0; an unrated
// restaurant always fails a positive threshold.
func (f DisplayFilters) matchesRating(r *Restaurant) bool {
	if f.MinRating <= 0 {
		return true
	}
	return r.Rating != nil && *r.Rating >= f.MinRating
}
