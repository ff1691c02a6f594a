package domain

// Restaurant is an admitted place record, an immutable snapshot within one
// search cycle. The working set only ever holds restaurants that passed the
// admission filter, so Rating is present on every admitted record; the
// pointer survives because display filtering is specified over possibly
// unrated entries.
type Restaurant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating,omitempty"`
	RatingCount *int     `json:"rating_count,omitempty"`
	Address     string   `json:"address,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Location    GeoPoint `json:"location"`
	Distance    *float64 `json:"distance,omitempty"` // meters from search center, computed field
}

// RatingOrZero returns the rating with absent treated as 0, the ordering
// convention for the working set.
func (r *Restaurant) RatingOrZero() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// RawPlace is the provider-side place record as returned by the nearby
// search boundary. Optional fields stay pointers so that "absent" and
// "zero" remain distinguishable during normalization.
type RawPlace struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	Rating           *float64  `json:"rating,omitempty"`
	UserRatingsTotal *int      `json:"user_ratings_total,omitempty"`
	Vicinity         string    `json:"vicinity,omitempty"`
	Types            []string  `json:"types,omitempty"`
	Location         *GeoPoint `json:"location,omitempty"`
}
