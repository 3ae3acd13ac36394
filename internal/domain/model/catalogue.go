// Package model contains domain models passed between layers.
package model

// UnknownCompany is the production company name used when a film's
// company id does not resolve.
const UnknownCompany = "Unknown"

// Company is a production company as served by the upstream catalogue.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Film is a catalogue record as served by the upstream catalogue.
type Film struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	FilmCompanyID string    `json:"filmCompanyId"`
	Reviews       []float64 `json:"reviews"` // may be empty
	Cost          float64   `json:"cost"`
	ReleaseYear   int       `json:"releaseYear"`
}

// Listing is the display-ready projection of a Film.
type Listing struct {
	FilmID             string  `json:"filmId"`
	Title              string  `json:"title"`
	AverageReviewValue float64 `json:"averageReviewValue"`
	AverageReviewScore string  `json:"averageReviewScore"`
	ProductionCompany  string  `json:"productionCompany"`
}

// ReviewResponse is the outcome of a review submission. Message is only
// set when Success is true.
type ReviewResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
