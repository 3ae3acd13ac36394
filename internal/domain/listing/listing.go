// Package listing computes the display projection of catalogue films.
package listing

import (
	"math"
	"math/big"
	"strconv"

	"github.com/okian/marquee/internal/domain/model"
)

// NoScore is the score shown for films without a positive review total.
const NoScore = "0"

// scorePrecision is wide enough to hold float64*10 + 0.5 exactly for every
// value that can round to a non-zero tenth.
const scorePrecision = 256

// CompanyResolver resolves a production company name by company id.
type CompanyResolver interface {
	CompanyName(id string) (string, bool)
}

// Build computes the listing for film, resolving its production company
// through companies. Unresolvable companies become model.UnknownCompany.
func Build(film model.Film, companies CompanyResolver) model.Listing {
	value, score := Average(film.Reviews)

	company := model.UnknownCompany
	if companies != nil {
		if name, ok := companies.CompanyName(film.FilmCompanyID); ok {
			company = name
		}
	}

	return model.Listing{
		FilmID:             film.ID,
		Title:              film.Title,
		AverageReviewValue: value,
		AverageReviewScore: score,
		ProductionCompany:  company,
	}
}

// Average returns the average review value and its formatted score.
//
// When the review total is not positive the value is the raw total (0 for
// no reviews) and the score is NoScore. Zero-sum and negative-only review
// lists land here too.
func Average(reviews []float64) (float64, string) {
	var sum float64
	for _, r := range reviews {
		sum += r
	}
	if len(reviews) == 0 || sum <= 0 {
		return sum, NoScore
	}
	avg := sum / float64(len(reviews))
	return avg, FormatScore(avg)
}

// FormatScore renders v with exactly one decimal place. Halfway cases of the
// exact binary value round away from zero, so 1.25 becomes "1.3".
func FormatScore(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}

	scaled := new(big.Float).SetPrec(scorePrecision).SetFloat64(v)
	scaled.Mul(scaled, big.NewFloat(10))
	scaled.Add(scaled, big.NewFloat(0.5))

	tenths, _ := scaled.Int(nil) // truncation is floor for non-negative values
	whole, frac := new(big.Int).QuoRem(tenths, big.NewInt(10), new(big.Int))
	return whole.String() + "." + frac.String()
}
