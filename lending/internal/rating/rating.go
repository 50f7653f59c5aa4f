// Package rating computes per-book review aggregates.
package rating

import (
	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

const (
	Min = 1
	Max = 5
)

func Validate(r int) error {
	if r < Min || r > Max {
		return errs.ErrInvalidRating
	}
	return nil
}

type Aggregate struct {
	Average float64
	Count   int
}

// Compute returns sum/count over reviews, or zero values without reviews.
func Compute(reviews []model.Review) Aggregate {
	if len(reviews) == 0 {
		return Aggregate{}
	}
	sum := 0
	for i := range reviews {
		sum += reviews[i].Rating
	}
	return Aggregate{
		Average: float64(sum) / float64(len(reviews)),
		Count:   len(reviews),
	}
}

// ApplyTo stores a on b and reports whether b changed.
func (a Aggregate) ApplyTo(b *model.Book) bool {
	if b.AverageRating == a.Average && b.TotalReviews == a.Count {
		return false
	}
	b.AverageRating = a.Average
	b.TotalReviews = a.Count
	return true
}
