package rating_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
	"github.com/Astemirdum/book-lending/lending/internal/rating"
)

func TestValidate(t *testing.T) {
	for _, r := range []int{1, 2, 3, 4, 5} {
		require.NoError(t, rating.Validate(r))
	}
	for _, r := range []int{-1, 0, 6, 10} {
		require.ErrorIs(t, rating.Validate(r), errs.ErrInvalidRating)
		require.ErrorIs(t, rating.Validate(r), errs.ErrValidation)
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    rating.Aggregate
	}{
		{name: "no reviews", want: rating.Aggregate{}},
		{name: "single", ratings: []int{5}, want: rating.Aggregate{Average: 5, Count: 1}},
		{name: "mixed", ratings: []int{3, 4, 5, 2}, want: rating.Aggregate{Average: 3.5, Count: 4}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			reviews := make([]model.Review, 0, len(tt.ratings))
			for _, r := range tt.ratings {
				reviews = append(reviews, model.Review{Rating: r})
			}
			require.Equal(t, tt.want, rating.Compute(reviews))
		})
	}
}

func TestAggregate_ApplyTo(t *testing.T) {
	b := model.Book{AverageRating: 4, TotalReviews: 2}
	require.False(t, rating.Aggregate{Average: 4, Count: 2}.ApplyTo(&b))
	require.True(t, rating.Aggregate{}.ApplyTo(&b))
	require.Zero(t, b.AverageRating)
	require.Zero(t, b.TotalReviews)
}
