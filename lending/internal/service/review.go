package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Astemirdum/book-lending/lending/internal/access"
	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
	"github.com/Astemirdum/book-lending/lending/internal/rating"
	"github.com/Astemirdum/book-lending/lending/internal/repository"
	"github.com/Astemirdum/book-lending/pkg/kafka"
)

// UpsertReview keeps one review per (book, reviewer): a second call replaces
// rating and comment of the first.
func (s *Service) UpsertReview(ctx context.Context, userID, bookRef string, req model.ReviewRequest) (model.ReviewResult, error) {
	if err := rating.Validate(req.Rating); err != nil {
		return model.ReviewResult{}, err
	}
	b, err := resolveBookRef(ctx, s.repo, bookRef)
	if err != nil {
		return model.ReviewResult{}, err
	}
	rv, err := s.repo.UpsertReview(ctx, model.Review{
		BookDisplayID: b.DisplayID,
		ReviewerID:    userID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
	})
	if err != nil {
		return model.ReviewResult{}, err
	}
	return s.afterReviewWrite(ctx, userID, rv)
}

func (s *Service) ListReviews(ctx context.Context, bookRef string) (model.BookReviews, error) {
	b, err := resolveBookRef(ctx, s.repo, bookRef)
	if err != nil {
		return model.BookReviews{}, err
	}
	reviews, err := s.repo.ListReviews(ctx, b.DisplayID)
	if err != nil {
		return model.BookReviews{}, err
	}
	agg := rating.Compute(reviews)
	return model.BookReviews{
		Reviews:       reviews,
		AverageRating: agg.Average,
		TotalReviews:  agg.Count,
	}, nil
}

func (s *Service) UpdateReview(ctx context.Context, userID, bookRef, reviewID string, req model.UpdateReviewRequest) (model.ReviewResult, error) {
	if req.Rating != nil {
		if err := rating.Validate(*req.Rating); err != nil {
			return model.ReviewResult{}, err
		}
	}
	rv, err := s.reviewOf(ctx, bookRef, reviewID)
	if err != nil {
		return model.ReviewResult{}, err
	}
	if err = access.IsReviewAuthorOrFail(rv, userID); err != nil {
		return model.ReviewResult{}, err
	}
	if req.Rating != nil {
		rv.Rating = *req.Rating
	}
	if req.Comment != nil {
		rv.Comment = strings.TrimSpace(*req.Comment)
	}
	if rv, err = s.repo.UpdateReview(ctx, rv); err != nil {
		return model.ReviewResult{}, err
	}
	return s.afterReviewWrite(ctx, userID, rv)
}

// DeleteReview returns the book with its recomputed aggregates.
func (s *Service) DeleteReview(ctx context.Context, userID, bookRef, reviewID string) (model.Book, error) {
	rv, err := s.reviewOf(ctx, bookRef, reviewID)
	if err != nil {
		return model.Book{}, err
	}
	if err = access.IsReviewAuthorOrFail(rv, userID); err != nil {
		return model.Book{}, err
	}
	if err = s.repo.DeleteReview(ctx, rv.ID); err != nil {
		return model.Book{}, err
	}
	b, err := recompute(ctx, s.repo, rv.BookDisplayID)
	if err != nil {
		return model.Book{}, err
	}
	s.publishReview(ctx, userID, b)
	return b, nil
}

// reviewOf loads a review and checks that it belongs to the referenced book.
func (s *Service) reviewOf(ctx context.Context, bookRef, reviewID string) (model.Review, error) {
	b, err := resolveBookRef(ctx, s.repo, bookRef)
	if err != nil {
		return model.Review{}, err
	}
	if _, err = uuid.Parse(reviewID); err != nil {
		return model.Review{}, errs.NotFound("review " + reviewID)
	}
	rv, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return model.Review{}, err
	}
	if rv.BookDisplayID != b.DisplayID {
		return model.Review{}, errs.NotFound("review " + reviewID)
	}
	return rv, nil
}

func (s *Service) afterReviewWrite(ctx context.Context, userID string, rv model.Review) (model.ReviewResult, error) {
	b, err := recompute(ctx, s.repo, rv.BookDisplayID)
	if err != nil {
		return model.ReviewResult{}, err
	}
	s.publishReview(ctx, userID, b)
	return model.ReviewResult{
		Review:        rv,
		AverageRating: b.AverageRating,
		TotalReviews:  b.TotalReviews,
	}, nil
}

func (s *Service) publishReview(ctx context.Context, userID string, b model.Book) {
	s.publish(ctx, kafka.ReviewTopic, model.Event{
		Type:          model.EventReviewChanged,
		BookID:        b.ID,
		BookDisplayID: b.DisplayID,
		ActorID:       userID,
		Status:        b.Status,
	})
}

// recompute derives the aggregates of one book from all of its reviews and
// stores them. Running it twice gives the same result.
func recompute(ctx context.Context, repo repository.Repository, displayID string) (model.Book, error) {
	reviews, err := repo.ListReviews(ctx, displayID)
	if err != nil {
		return model.Book{}, err
	}
	agg := rating.Compute(reviews)
	return repo.UpdateBookAggregates(ctx, displayID, agg.Average, agg.Count)
}
