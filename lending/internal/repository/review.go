package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

var reviewColumns = []string{
	"id", "book_display_id", "reviewer_id", "rating", "comment", "created_at", "updated_at",
}

func returningReview() string {
	return "returning " + strings.Join(reviewColumns, ", ")
}

// UpsertReview relies on the (book_display_id, reviewer_id) unique constraint,
// so concurrent upserts by the same reviewer still leave one row.
func (r *repository) UpsertReview(ctx context.Context, rv model.Review) (model.Review, error) {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	b := qb.Insert(reviewsTableName).
		Columns("id", "book_display_id", "reviewer_id", "rating", "comment").
		Values(rv.ID, rv.BookDisplayID, rv.ReviewerID, rv.Rating, rv.Comment).
		Suffix(`on conflict (book_display_id, reviewer_id) do update
	set rating = excluded.rating, comment = excluded.comment, updated_at = now() ` + returningReview())

	var saved model.Review
	if err := r.get(ctx, &saved, b, "UpsertReview"); err != nil {
		return model.Review{}, err
	}
	return saved, nil
}

func (r *repository) GetReview(ctx context.Context, id string) (model.Review, error) {
	b := qb.Select(reviewColumns...).
		From(reviewsTableName).
		Where(sq.Eq{"id": id}).
		Limit(1)

	var rv model.Review
	if err := r.get(ctx, &rv, b, "GetReview"); err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *repository) UpdateReview(ctx context.Context, rv model.Review) (model.Review, error) {
	b := qb.Update(reviewsTableName).
		Set("rating", rv.Rating).
		Set("comment", rv.Comment).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": rv.ID}).
		Suffix(returningReview())

	var updated model.Review
	if err := r.get(ctx, &updated, b, "UpdateReview"); err != nil {
		return model.Review{}, err
	}
	return updated, nil
}

func (r *repository) DeleteReview(ctx context.Context, id string) error {
	n, err := r.exec(ctx, qb.Delete(reviewsTableName).Where(sq.Eq{"id": id}), "DeleteReview")
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) listReviews(ctx context.Context, where sq.Sqlizer, op string) ([]model.Review, error) {
	q := qb.Select(reviewColumns...).
		From(reviewsTableName).
		Where(where).
		OrderBy("created_at desc")

	reviews := make([]model.Review, 0)
	if err := r.selectAll(ctx, &reviews, q, op); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *repository) ListReviews(ctx context.Context, bookDisplayID string) ([]model.Review, error) {
	return r.listReviews(ctx, sq.Eq{"book_display_id": bookDisplayID}, "ListReviews")
}

func (r *repository) ListReviewsByReviewer(ctx context.Context, reviewerID string) ([]model.Review, error) {
	return r.listReviews(ctx, sq.Eq{"reviewer_id": reviewerID}, "ListReviewsByReviewer")
}

func (r *repository) DeleteReviewsByBook(ctx context.Context, bookDisplayID string) error {
	_, err := r.exec(ctx, qb.Delete(reviewsTableName).Where(sq.Eq{"book_display_id": bookDisplayID}), "DeleteReviewsByBook")
	return err
}
