package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

var bookColumns = []string{
	"id", "display_id", "title", "author", "genre", "image_url", "owner_id", "borrower_id",
	"status", "pending_requesters", "average_rating", "total_reviews", "created_at", "updated_at",
}

func returningBook() string {
	return "returning " + strings.Join(bookColumns, ", ")
}

func (r *repository) CreateBook(ctx context.Context, bk model.Book) (model.Book, error) {
	if bk.ID == "" {
		bk.ID = uuid.NewString()
	}
	if bk.Status == "" {
		bk.Status = model.StatusAvailable
	}
	b := qb.Insert(booksTableName).
		Columns("id", "display_id", "title", "author", "genre", "image_url", "owner_id", "status", "pending_requesters").
		Values(bk.ID, bk.DisplayID, bk.Title, bk.Author, bk.Genre, bk.ImageURL, bk.OwnerID, string(bk.Status), model.UserRefs{}).
		Suffix(returningBook())

	var created model.Book
	if err := r.get(ctx, &created, b, "CreateBook"); err != nil {
		return model.Book{}, err
	}
	return created, nil
}

func (r *repository) getBook(ctx context.Context, where sq.Sqlizer, op string) (model.Book, error) {
	b := qb.Select(bookColumns...).
		From(booksTableName).
		Where(where).
		Limit(1)

	var bk model.Book
	if err := r.get(ctx, &bk, b, op); err != nil {
		return model.Book{}, err
	}
	return bk, nil
}

func (r *repository) GetBookByID(ctx context.Context, id string) (model.Book, error) {
	return r.getBook(ctx, sq.Eq{"id": id}, "GetBookByID")
}

func (r *repository) GetBookByDisplayID(ctx context.Context, displayID string) (model.Book, error) {
	return r.getBook(ctx, sq.Eq{"display_id": displayID}, "GetBookByDisplayID")
}

func (r *repository) BookDisplayIDExists(ctx context.Context, displayID string) (bool, error) {
	return r.exists(ctx, booksTableName, "display_id", displayID)
}

func (r *repository) ListBooks(ctx context.Context, f model.BookFilter) ([]model.Book, error) {
	q := qb.Select(bookColumns...).From(booksTableName)
	if f.OwnerID != "" {
		q = q.Where(sq.Eq{"owner_id": f.OwnerID})
	}
	if f.ExcludeOwnerID != "" {
		q = q.Where(sq.NotEq{"owner_id": f.ExcludeOwnerID})
	}
	if f.BorrowerID != "" {
		q = q.Where(sq.Eq{"borrower_id": f.BorrowerID})
	}
	if f.PendingRequester != "" {
		q = q.Where(sq.Expr("pending_requesters @> ?::jsonb", model.UserRefs{f.PendingRequester}))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		q = q.Where(sq.Eq{"status": statuses})
	}
	if f.Genre != "" {
		q = q.Where(sq.Expr("lower(genre) = lower(?)", f.Genre))
	}
	q = q.OrderBy("created_at desc", "display_id")

	books := make([]model.Book, 0)
	if err := r.selectAll(ctx, &books, q, "ListBooks"); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) ListBookDisplayIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	q := qb.Select("display_id").From(booksTableName).OrderBy("display_id")
	if err := r.selectAll(ctx, &ids, q, "ListBookDisplayIDs"); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ListGenres(ctx context.Context) ([]string, error) {
	genres := make([]string, 0)
	q := qb.Select("distinct genre").From(booksTableName).OrderBy("genre")
	if err := r.selectAll(ctx, &genres, q, "ListGenres"); err != nil {
		return nil, err
	}
	return genres, nil
}

// UpdateBookDetails writes the editable descriptive fields only.
func (r *repository) UpdateBookDetails(ctx context.Context, bk model.Book) (model.Book, error) {
	b := qb.Update(booksTableName).
		Set("title", bk.Title).
		Set("author", bk.Author).
		Set("genre", bk.Genre).
		Set("image_url", bk.ImageURL).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": bk.ID}).
		Suffix(returningBook())

	var updated model.Book
	if err := r.get(ctx, &updated, b, "UpdateBookDetails"); err != nil {
		return model.Book{}, err
	}
	return updated, nil
}

// UpdateBookState moves the lifecycle fields from prev to next. The row is
// written only while it still holds prev's lifecycle state, otherwise
// errs.ErrStaleState is returned and nothing changes.
func (r *repository) UpdateBookState(ctx context.Context, prev, next model.Book) (model.Book, error) {
	b := qb.Update(booksTableName).
		Set("borrower_id", next.BorrowerID).
		Set("status", string(next.Status)).
		Set("pending_requesters", refsOrEmpty(next.PendingRequesters)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": prev.ID}).
		Where(sq.Eq{"status": string(prev.Status)}).
		Where(sq.Expr("borrower_id is not distinct from ?::uuid", prev.BorrowerID)).
		Where(sq.Expr("pending_requesters = ?::jsonb", refsOrEmpty(prev.PendingRequesters))).
		Suffix(returningBook())

	var updated model.Book
	err := r.get(ctx, &updated, b, "UpdateBookState")
	if errors.Is(err, errs.ErrNotFound) {
		return model.Book{}, errs.ErrStaleState
	}
	if err != nil {
		return model.Book{}, err
	}
	return updated, nil
}

func refsOrEmpty(refs model.UserRefs) model.UserRefs {
	if refs == nil {
		return model.UserRefs{}
	}
	return refs
}

func (r *repository) UpdateBookAggregates(ctx context.Context, displayID string, average float64, total int) (model.Book, error) {
	b := qb.Update(booksTableName).
		Set("average_rating", average).
		Set("total_reviews", total).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"display_id": displayID}).
		Suffix(returningBook())

	var updated model.Book
	if err := r.get(ctx, &updated, b, "UpdateBookAggregates"); err != nil {
		return model.Book{}, err
	}
	return updated, nil
}

func (r *repository) DeleteBook(ctx context.Context, id string) error {
	n, err := r.exec(ctx, qb.Delete(booksTableName).Where(sq.Eq{"id": id}), "DeleteBook")
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
