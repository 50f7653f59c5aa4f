package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

type Repository interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	GetUserByDisplayID(ctx context.Context, displayID string) (model.User, error)
	GetUserByLogin(ctx context.Context, login string) (model.User, error)
	GetUserBySession(ctx context.Context, token string) (model.User, error)
	UpdateUser(ctx context.Context, u model.User) (model.User, error)
	SetSession(ctx context.Context, userID string, token *string, lastActive *time.Time) error
	DeleteUser(ctx context.Context, id string) error
	UserDisplayIDExists(ctx context.Context, displayID string) (bool, error)

	CreateBook(ctx context.Context, b model.Book) (model.Book, error)
	GetBookByID(ctx context.Context, id string) (model.Book, error)
	GetBookByDisplayID(ctx context.Context, displayID string) (model.Book, error)
	BookDisplayIDExists(ctx context.Context, displayID string) (bool, error)
	ListBooks(ctx context.Context, f model.BookFilter) ([]model.Book, error)
	ListBookDisplayIDs(ctx context.Context) ([]string, error)
	ListGenres(ctx context.Context) ([]string, error)
	UpdateBookDetails(ctx context.Context, b model.Book) (model.Book, error)
	UpdateBookState(ctx context.Context, prev, next model.Book) (model.Book, error)
	UpdateBookAggregates(ctx context.Context, displayID string, average float64, total int) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error

	UpsertReview(ctx context.Context, r model.Review) (model.Review, error)
	GetReview(ctx context.Context, id string) (model.Review, error)
	UpdateReview(ctx context.Context, r model.Review) (model.Review, error)
	DeleteReview(ctx context.Context, id string) error
	ListReviews(ctx context.Context, bookDisplayID string) ([]model.Review, error)
	ListReviewsByReviewer(ctx context.Context, reviewerID string) ([]model.Review, error)
	DeleteReviewsByBook(ctx context.Context, bookDisplayID string) error

	// WithTx runs fn against a repository bound to one transaction.
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

// Unique constraint names, see migrations.
const (
	ConstraintUserDisplayID = "users_display_id_key"
	ConstraintUsername      = "users_username_key"
	ConstraintEmail         = "users_email_key"
	ConstraintBookDisplayID = "books_display_id_key"
	ConstraintReviewPerBook = "reviews_book_reviewer_key"
	ConstraintSessionToken  = "users_session_token_key"
)

var conflictMessages = map[string]string{
	ConstraintUserDisplayID: "user display id already taken",
	ConstraintUsername:      "username already taken",
	ConstraintEmail:         "email already taken",
	ConstraintBookDisplayID: "book display id already taken",
	ConstraintReviewPerBook: "review for this book already exists",
	ConstraintSessionToken:  "session token already issued",
}

type repository struct {
	db  *sqlx.DB
	q   sqlx.ExtContext
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	return &repository{
		db:  db,
		q:   db,
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName   = `users`
	booksTableName   = `books`
	reviewsTableName = `reviews`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err = fn(&repository{q: tx, log: r.log}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Error("tx.Rollback", zap.Error(rbErr))
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

func (r *repository) get(ctx context.Context, dest any, b sq.Sqlizer, op string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if err = sqlx.GetContext(ctx, r.q, dest, query, args...); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log.Error(op, zap.String("q", query), zap.Any("args", args), zap.Error(err))
		}
		return mapErr(err, op)
	}
	return nil
}

func (r *repository) selectAll(ctx context.Context, dest any, b sq.Sqlizer, op string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, op)
	}
	r.log.Debug(op, zap.String("query", query), zap.Any("args", args))
	if err = sqlx.SelectContext(ctx, r.q, dest, query, args...); err != nil {
		r.log.Error(op, zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return mapErr(err, op)
	}
	return nil
}

func (r *repository) exec(ctx context.Context, b sq.Sqlizer, op string) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error(op, zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return 0, mapErr(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	return n, nil
}

func (r *repository) exists(ctx context.Context, table, column, value string) (bool, error) {
	query := "select exists(select 1 from " + table + " where " + column + " = $1)"
	var ok bool
	if err := sqlx.GetContext(ctx, r.q, &ok, query, value); err != nil {
		return false, errors.Wrap(err, "exists "+table)
	}
	return ok, nil
}

func mapErr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errs.Conflict(pgErr.ConstraintName, conflictMessages[pgErr.ConstraintName])
	}
	return errors.Wrap(err, op)
}
