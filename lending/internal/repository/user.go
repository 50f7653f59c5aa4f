package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

var userColumns = []string{
	"id", "display_id", "username", "email", "password_hash",
	"session_token", "last_active", "created_at", "updated_at",
}

func returningUser() string {
	return "returning " + strings.Join(userColumns, ", ")
}

func (r *repository) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	b := qb.Insert(usersTableName).
		Columns("id", "display_id", "username", "email", "password_hash", "session_token", "last_active").
		Values(u.ID, u.DisplayID, u.Username, u.Email, u.PasswordHash, u.SessionToken, u.LastActive).
		Suffix(returningUser())

	var created model.User
	if err := r.get(ctx, &created, b, "CreateUser"); err != nil {
		return model.User{}, err
	}
	return created, nil
}

func (r *repository) getUser(ctx context.Context, where sq.Sqlizer, op string) (model.User, error) {
	b := qb.Select(userColumns...).
		From(usersTableName).
		Where(where).
		Limit(1)

	var u model.User
	if err := r.get(ctx, &u, b, op); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *repository) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id}, "GetUserByID")
}

func (r *repository) GetUserByDisplayID(ctx context.Context, displayID string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"display_id": displayID}, "GetUserByDisplayID")
}

func (r *repository) GetUserByLogin(ctx context.Context, login string) (model.User, error) {
	return r.getUser(ctx, sq.Or{
		sq.Eq{"username": login},
		sq.Eq{"email": strings.ToLower(login)},
	}, "GetUserByLogin")
}

func (r *repository) GetUserBySession(ctx context.Context, token string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"session_token": token}, "GetUserBySession")
}

func (r *repository) UpdateUser(ctx context.Context, u model.User) (model.User, error) {
	b := qb.Update(usersTableName).
		Set("username", u.Username).
		Set("email", u.Email).
		Set("password_hash", u.PasswordHash).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": u.ID}).
		Suffix(returningUser())

	var updated model.User
	if err := r.get(ctx, &updated, b, "UpdateUser"); err != nil {
		return model.User{}, err
	}
	return updated, nil
}

func (r *repository) SetSession(ctx context.Context, userID string, token *string, lastActive *time.Time) error {
	b := qb.Update(usersTableName).
		Set("session_token", token).
		Set("last_active", lastActive).
		Where(sq.Eq{"id": userID})

	n, err := r.exec(ctx, b, "SetSession")
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteUser(ctx context.Context, id string) error {
	n, err := r.exec(ctx, qb.Delete(usersTableName).Where(sq.Eq{"id": id}), "DeleteUser")
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) UserDisplayIDExists(ctx context.Context, displayID string) (bool, error) {
	return r.exists(ctx, usersTableName, "display_id", displayID)
}
