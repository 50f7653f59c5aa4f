package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/lifecycle"
	"github.com/Astemirdum/book-lending/lending/internal/model"
	"github.com/Astemirdum/book-lending/lending/internal/repository"
)

const sessionTokenBytes = 32

var errBadCredentials = errors.Wrap(errs.ErrUnauthenticated, "invalid login or password")

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "session token")
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the account and opens its first session.
func (s *Service) Signup(ctx context.Context, req model.SignupRequest) (model.User, string, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return model.User{}, "", err
	}
	token, err := newSessionToken()
	if err != nil {
		return model.User{}, "", err
	}
	now := s.now()

	var created model.User
	err = s.insertWithDisplayID(ctx, model.UserIDPrefix, repository.ConstraintUserDisplayID,
		s.repo.UserDisplayIDExists,
		func(displayID string) error {
			var err error
			created, err = s.repo.CreateUser(ctx, model.User{
				DisplayID:    displayID,
				Username:     strings.TrimSpace(req.Username),
				Email:        normalizeEmail(req.Email),
				PasswordHash: hash,
				SessionToken: &token,
				LastActive:   &now,
			})
			return err
		})
	if err != nil {
		return model.User{}, "", err
	}
	s.log.Info("user signed up", zap.String("user", created.DisplayID))
	return created, token, nil
}

// Login replaces any previous session token of the user.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (model.User, string, error) {
	login := strings.TrimSpace(req.Identifier())
	if login == "" {
		return model.User{}, "", errs.Validation("login is required")
	}
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, "", errBadCredentials
		}
		return model.User{}, "", err
	}
	if err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return model.User{}, "", errBadCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return model.User{}, "", err
	}
	now := s.now()
	if err = s.repo.SetSession(ctx, u.ID, &token, &now); err != nil {
		return model.User{}, "", err
	}
	u.SessionToken = &token
	u.LastActive = &now
	return u, token, nil
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	err := s.repo.SetSession(ctx, userID, nil, nil)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	return err
}

// Authenticate resolves a session token to its user. lastActive is stamped at
// signup and login only, so a token is refused once the session TTL has passed
// since it was issued.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, errs.ErrUnauthenticated
	}
	u, err := s.repo.GetUserBySession(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errors.Wrap(errs.ErrUnauthenticated, "unknown session")
		}
		return model.User{}, err
	}
	if u.LastActive == nil || s.now().Sub(*u.LastActive) > s.sessionTTL {
		return model.User{}, errors.Wrap(errs.ErrUnauthenticated, "session expired")
	}
	return u, nil
}

// GetUser accepts the internal id or the display id.
func (s *Service) GetUser(ctx context.Context, ref string) (model.User, error) {
	return resolveUserRef(ctx, s.repo, ref)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if req.Username != nil {
		u.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		u.Email = normalizeEmail(*req.Email)
	}
	if req.Password != nil {
		if u.PasswordHash, err = hashPassword(*req.Password); err != nil {
			return model.User{}, err
		}
	}
	return s.repo.UpdateUser(ctx, u)
}

// DeleteAccount is refused while the user holds a borrowed book or owns a lent
// one. Otherwise the user leaves every pending roster, their reviews and
// books go, and the aggregates of the books they reviewed are recomputed.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	return s.repo.WithTx(ctx, func(repo repository.Repository) error {
		if _, err := repo.GetUserByID(ctx, userID); err != nil {
			return err
		}

		borrowed, err := repo.ListBooks(ctx, model.BookFilter{BorrowerID: userID})
		if err != nil {
			return err
		}
		if len(borrowed) > 0 {
			return errs.Conflict("", "return borrowed books before deleting the account")
		}
		lent, err := repo.ListBooks(ctx, model.BookFilter{
			OwnerID:  userID,
			Statuses: []model.Status{model.StatusLent},
		})
		if err != nil {
			return err
		}
		if len(lent) > 0 {
			return errs.Conflict("", "owned books are still lent out")
		}

		requested, err := repo.ListBooks(ctx, model.BookFilter{PendingRequester: userID})
		if err != nil {
			return err
		}
		for i := range requested {
			b := requested[i].Clone()
			if !lifecycle.RemoveRequester(&b, userID) {
				continue
			}
			if _, err = repo.UpdateBookState(ctx, requested[i], b); err != nil {
				return err
			}
		}

		reviews, err := repo.ListReviewsByReviewer(ctx, userID)
		if err != nil {
			return err
		}
		touched := make(map[string]struct{}, len(reviews))
		for i := range reviews {
			if err = repo.DeleteReview(ctx, reviews[i].ID); err != nil {
				return err
			}
			touched[reviews[i].BookDisplayID] = struct{}{}
		}

		owned, err := repo.ListBooks(ctx, model.BookFilter{OwnerID: userID})
		if err != nil {
			return err
		}
		for i := range owned {
			delete(touched, owned[i].DisplayID)
			if err = repo.DeleteReviewsByBook(ctx, owned[i].DisplayID); err != nil {
				return err
			}
			if err = repo.DeleteBook(ctx, owned[i].ID); err != nil {
				return err
			}
		}

		for displayID := range touched {
			if _, err = recompute(ctx, repo, displayID); err != nil {
				return err
			}
		}
		return repo.DeleteUser(ctx, userID)
	})
}

// SessionExpiry is when the current session of u stops being accepted.
func (s *Service) SessionExpiry(u model.User) time.Time {
	if u.LastActive == nil {
		return s.now()
	}
	return u.LastActive.Add(s.sessionTTL)
}
