package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-lending/lending/internal/access"
	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/lifecycle"
	"github.com/Astemirdum/book-lending/lending/internal/model"
	"github.com/Astemirdum/book-lending/lending/internal/repository"
	"github.com/Astemirdum/book-lending/pkg/kafka"
)

func (s *Service) CreateBook(ctx context.Context, ownerID string, req model.CreateBookRequest) (model.Book, error) {
	var created model.Book
	err := s.insertWithDisplayID(ctx, model.BookIDPrefix, repository.ConstraintBookDisplayID,
		s.repo.BookDisplayIDExists,
		func(displayID string) error {
			var err error
			created, err = s.repo.CreateBook(ctx, model.Book{
				DisplayID: displayID,
				Title:     strings.TrimSpace(req.Title),
				Author:    strings.TrimSpace(req.Author),
				Genre:     strings.TrimSpace(req.Genre),
				ImageURL:  req.ImageURL,
				OwnerID:   ownerID,
				Status:    model.StatusAvailable,
			})
			return err
		})
	if err != nil {
		return model.Book{}, err
	}
	return created, nil
}

func (s *Service) GetBook(ctx context.Context, ref string) (model.Book, error) {
	return resolveBookRef(ctx, s.repo, ref)
}

func (s *Service) ListOwnedBooks(ctx context.Context, userID string) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, model.BookFilter{OwnerID: userID})
}

// ListAvailableBooks lists books of other users that still accept requests.
func (s *Service) ListAvailableBooks(ctx context.Context, userID, genre string) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, model.BookFilter{
		ExcludeOwnerID: userID,
		Statuses:       []model.Status{model.StatusAvailable},
		Genre:          strings.TrimSpace(genre),
	})
}

func (s *Service) ListLentBooks(ctx context.Context, userID string) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, model.BookFilter{
		OwnerID:  userID,
		Statuses: []model.Status{model.StatusLent},
	})
}

func (s *Service) ListPendingApprovalBooks(ctx context.Context, userID string) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, model.BookFilter{
		OwnerID:  userID,
		Statuses: []model.Status{model.StatusPendingApproval},
	})
}

func (s *Service) ListBorrowedBooks(ctx context.Context, userID string) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, model.BookFilter{BorrowerID: userID})
}

func (s *Service) ListRequestedBooks(ctx context.Context, userID string) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, model.BookFilter{PendingRequester: userID})
}

func (s *Service) ListGenres(ctx context.Context) ([]string, error) {
	return s.repo.ListGenres(ctx)
}

// UpdateBook edits details only. Owner, lifecycle state and aggregates are
// not reachable from here.
func (s *Service) UpdateBook(ctx context.Context, userID, ref string, req model.UpdateBookRequest) (model.Book, error) {
	if req.Empty() {
		return model.Book{}, errs.Validation("nothing to update")
	}
	b, err := resolveBookRef(ctx, s.repo, ref)
	if err != nil {
		return model.Book{}, err
	}
	if err = access.IsOwnerOrFail(b, userID); err != nil {
		return model.Book{}, err
	}
	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		b.Author = strings.TrimSpace(*req.Author)
	}
	if req.Genre != nil {
		b.Genre = strings.TrimSpace(*req.Genre)
	}
	if req.ImageURL != nil {
		b.ImageURL = req.ImageURL
	}
	return s.repo.UpdateBookDetails(ctx, b)
}

// DeleteBook removes an owned book with its reviews. A lent book cannot be
// deleted until it is returned.
func (s *Service) DeleteBook(ctx context.Context, userID, ref string) error {
	b, err := resolveBookRef(ctx, s.repo, ref)
	if err != nil {
		return err
	}
	if err = access.IsOwnerOrFail(b, userID); err != nil {
		return err
	}
	if b.Status == model.StatusLent {
		return errs.Transition("delete", string(b.Status), "book is lent out")
	}
	return s.repo.WithTx(ctx, func(repo repository.Repository) error {
		if err := repo.DeleteReviewsByBook(ctx, b.DisplayID); err != nil {
			return err
		}
		return repo.DeleteBook(ctx, b.ID)
	})
}

func (s *Service) RequestBorrow(ctx context.Context, userID, ref string) (model.Book, error) {
	return s.transition(ctx, ref, lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userID})
}

func (s *Service) Borrow(ctx context.Context, userID, ref string) (model.Book, error) {
	return s.transition(ctx, ref, lifecycle.Transition{Action: lifecycle.ActionBorrow, Caller: userID})
}

func (s *Service) CancelRequest(ctx context.Context, userID, ref string) (model.Book, error) {
	return s.transition(ctx, ref, lifecycle.Transition{Action: lifecycle.ActionCancel, Caller: userID})
}

func (s *Service) Return(ctx context.Context, userID, ref string) (model.Book, error) {
	return s.transition(ctx, ref, lifecycle.Transition{Action: lifecycle.ActionReturn, Caller: userID})
}

func (s *Service) Approve(ctx context.Context, userID, ref, requesterRef string) (model.Book, error) {
	return s.decide(ctx, lifecycle.ActionApprove, userID, ref, requesterRef)
}

func (s *Service) Reject(ctx context.Context, userID, ref, requesterRef string) (model.Book, error) {
	return s.decide(ctx, lifecycle.ActionReject, userID, ref, requesterRef)
}

// decide resolves the requester reference before running an owner decision.
// An unknown requester is not on the roster, so it fails as a transition.
func (s *Service) decide(ctx context.Context, action lifecycle.Action, userID, ref, requesterRef string) (model.Book, error) {
	requesterID := requesterRef
	u, err := resolveUserRef(ctx, s.repo, requesterRef)
	switch {
	case err == nil:
		requesterID = u.ID
	case errors.Is(err, errs.ErrNotFound):
	default:
		return model.Book{}, err
	}
	return s.transition(ctx, ref, lifecycle.Transition{Action: action, Caller: userID, Requester: requesterID})
}

// transition is read, validate, write: one conditional single row update per
// call. A competing transition that lands between the read and the write
// makes this one fail instead of overwriting it.
func (s *Service) transition(ctx context.Context, ref string, t lifecycle.Transition) (model.Book, error) {
	b, err := resolveBookRef(ctx, s.repo, ref)
	if err != nil {
		return model.Book{}, err
	}
	next, err := lifecycle.Apply(b, t)
	if err != nil {
		return model.Book{}, err
	}
	saved, err := s.repo.UpdateBookState(ctx, b, next)
	if errors.Is(err, errs.ErrStaleState) {
		return model.Book{}, s.staleTransition(ctx, b, t.Action)
	}
	if err != nil {
		return model.Book{}, err
	}

	s.log.Debug("book transition",
		zap.String("book", saved.DisplayID),
		zap.String("action", string(t.Action)),
		zap.String("from", string(b.Status)),
		zap.String("to", string(saved.Status)))

	ev := model.Event{
		Type:          eventTypes[t.Action],
		BookID:        saved.ID,
		BookDisplayID: saved.DisplayID,
		ActorID:       t.Caller,
		SubjectID:     t.Requester,
		Status:        saved.Status,
	}
	s.publish(ctx, kafka.LendingTopic, ev)
	return saved, nil
}

func (s *Service) staleTransition(ctx context.Context, b model.Book, action lifecycle.Action) error {
	cur, err := s.repo.GetBookByID(ctx, b.ID)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.NotFound("book " + b.DisplayID)
	}
	if err != nil {
		return err
	}
	s.log.Info("book changed during transition",
		zap.String("book", b.DisplayID),
		zap.String("action", string(action)),
		zap.String("status", string(cur.Status)))
	return errs.Transition(string(action), string(cur.Status), "book changed concurrently")
}

var eventTypes = map[lifecycle.Action]model.EventType{
	lifecycle.ActionRequest: model.EventBookRequested,
	lifecycle.ActionBorrow:  model.EventBookBorrowed,
	lifecycle.ActionApprove: model.EventBookApproved,
	lifecycle.ActionReject:  model.EventBookRejected,
	lifecycle.ActionCancel:  model.EventBookRequestCancelled,
	lifecycle.ActionReturn:  model.EventBookReturned,
}
