package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/idgen"
	"github.com/Astemirdum/book-lending/lending/internal/model"
	"github.com/Astemirdum/book-lending/lending/internal/repository"
	"github.com/Astemirdum/book-lending/pkg/kafka"
)

const (
	DefaultSessionTTL           = 24 * time.Hour
	DefaultReconcileParallelism = 4
)

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	events kafka.Publisher
	ids    *idgen.Generator
	now    func() time.Time

	sessionTTL  time.Duration
	parallelism int
}

type Option func(*Service)

func WithPublisher(p kafka.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithIDGenerator(g *idgen.Generator) Option {
	return func(s *Service) { s.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithReconcileParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func NewService(repo repository.Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:         log.Named("service"),
		repo:        repo,
		events:      kafka.NewNoopPublisher(),
		ids:         idgen.New(),
		now:         time.Now,
		sessionTTL:  DefaultSessionTTL,
		parallelism: DefaultReconcileParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// insertWithDisplayID draws display ids until insert succeeds. The exists
// pre-check and the unique constraint share one budget of idgen.MaxAttempts
// candidates; a duplicate key on insert means another request won the race.
func (s *Service) insertWithDisplayID(
	ctx context.Context,
	prefix, constraint string,
	exists idgen.ExistsFunc,
	insert func(displayID string) error,
) error {
	drawn := 0
	counted := func(ctx context.Context, id string) (bool, error) {
		drawn++
		return exists(ctx, id)
	}
	for drawn < idgen.MaxAttempts {
		id, err := s.ids.CreateUnique(ctx, prefix, counted, idgen.MaxAttempts-drawn)
		if err != nil {
			return err
		}
		err = insert(id)
		if err == nil {
			return nil
		}
		if !errs.IsConflictOn(err, constraint) {
			return err
		}
		s.log.Warn("display id taken on insert", zap.String("id", id))
	}
	return errors.Wrapf(errs.ErrIDExhaustion, "%s after %d attempts", prefix, idgen.MaxAttempts)
}

// resolveBookRef accepts either the internal uuid or the display id.
func resolveBookRef(ctx context.Context, repo repository.Repository, ref string) (model.Book, error) {
	if ref == "" {
		return model.Book{}, errs.Validation("empty book id")
	}
	var (
		b   model.Book
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		b, err = repo.GetBookByID(ctx, ref)
	} else {
		b, err = repo.GetBookByDisplayID(ctx, ref)
	}
	if errors.Is(err, errs.ErrNotFound) {
		return model.Book{}, errs.NotFound("book " + ref)
	}
	return b, err
}

func resolveUserRef(ctx context.Context, repo repository.Repository, ref string) (model.User, error) {
	if ref == "" {
		return model.User{}, errs.Validation("empty user id")
	}
	var (
		u   model.User
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		u, err = repo.GetUserByID(ctx, ref)
	} else {
		u, err = repo.GetUserByDisplayID(ctx, ref)
	}
	if errors.Is(err, errs.ErrNotFound) {
		return model.User{}, errs.NotFound("user " + ref)
	}
	return u, err
}

// publish never fails the caller. The write it reports is already committed.
func (s *Service) publish(ctx context.Context, topic string, ev model.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now().UTC()
	}
	if err := s.events.Publish(ctx, topic, ev.BookDisplayID, ev); err != nil {
		s.log.Warn("publish event",
			zap.String("topic", topic),
			zap.String("type", string(ev.Type)),
			zap.String("book", ev.BookDisplayID),
			zap.Error(err))
	}
}
