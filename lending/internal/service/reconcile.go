package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/book-lending/lending/internal/access"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

// RecomputeBookAggregates repairs averageRating and totalReviews of one book
// from its reviews.
func (s *Service) RecomputeBookAggregates(ctx context.Context, bookRef string) (model.Book, error) {
	b, err := resolveBookRef(ctx, s.repo, bookRef)
	if err != nil {
		return model.Book{}, err
	}
	return recompute(ctx, s.repo, b.DisplayID)
}

// ReconcileBook is RecomputeBookAggregates restricted to the owner.
func (s *Service) ReconcileBook(ctx context.Context, userID, bookRef string) (model.Book, error) {
	b, err := resolveBookRef(ctx, s.repo, bookRef)
	if err != nil {
		return model.Book{}, err
	}
	if err = access.IsOwnerOrFail(b, userID); err != nil {
		return model.Book{}, err
	}
	return recompute(ctx, s.repo, b.DisplayID)
}

// ReconcileAll recomputes every book with at most parallelism concurrent
// repairs and returns how many books it visited.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := s.repo.ListBookDisplayIDs(ctx)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := recompute(gctx, s.repo, id); err != nil {
				s.log.Error("reconcile", zap.String("book", id), zap.Error(err))
				return err
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}
	s.log.Info("reconciled aggregates", zap.Int("books", len(ids)))
	return len(ids), nil
}
