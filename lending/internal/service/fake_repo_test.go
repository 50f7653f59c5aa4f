package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
	"github.com/Astemirdum/book-lending/lending/internal/repository"
)

// memRepo keeps rows in maps and enforces the same unique constraints as the
// schema.
type memRepo struct {
	mu      sync.Mutex
	users   map[string]model.User
	books   map[string]model.Book
	reviews map[string]model.Review

	// hideDisplayIDs makes the exists checks lie so inserts hit the constraint.
	hideDisplayIDs bool
	existsCalls    int
	seq            int

	// beforeBookWrite runs once, right before the next book write.
	beforeBookWrite func()
}

var _ repository.Repository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		users:   make(map[string]model.User),
		books:   make(map[string]model.Book),
		reviews: make(map[string]model.Review),
	}
}

// tick keeps created_at strictly increasing for stable ordering.
func (m *memRepo) tick() time.Time {
	m.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

func (m *memRepo) userConflict(u model.User) error {
	for _, o := range m.users {
		if o.ID == u.ID {
			continue
		}
		switch {
		case o.DisplayID == u.DisplayID:
			return errs.Conflict(repository.ConstraintUserDisplayID, "user display id already taken")
		case o.Username == u.Username:
			return errs.Conflict(repository.ConstraintUsername, "username already taken")
		case o.Email == u.Email:
			return errs.Conflict(repository.ConstraintEmail, "email already taken")
		case u.SessionToken != nil && o.SessionToken != nil && *o.SessionToken == *u.SessionToken:
			return errs.Conflict(repository.ConstraintSessionToken, "session token already issued")
		}
	}
	return nil
}

func (m *memRepo) CreateUser(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := m.userConflict(u); err != nil {
		return model.User{}, err
	}
	u.CreatedAt = m.tick()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return u, nil
}

func (m *memRepo) findUser(match func(model.User) bool) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}

func (m *memRepo) GetUserByID(_ context.Context, id string) (model.User, error) {
	return m.findUser(func(u model.User) bool { return u.ID == id })
}

func (m *memRepo) GetUserByDisplayID(_ context.Context, displayID string) (model.User, error) {
	return m.findUser(func(u model.User) bool { return u.DisplayID == displayID })
}

func (m *memRepo) GetUserByLogin(_ context.Context, login string) (model.User, error) {
	return m.findUser(func(u model.User) bool {
		return u.Username == login || u.Email == strings.ToLower(login)
	})
}

func (m *memRepo) GetUserBySession(_ context.Context, token string) (model.User, error) {
	return m.findUser(func(u model.User) bool {
		return u.SessionToken != nil && *u.SessionToken == token
	})
}

func (m *memRepo) UpdateUser(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	if err := m.userConflict(u); err != nil {
		return model.User{}, err
	}
	cur.Username, cur.Email, cur.PasswordHash = u.Username, u.Email, u.PasswordHash
	cur.UpdatedAt = m.tick()
	m.users[u.ID] = cur
	return cur, nil
}

func (m *memRepo) SetSession(_ context.Context, userID string, token *string, lastActive *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errs.ErrNotFound
	}
	u.SessionToken, u.LastActive = token, lastActive
	m.users[userID] = u
	return nil
}

func (m *memRepo) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) UserDisplayIDExists(_ context.Context, displayID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.hideDisplayIDs {
		return false, nil
	}
	for _, u := range m.users {
		if u.DisplayID == displayID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) CreateBook(_ context.Context, b model.Book) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.books {
		if o.DisplayID == b.DisplayID {
			return model.Book{}, errs.Conflict(repository.ConstraintBookDisplayID, "book display id already taken")
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = model.StatusAvailable
	}
	b.PendingRequesters = model.UserRefs{}
	b.CreatedAt = m.tick()
	b.UpdatedAt = b.CreatedAt
	m.books[b.ID] = b.Clone()
	return b, nil
}

func (m *memRepo) findBook(match func(model.Book) bool) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if match(b) {
			return b.Clone(), nil
		}
	}
	return model.Book{}, errs.ErrNotFound
}

func (m *memRepo) GetBookByID(_ context.Context, id string) (model.Book, error) {
	return m.findBook(func(b model.Book) bool { return b.ID == id })
}

func (m *memRepo) GetBookByDisplayID(_ context.Context, displayID string) (model.Book, error) {
	return m.findBook(func(b model.Book) bool { return b.DisplayID == displayID })
}

func (m *memRepo) BookDisplayIDExists(_ context.Context, displayID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.hideDisplayIDs {
		return false, nil
	}
	for _, b := range m.books {
		if b.DisplayID == displayID {
			return true, nil
		}
	}
	return false, nil
}

func matchBook(b model.Book, f model.BookFilter) bool {
	if f.OwnerID != "" && b.OwnerID != f.OwnerID {
		return false
	}
	if f.ExcludeOwnerID != "" && b.OwnerID == f.ExcludeOwnerID {
		return false
	}
	if f.BorrowerID != "" && (b.BorrowerID == nil || *b.BorrowerID != f.BorrowerID) {
		return false
	}
	if f.PendingRequester != "" && !b.PendingRequesters.Contains(f.PendingRequester) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			found = found || b.Status == st
		}
		if !found {
			return false
		}
	}
	if f.Genre != "" && !strings.EqualFold(b.Genre, f.Genre) {
		return false
	}
	return true
}

func (m *memRepo) ListBooks(_ context.Context, f model.BookFilter) ([]model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Book, 0)
	for _, b := range m.books {
		if matchBook(b, f) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) ListBookDisplayIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.books))
	for _, b := range m.books {
		ids = append(ids, b.DisplayID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memRepo) ListGenres(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	genres := make([]string, 0)
	for _, b := range m.books {
		if _, ok := seen[b.Genre]; !ok {
			seen[b.Genre] = struct{}{}
			genres = append(genres, b.Genre)
		}
	}
	sort.Strings(genres)
	return genres, nil
}

func (m *memRepo) interleave() {
	m.mu.Lock()
	fn := m.beforeBookWrite
	m.beforeBookWrite = nil
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (m *memRepo) UpdateBookDetails(_ context.Context, b model.Book) (model.Book, error) {
	m.interleave()
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.books[b.ID]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	next := cur.Clone()
	next.Title, next.Author, next.Genre = b.Title, b.Author, b.Genre
	next.ImageURL = b.Clone().ImageURL
	next.UpdatedAt = m.tick()
	m.books[b.ID] = next
	return next.Clone(), nil
}

func sameState(a, b model.Book) bool {
	if a.Status != b.Status || len(a.PendingRequesters) != len(b.PendingRequesters) {
		return false
	}
	if (a.BorrowerID == nil) != (b.BorrowerID == nil) || (a.BorrowerID != nil && *a.BorrowerID != *b.BorrowerID) {
		return false
	}
	for i := range a.PendingRequesters {
		if a.PendingRequesters[i] != b.PendingRequesters[i] {
			return false
		}
	}
	return true
}

func (m *memRepo) UpdateBookState(_ context.Context, prev, next model.Book) (model.Book, error) {
	m.interleave()
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.books[prev.ID]
	if !ok || !sameState(cur, prev) {
		return model.Book{}, errs.ErrStaleState
	}
	saved := cur.Clone()
	nx := next.Clone()
	saved.BorrowerID, saved.Status, saved.PendingRequesters = nx.BorrowerID, nx.Status, nx.PendingRequesters
	if saved.PendingRequesters == nil {
		saved.PendingRequesters = model.UserRefs{}
	}
	saved.UpdatedAt = m.tick()
	m.books[prev.ID] = saved
	return saved.Clone(), nil
}

func (m *memRepo) UpdateBookAggregates(_ context.Context, displayID string, average float64, total int) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.books {
		if b.DisplayID == displayID {
			b.AverageRating, b.TotalReviews = average, total
			m.books[id] = b
			return b.Clone(), nil
		}
	}
	return model.Book{}, errs.ErrNotFound
}

func (m *memRepo) DeleteBook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memRepo) UpsertReview(_ context.Context, r model.Review) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.reviews {
		if o.BookDisplayID == r.BookDisplayID && o.ReviewerID == r.ReviewerID {
			o.Rating, o.Comment = r.Rating, r.Comment
			o.UpdatedAt = m.tick()
			m.reviews[id] = o
			return o, nil
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = m.tick()
	r.UpdatedAt = r.CreatedAt
	m.reviews[r.ID] = r
	return r, nil
}

func (m *memRepo) GetReview(_ context.Context, id string) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return model.Review{}, errs.ErrNotFound
	}
	return r, nil
}

func (m *memRepo) UpdateReview(_ context.Context, r model.Review) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.reviews[r.ID]
	if !ok {
		return model.Review{}, errs.ErrNotFound
	}
	cur.Rating, cur.Comment = r.Rating, r.Comment
	cur.UpdatedAt = m.tick()
	m.reviews[r.ID] = cur
	return cur, nil
}

func (m *memRepo) DeleteReview(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *memRepo) ListReviews(_ context.Context, bookDisplayID string) ([]model.Review, error) {
	return m.filterReviews(func(r model.Review) bool { return r.BookDisplayID == bookDisplayID }), nil
}

func (m *memRepo) ListReviewsByReviewer(_ context.Context, reviewerID string) ([]model.Review, error) {
	return m.filterReviews(func(r model.Review) bool { return r.ReviewerID == reviewerID }), nil
}

func (m *memRepo) filterReviews(match func(model.Review) bool) []model.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Review, 0)
	for _, r := range m.reviews {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memRepo) DeleteReviewsByBook(_ context.Context, bookDisplayID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reviews {
		if r.BookDisplayID == bookDisplayID {
			delete(m.reviews, id)
		}
	}
	return nil
}

func (m *memRepo) WithTx(_ context.Context, fn func(repo repository.Repository) error) error {
	return fn(m)
}

func (m *memRepo) reviewCount(bookDisplayID string) int {
	return len(m.filterReviews(func(r model.Review) bool { return r.BookDisplayID == bookDisplayID }))
}
