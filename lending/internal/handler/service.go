package handler

import (
	"context"
	"time"

	"github.com/Astemirdum/book-lending/lending/internal/model"
	"github.com/Astemirdum/book-lending/lending/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type UserService interface {
	Signup(ctx context.Context, req model.SignupRequest) (model.User, string, error)
	Login(ctx context.Context, req model.LoginRequest) (model.User, string, error)
	Logout(ctx context.Context, userID string) error
	Authenticate(ctx context.Context, token string) (model.User, error)
	SessionExpiry(u model.User) time.Time
	GetUser(ctx context.Context, ref string) (model.User, error)
	UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.User, error)
	DeleteAccount(ctx context.Context, userID string) error
}

type BookService interface {
	CreateBook(ctx context.Context, ownerID string, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, ref string) (model.Book, error)
	ListOwnedBooks(ctx context.Context, userID string) ([]model.Book, error)
	ListAvailableBooks(ctx context.Context, userID, genre string) ([]model.Book, error)
	ListLentBooks(ctx context.Context, userID string) ([]model.Book, error)
	ListPendingApprovalBooks(ctx context.Context, userID string) ([]model.Book, error)
	ListBorrowedBooks(ctx context.Context, userID string) ([]model.Book, error)
	ListRequestedBooks(ctx context.Context, userID string) ([]model.Book, error)
	ListGenres(ctx context.Context) ([]string, error)
	UpdateBook(ctx context.Context, userID, ref string, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, userID, ref string) error

	RequestBorrow(ctx context.Context, userID, ref string) (model.Book, error)
	Borrow(ctx context.Context, userID, ref string) (model.Book, error)
	Approve(ctx context.Context, userID, ref, requesterRef string) (model.Book, error)
	Reject(ctx context.Context, userID, ref, requesterRef string) (model.Book, error)
	CancelRequest(ctx context.Context, userID, ref string) (model.Book, error)
	Return(ctx context.Context, userID, ref string) (model.Book, error)
	ReconcileBook(ctx context.Context, userID, ref string) (model.Book, error)
}

type ReviewService interface {
	UpsertReview(ctx context.Context, userID, bookRef string, req model.ReviewRequest) (model.ReviewResult, error)
	ListReviews(ctx context.Context, bookRef string) (model.BookReviews, error)
	UpdateReview(ctx context.Context, userID, bookRef, reviewID string, req model.UpdateReviewRequest) (model.ReviewResult, error)
	DeleteReview(ctx context.Context, userID, bookRef, reviewID string) (model.Book, error)
	RecomputeBookAggregates(ctx context.Context, bookRef string) (model.Book, error)
}

type LendingService interface {
	UserService
	BookService
	ReviewService
}

var _ LendingService = (*service.Service)(nil)
