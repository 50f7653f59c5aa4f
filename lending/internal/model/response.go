package model

import "time"

type UserResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		UserID:    u.DisplayID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type BookResponse struct {
	ID                string    `json:"id"`
	BookID            string    `json:"bookId"`
	Title             string    `json:"title"`
	Author            string    `json:"author"`
	Genre             string    `json:"genre"`
	ImageURL          *string   `json:"imageUrl"`
	Owner             string    `json:"owner"`
	Borrower          *string   `json:"borrower"`
	Status            Status    `json:"status"`
	PendingRequesters []string  `json:"pendingRequesters"`
	AverageRating     float64   `json:"averageRating"`
	TotalReviews      int       `json:"totalReviews"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewBookResponse is the single place a book is shaped for clients.
// Nullable fields are emitted as null and the roster as [] when empty.
func NewBookResponse(b Book) BookResponse {
	pending := make([]string, 0, len(b.PendingRequesters))
	pending = append(pending, b.PendingRequesters...)
	return BookResponse{
		ID:                b.ID,
		BookID:            b.DisplayID,
		Title:             b.Title,
		Author:            b.Author,
		Genre:             b.Genre,
		ImageURL:          b.ImageURL,
		Owner:             b.OwnerID,
		Borrower:          b.BorrowerID,
		Status:            b.Status,
		PendingRequesters: pending,
		AverageRating:     b.AverageRating,
		TotalReviews:      b.TotalReviews,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

type ListBooks struct {
	TotalElements int            `json:"totalElements"`
	Items         []BookResponse `json:"items"`
}

func NewListBooks(books []Book) ListBooks {
	items := make([]BookResponse, 0, len(books))
	for i := range books {
		items = append(items, NewBookResponse(books[i]))
	}
	return ListBooks{TotalElements: len(items), Items: items}
}

type ReviewResponse struct {
	ID         string    `json:"id"`
	BookID     string    `json:"bookId"`
	ReviewerID string    `json:"reviewerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewReviewResponse(r Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		BookID:     r.BookDisplayID,
		ReviewerID: r.ReviewerID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// BookReviews carries the reviews of a book with its aggregates.
type BookReviews struct {
	Reviews       []Review
	AverageRating float64
	TotalReviews  int
}

type ReviewResult struct {
	Review        Review
	AverageRating float64
	TotalReviews  int
}

type ReviewResultResponse struct {
	Review        ReviewResponse `json:"review"`
	AverageRating float64        `json:"averageRating"`
	TotalReviews  int            `json:"totalReviews"`
}

func NewReviewResultResponse(r ReviewResult) ReviewResultResponse {
	return ReviewResultResponse{
		Review:        NewReviewResponse(r.Review),
		AverageRating: r.AverageRating,
		TotalReviews:  r.TotalReviews,
	}
}

type ListReviews struct {
	Items         []ReviewResponse `json:"items"`
	AverageRating float64          `json:"averageRating"`
	TotalReviews  int              `json:"totalReviews"`
}

func NewListReviews(br BookReviews) ListReviews {
	items := make([]ReviewResponse, 0, len(br.Reviews))
	for i := range br.Reviews {
		items = append(items, NewReviewResponse(br.Reviews[i]))
	}
	return ListReviews{Items: items, AverageRating: br.AverageRating, TotalReviews: br.TotalReviews}
}

type Genres struct {
	Items []string `json:"items"`
}

type ReviewAggregates struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}
