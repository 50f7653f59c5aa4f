package model

type SignupRequest struct {
	Username string `json:"username" validate:"required,notblank,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

type LoginRequest struct {
	// Login is either a username or an email.
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Identifier() string {
	switch {
	case r.Login != "":
		return r.Login
	case r.Email != "":
		return r.Email
	default:
		return r.Username
	}
}

type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,notblank,min=3,max=64"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=3,max=72"`
}

type CreateBookRequest struct {
	Title    string  `json:"title" validate:"required,notblank,max=255"`
	Author   string  `json:"author" validate:"required,notblank,max=255"`
	Genre    string  `json:"genre" validate:"required,notblank,max=64"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url,max=2048"`
}

type UpdateBookRequest struct {
	Title    *string `json:"title" validate:"omitempty,notblank,max=255"`
	Author   *string `json:"author" validate:"omitempty,notblank,max=255"`
	Genre    *string `json:"genre" validate:"omitempty,notblank,max=64"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url,max=2048"`
}

func (r UpdateBookRequest) Empty() bool {
	return r.Title == nil && r.Author == nil && r.Genre == nil && r.ImageURL == nil
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}
