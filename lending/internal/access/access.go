// Package access holds the authorization predicates that gate book and
// review mutations. They are pure and never touch storage.
package access

import (
	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

func IsOwner(book model.Book, userID string) bool {
	return userID != "" && book.OwnerID == userID
}

func IsBorrower(book model.Book, userID string) bool {
	return userID != "" && book.BorrowerID != nil && *book.BorrowerID == userID
}

func IsReviewAuthor(review model.Review, userID string) bool {
	return userID != "" && review.ReviewerID == userID
}

func IsOwnerOrFail(book model.Book, userID string) error {
	if !IsOwner(book, userID) {
		return errs.NotAuthorized("only the owner of " + book.DisplayID + " may do this")
	}
	return nil
}

func IsBorrowerOrFail(book model.Book, userID string) error {
	if !IsBorrower(book, userID) {
		return errs.NotAuthorized("only the borrower of " + book.DisplayID + " may do this")
	}
	return nil
}

func IsReviewAuthorOrFail(review model.Review, userID string) error {
	if !IsReviewAuthor(review, userID) {
		return errs.NotAuthorized("only the author of a review may change it")
	}
	return nil
}
