// Package lifecycle is the book status state machine:
//
//	available -> pending_approval -> lent -> available
//
// with direct borrowing from available and a roster of pending requesters.
package lifecycle

import (
	"github.com/Astemirdum/book-lending/lending/internal/access"
	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

type Action string

const (
	ActionRequest Action = "request-to-borrow"
	ActionBorrow  Action = "direct-borrow"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel-request"
	ActionReturn  Action = "return"
)

type Transition struct {
	Action Action
	Caller string
	// Requester is the pending user an owner approves or rejects.
	Requester string
}

// Apply checks authorization and preconditions of t against b and returns the
// resulting book. b itself is never modified, so a failed transition leaves
// nothing half applied.
func Apply(b model.Book, t Transition) (model.Book, error) {
	if err := authorize(b, t); err != nil {
		return model.Book{}, err
	}

	next := b.Clone()
	var err error
	switch t.Action {
	case ActionRequest:
		err = request(&next, t.Caller)
	case ActionBorrow:
		err = borrow(&next, t.Caller)
	case ActionApprove:
		err = approve(&next, t.Requester)
	case ActionReject:
		err = withdraw(&next, t.Action, t.Requester)
	case ActionCancel:
		err = withdraw(&next, t.Action, t.Caller)
	case ActionReturn:
		err = giveBack(&next)
	default:
		return model.Book{}, errs.Validation("unknown action " + string(t.Action))
	}
	if err != nil {
		return model.Book{}, err
	}

	if err = CheckInvariants(next); err != nil {
		return model.Book{}, errs.Transition(string(t.Action), string(b.Status), err.Error())
	}
	return next, nil
}

func authorize(b model.Book, t Transition) error {
	switch t.Action {
	case ActionApprove, ActionReject:
		return access.IsOwnerOrFail(b, t.Caller)
	case ActionReturn:
		return access.IsBorrowerOrFail(b, t.Caller)
	default:
		return nil
	}
}

func fail(a Action, b *model.Book, reason string) error {
	return errs.Transition(string(a), string(b.Status), reason)
}

func request(b *model.Book, caller string) error {
	if access.IsOwner(*b, caller) {
		return fail(ActionRequest, b, "owner cannot borrow their own book")
	}
	if b.Status != model.StatusAvailable && b.Status != model.StatusPendingApproval {
		return fail(ActionRequest, b, "book is not available for requests")
	}
	if b.PendingRequesters.Contains(caller) {
		return fail(ActionRequest, b, "borrow request already pending")
	}
	b.PendingRequesters = append(b.PendingRequesters, caller)
	b.Status = model.StatusPendingApproval
	return nil
}

func borrow(b *model.Book, caller string) error {
	if access.IsOwner(*b, caller) {
		return fail(ActionBorrow, b, "owner cannot borrow their own book")
	}
	if b.Status != model.StatusAvailable {
		return fail(ActionBorrow, b, "book is not available")
	}
	borrower := caller
	b.BorrowerID = &borrower
	b.Status = model.StatusLent
	return nil
}

func approve(b *model.Book, requester string) error {
	if b.Status != model.StatusPendingApproval {
		return fail(ActionApprove, b, "no borrow request is pending")
	}
	if !b.PendingRequesters.Contains(requester) {
		return fail(ActionApprove, b, "user has not requested this book")
	}
	borrower := requester
	b.BorrowerID = &borrower
	b.PendingRequesters = model.UserRefs{}
	b.Status = model.StatusLent
	return nil
}

// withdraw removes userID from the roster, on rejection by the owner or on
// cancellation by the requester. An emptied roster makes the book available.
func withdraw(b *model.Book, a Action, userID string) error {
	if b.Status != model.StatusPendingApproval {
		return fail(a, b, "no borrow request is pending")
	}
	if !b.PendingRequesters.Contains(userID) {
		return fail(a, b, "user has not requested this book")
	}
	b.PendingRequesters = b.PendingRequesters.Without(userID)
	if len(b.PendingRequesters) == 0 {
		b.Status = model.StatusAvailable
	}
	return nil
}

func giveBack(b *model.Book) error {
	if b.Status != model.StatusLent {
		return fail(ActionReturn, b, "book is not lent")
	}
	b.BorrowerID = nil
	b.Status = model.StatusAvailable
	return nil
}

// RemoveRequester drops userID from the roster regardless of who asks. It is
// used when an account is deleted and reports whether b changed.
func RemoveRequester(b *model.Book, userID string) bool {
	if !b.PendingRequesters.Contains(userID) {
		return false
	}
	b.PendingRequesters = b.PendingRequesters.Without(userID)
	if len(b.PendingRequesters) == 0 && b.Status == model.StatusPendingApproval {
		b.Status = model.StatusAvailable
	}
	return true
}
