package lifecycle_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/lifecycle"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

const (
	owner = "owner"
	userA = "alice"
	userC = "carol"
)

func newBook() model.Book {
	return model.Book{
		ID:                "4f8c1a52-0b7e-4d7f-9a39-5b9f0c1e2d3a",
		DisplayID:         "BK-7F3K9Q",
		OwnerID:           owner,
		Status:            model.StatusAvailable,
		PendingRequesters: model.UserRefs{},
	}
}

func apply(t *testing.T, b model.Book, tr lifecycle.Transition) model.Book {
	t.Helper()
	next, err := lifecycle.Apply(b, tr)
	require.NoError(t, err)
	require.NoError(t, lifecycle.CheckInvariants(next))
	return next
}

func requireTransitionErr(t *testing.T, err error, status model.Status, action lifecycle.Action) {
	t.Helper()
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	var te *errs.TransitionError
	require.True(t, errors.As(err, &te))
	require.Equal(t, string(status), te.Status)
	require.Equal(t, string(action), te.Action)
}

func TestScenario_RequestApproveReturn(t *testing.T) {
	b := newBook()

	b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
	require.Equal(t, model.StatusPendingApproval, b.Status)
	require.Equal(t, model.UserRefs{userA}, b.PendingRequesters)

	b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userC})
	require.Equal(t, model.UserRefs{userA, userC}, b.PendingRequesters)

	b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionApprove, Caller: owner, Requester: userA})
	require.Equal(t, model.StatusLent, b.Status)
	require.NotNil(t, b.BorrowerID)
	require.Equal(t, userA, *b.BorrowerID)
	require.Empty(t, b.PendingRequesters)

	b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionReturn, Caller: userA})
	require.Equal(t, model.StatusAvailable, b.Status)
	require.Nil(t, b.BorrowerID)
}

func TestRequest_Twice(t *testing.T) {
	b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})

	_, err := lifecycle.Apply(b, lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
	requireTransitionErr(t, err, model.StatusPendingApproval, lifecycle.ActionRequest)
	require.Equal(t, model.UserRefs{userA}, b.PendingRequesters)
}

func TestRequest_Preconditions(t *testing.T) {
	_, err := lifecycle.Apply(newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: owner})
	requireTransitionErr(t, err, model.StatusAvailable, lifecycle.ActionRequest)

	lent := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionBorrow, Caller: userC})
	_, err = lifecycle.Apply(lent, lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
	requireTransitionErr(t, err, model.StatusLent, lifecycle.ActionRequest)
}

func TestDirectBorrow(t *testing.T) {
	b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionBorrow, Caller: userA})
	require.Equal(t, model.StatusLent, b.Status)
	require.Equal(t, userA, *b.BorrowerID)

	_, err := lifecycle.Apply(newBook(), lifecycle.Transition{Action: lifecycle.ActionBorrow, Caller: owner})
	requireTransitionErr(t, err, model.StatusAvailable, lifecycle.ActionBorrow)

	pending := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userC})
	_, err = lifecycle.Apply(pending, lifecycle.Transition{Action: lifecycle.ActionBorrow, Caller: userA})
	requireTransitionErr(t, err, model.StatusPendingApproval, lifecycle.ActionBorrow)
}

func TestApprove_ThenFurtherDecisionsFail(t *testing.T) {
	b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
	b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userC})
	b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionApprove, Caller: owner, Requester: userA})

	for _, tr := range []lifecycle.Transition{
		{Action: lifecycle.ActionApprove, Caller: owner, Requester: userA},
		{Action: lifecycle.ActionApprove, Caller: owner, Requester: userC},
		{Action: lifecycle.ActionReject, Caller: owner, Requester: userC},
	} {
		_, err := lifecycle.Apply(b, tr)
		requireTransitionErr(t, err, model.StatusLent, tr.Action)
	}
}

func TestApprove_UnknownRequester(t *testing.T) {
	b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
	_, err := lifecycle.Apply(b, lifecycle.Transition{Action: lifecycle.ActionApprove, Caller: owner, Requester: userC})
	requireTransitionErr(t, err, model.StatusPendingApproval, lifecycle.ActionApprove)
}

func TestReject(t *testing.T) {
	t.Run("sole requester reverts to available", func(t *testing.T) {
		b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
		b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionReject, Caller: owner, Requester: userA})
		require.Equal(t, model.StatusAvailable, b.Status)
		require.Empty(t, b.PendingRequesters)
	})

	t.Run("one of two stays pending", func(t *testing.T) {
		b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
		b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userC})
		b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionReject, Caller: owner, Requester: userA})
		require.Equal(t, model.StatusPendingApproval, b.Status)
		require.Equal(t, model.UserRefs{userC}, b.PendingRequesters)
	})

	t.Run("nothing pending", func(t *testing.T) {
		_, err := lifecycle.Apply(newBook(), lifecycle.Transition{Action: lifecycle.ActionReject, Caller: owner, Requester: userA})
		requireTransitionErr(t, err, model.StatusAvailable, lifecycle.ActionReject)
	})
}

func TestCancelRequest(t *testing.T) {
	b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
	b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionCancel, Caller: userA})
	require.Equal(t, model.StatusAvailable, b.Status)

	_, err := lifecycle.Apply(b, lifecycle.Transition{Action: lifecycle.ActionCancel, Caller: userA})
	requireTransitionErr(t, err, model.StatusAvailable, lifecycle.ActionCancel)
}

func TestAuthorization(t *testing.T) {
	pending := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})

	_, err := lifecycle.Apply(pending, lifecycle.Transition{Action: lifecycle.ActionApprove, Caller: userC, Requester: userA})
	require.ErrorIs(t, err, errs.ErrNotAuthorized)

	_, err = lifecycle.Apply(pending, lifecycle.Transition{Action: lifecycle.ActionReject, Caller: userA, Requester: userA})
	require.ErrorIs(t, err, errs.ErrNotAuthorized)

	lent := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionBorrow, Caller: userA})
	_, err = lifecycle.Apply(lent, lifecycle.Transition{Action: lifecycle.ActionReturn, Caller: owner})
	require.ErrorIs(t, err, errs.ErrNotAuthorized)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
	b = apply(t, b, lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userC})

	_, err := lifecycle.Apply(b, lifecycle.Transition{Action: lifecycle.ActionReject, Caller: owner, Requester: userA})
	require.NoError(t, err)
	require.Equal(t, model.UserRefs{userA, userC}, b.PendingRequesters)
	require.Equal(t, model.StatusPendingApproval, b.Status)
}

func TestApply_UnknownAction(t *testing.T) {
	_, err := lifecycle.Apply(newBook(), lifecycle.Transition{Action: "steal", Caller: userA})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestRemoveRequester(t *testing.T) {
	b := apply(t, newBook(), lifecycle.Transition{Action: lifecycle.ActionRequest, Caller: userA})
	require.False(t, lifecycle.RemoveRequester(&b, userC))
	require.True(t, lifecycle.RemoveRequester(&b, userA))
	require.Equal(t, model.StatusAvailable, b.Status)
	require.NoError(t, lifecycle.CheckInvariants(b))
}

func TestCheckInvariants(t *testing.T) {
	borrower := userA
	ownerRef := owner
	tests := []struct {
		name    string
		book    model.Book
		wantErr bool
	}{
		{name: "available", book: model.Book{OwnerID: owner, Status: model.StatusAvailable}},
		{name: "lent", book: model.Book{OwnerID: owner, Status: model.StatusLent, BorrowerID: &borrower}},
		{name: "pending", book: model.Book{OwnerID: owner, Status: model.StatusPendingApproval, PendingRequesters: model.UserRefs{userA}}},
		{name: "lent without borrower", book: model.Book{OwnerID: owner, Status: model.StatusLent}, wantErr: true},
		{name: "pending without roster", book: model.Book{OwnerID: owner, Status: model.StatusPendingApproval}, wantErr: true},
		{name: "available with roster", book: model.Book{OwnerID: owner, Status: model.StatusAvailable, PendingRequesters: model.UserRefs{userA}}, wantErr: true},
		{name: "owner borrows", book: model.Book{OwnerID: owner, Status: model.StatusLent, BorrowerID: &ownerRef}, wantErr: true},
		{name: "owner requests", book: model.Book{OwnerID: owner, Status: model.StatusPendingApproval, PendingRequesters: model.UserRefs{owner}}, wantErr: true},
		{name: "duplicate requester", book: model.Book{OwnerID: owner, Status: model.StatusPendingApproval, PendingRequesters: model.UserRefs{userA, userA}}, wantErr: true},
		{name: "unknown status", book: model.Book{OwnerID: owner, Status: "lost"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := lifecycle.CheckInvariants(tt.book)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
