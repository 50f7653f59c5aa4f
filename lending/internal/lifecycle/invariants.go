package lifecycle

import (
	"github.com/pkg/errors"

	"github.com/Astemirdum/book-lending/lending/internal/model"
)

// CheckInvariants verifies that status, borrower and roster agree and that the
// owner appears in neither.
func CheckInvariants(b model.Book) error {
	hasBorrower := b.BorrowerID != nil
	hasPending := len(b.PendingRequesters) > 0

	switch b.Status {
	case model.StatusLent:
		if !hasBorrower {
			return errors.New("lent book has no borrower")
		}
		if hasPending {
			return errors.New("lent book has pending requests")
		}
	case model.StatusPendingApproval:
		if hasBorrower {
			return errors.New("pending book has a borrower")
		}
		if !hasPending {
			return errors.New("pending book has no requests")
		}
	case model.StatusAvailable:
		if hasBorrower || hasPending {
			return errors.New("available book has a borrower or requests")
		}
	default:
		return errors.Errorf("unknown status %q", b.Status)
	}

	if hasBorrower && *b.BorrowerID == b.OwnerID {
		return errors.New("owner is the borrower")
	}
	if b.PendingRequesters.Contains(b.OwnerID) {
		return errors.New("owner is a pending requester")
	}
	seen := make(map[string]struct{}, len(b.PendingRequesters))
	for _, id := range b.PendingRequesters {
		if _, ok := seen[id]; ok {
			return errors.Errorf("requester %s listed twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
