package model

import (
	"database/sql/driver"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type Status string

const (
	StatusAvailable       Status = "available"
	StatusPendingApproval Status = "pending_approval"
	StatusLent            Status = "lent"
)

const (
	UserIDPrefix = "USR"
	BookIDPrefix = "BK"
)

type User struct {
	ID           string     `db:"id"`
	DisplayID    string     `db:"display_id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	SessionToken *string    `db:"session_token"`
	LastActive   *time.Time `db:"last_active"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type Book struct {
	ID                string    `db:"id"`
	DisplayID         string    `db:"display_id"`
	Title             string    `db:"title"`
	Author            string    `db:"author"`
	Genre             string    `db:"genre"`
	ImageURL          *string   `db:"image_url"`
	OwnerID           string    `db:"owner_id"`
	BorrowerID        *string   `db:"borrower_id"`
	Status            Status    `db:"status"`
	PendingRequesters UserRefs  `db:"pending_requesters"`
	AverageRating     float64   `db:"average_rating"`
	TotalReviews      int       `db:"total_reviews"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Clone returns a copy that shares no mutable state with b.
func (b Book) Clone() Book {
	c := b
	if b.BorrowerID != nil {
		id := *b.BorrowerID
		c.BorrowerID = &id
	}
	if b.ImageURL != nil {
		u := *b.ImageURL
		c.ImageURL = &u
	}
	c.PendingRequesters = append(UserRefs(nil), b.PendingRequesters...)
	return c
}

// UserRefs is an ordered set of user ids kept in a jsonb column.
type UserRefs []string

func (r UserRefs) Contains(id string) bool {
	for i := range r {
		if r[i] == id {
			return true
		}
	}
	return false
}

func (r UserRefs) Without(id string) UserRefs {
	out := make(UserRefs, 0, len(r))
	for i := range r {
		if r[i] != id {
			out = append(out, r[i])
		}
	}
	return out
}

func (r UserRefs) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal([]string(r))
	if err != nil {
		return nil, errors.Wrap(err, "UserRefs")
	}
	return string(data), nil
}

func (r *UserRefs) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*r = UserRefs{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("UserRefs: unsupported type %T", src)
	}
	var ids []string
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &ids); err != nil {
		return errors.Wrap(err, "UserRefs")
	}
	if ids == nil {
		ids = []string{}
	}
	*r = ids
	return nil
}

type Review struct {
	ID            string    `db:"id"`
	BookDisplayID string    `db:"book_display_id"`
	ReviewerID    string    `db:"reviewer_id"`
	Rating        int       `db:"rating"`
	Comment       string    `db:"comment"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// BookFilter narrows ListBooks. Empty fields are ignored.
type BookFilter struct {
	OwnerID          string
	ExcludeOwnerID   string
	BorrowerID       string
	PendingRequester string
	Statuses         []Status
	Genre            string
}
