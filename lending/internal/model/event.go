package model

import "time"

type EventType string

const (
	EventBookRequested        EventType = "book.requested"
	EventBookBorrowed         EventType = "book.borrowed"
	EventBookApproved         EventType = "book.approved"
	EventBookRejected         EventType = "book.rejected"
	EventBookRequestCancelled EventType = "book.request_cancelled"
	EventBookReturned         EventType = "book.returned"
	EventReviewChanged        EventType = "review.changed"
)

type Event struct {
	Type          EventType `json:"type"`
	BookID        string    `json:"bookId"`
	BookDisplayID string    `json:"bookDisplayId"`
	ActorID       string    `json:"actorId"`
	// SubjectID is the user acted upon, e.g. the approved requester.
	SubjectID string    `json:"subjectId,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
