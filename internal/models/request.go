package models

import (
	"fmt"
	"time"
)

type RequestType string

const (
	RequestChange RequestType = "Change"
	RequestNew    RequestType = "New"
)

type RequestStatus string

const (
	RequestOpen     RequestStatus = "Open"
	RequestPending  RequestStatus = "Pending"
	RequestResolved RequestStatus = "Resolved"
)

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case RequestOpen, RequestPending, RequestResolved:
		return RequestStatus(s), nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// Request is a user submitted change or new word request.
type Request struct {
	ID          int64         `json:"id"`
	Type        RequestType   `json:"type"`
	WordID      *int64        `json:"word_id,omitempty"`
	Word        string        `json:"word"`
	Description string        `json:"description"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
