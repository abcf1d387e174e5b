package store

import (
	"time"

	"github.com/techdict/backend/internal/models"
)

type CreateAccountRequest struct {
	Role         models.Role
	Email        string
	Name         string
	PasswordHash string
}

type CreateInvitationRequest struct {
	Email     string
	TokenHash string
	InvitedBy string
	TTL       time.Duration
}

type RotateInvitationRequest struct {
	Email     string
	TokenHash string
	TTL       time.Duration
}

// ConsumeInvitationRequest deletes the live invitation matching TokenHash and
// Email and creates Account in the same transaction.
type ConsumeInvitationRequest struct {
	TokenHash string
	Email     string
	Account   CreateAccountRequest
}

type WordFields struct {
	Term          string
	Class         string
	Meaning       string
	Pronunciation string
	History       string
	Example       string
}

type CreateWordRequest struct {
	WordFields
	Status models.WordStatus
}

type UpdateWordRequest struct {
	ID int64
	WordFields
	// Status is left unchanged when nil.
	Status *models.WordStatus
}

type ListWordsRequest struct {
	Status *models.WordStatus
}

type CreateRequestRequest struct {
	Type        models.RequestType
	WordID      *int64
	Word        string
	Description string
	Status      models.RequestStatus
}

type ListRequestsRequest struct {
	Status *models.RequestStatus
	// Limit of zero returns every row.
	Limit int
}

type UpdateRequestStatusRequest struct {
	ID     int64
	Status models.RequestStatus
}
