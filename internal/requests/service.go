// Package requests records user submitted change and new-word requests and
// lets admins move them through their statuses.
package requests

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
	"github.com/techdict/backend/internal/store"
)

type Store interface {
	CreateRequest(ctx context.Context, r store.CreateRequestRequest) (models.Request, error)
	GetRequest(ctx context.Context, id int64) (models.Request, error)
	ListRequests(ctx context.Context, r store.ListRequestsRequest) ([]models.Request, error)
	UpdateRequestStatus(ctx context.Context, r store.UpdateRequestStatusRequest) (models.Request, error)
	GetWord(ctx context.Context, id int64) (models.Word, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

type SubmitRequest struct {
	Word       string `json:"word"`
	Suggestion string `json:"suggestion"`
}

func (r SubmitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Word, validation.Required, validation.Length(1, 200)),
	)
}

// Submit records a free-form request for a word. It starts Open.
func (s *Service) Submit(ctx context.Context, r SubmitRequest) (models.Request, error) {
	r.Word = strings.TrimSpace(r.Word)
	if err := r.Validate(); err != nil {
		return models.Request{}, serr.Validation(err, "%v", err)
	}

	return s.create(ctx, store.CreateRequestRequest{
		Type:        models.RequestNew,
		Word:        r.Word,
		Description: r.Suggestion,
		Status:      models.RequestOpen,
	})
}

type ChangeRequest struct {
	Description string `json:"description"`
}

func (r ChangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Description, validation.Required),
	)
}

// RequestChange asks for an edit of an existing word.
func (s *Service) RequestChange(ctx context.Context, wordID int64, r ChangeRequest) (models.Request, error) {
	if err := r.Validate(); err != nil {
		return models.Request{}, serr.Validation(err, "%v", err)
	}

	w, err := s.store.GetWord(ctx, wordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Request{}, serr.NotFound(err, "word %d not found", wordID).With("word_id", strconv.FormatInt(wordID, 10))
		}
		return models.Request{}, serr.Internal(err, "get word")
	}

	return s.create(ctx, store.CreateRequestRequest{
		Type:        models.RequestChange,
		WordID:      &w.ID,
		Word:        w.Term,
		Description: r.Description,
		Status:      models.RequestPending,
	})
}

type NewWordRequest struct {
	Word        string `json:"word"`
	Description string `json:"description"`
}

func (r NewWordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Word, validation.Required, validation.Length(1, 200)),
	)
}

func (s *Service) RequestNew(ctx context.Context, r NewWordRequest) (models.Request, error) {
	r.Word = strings.TrimSpace(r.Word)
	if err := r.Validate(); err != nil {
		return models.Request{}, serr.Validation(err, "%v", err)
	}

	return s.create(ctx, store.CreateRequestRequest{
		Type:        models.RequestNew,
		Word:        r.Word,
		Description: r.Description,
		Status:      models.RequestPending,
	})
}

func (s *Service) create(ctx context.Context, r store.CreateRequestRequest) (models.Request, error) {
	req, err := s.store.CreateRequest(ctx, r)
	if err != nil {
		return models.Request{}, serr.Internal(err, "create request")
	}

	slog.Info("request recorded", "request_id", req.ID, "type", req.Type, "word", req.Word)
	return req, nil
}

type ListFilter struct {
	Status string
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Request, error) {
	var r store.ListRequestsRequest
	if f.Status != "" {
		st, err := models.ParseRequestStatus(f.Status)
		if err != nil {
			return nil, serr.Validation(err, "%v", err)
		}
		r.Status = &st
	}

	reqs, err := s.store.ListRequests(ctx, r)
	if err != nil {
		return nil, serr.Internal(err, "list requests")
	}
	if reqs == nil {
		reqs = []models.Request{}
	}
	return reqs, nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.Request, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Request{}, notFound(err, id)
		}
		return models.Request{}, serr.Internal(err, "get request")
	}
	return req, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves a request to Open, Pending or Resolved.
func (s *Service) UpdateStatus(ctx context.Context, id int64, r UpdateStatusRequest) (models.Request, error) {
	st, err := models.ParseRequestStatus(r.Status)
	if err != nil {
		return models.Request{}, serr.Validation(err, "%v", err)
	}

	req, err := s.store.UpdateRequestStatus(ctx, store.UpdateRequestStatusRequest{ID: id, Status: st})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Request{}, notFound(err, id)
		}
		return models.Request{}, serr.Internal(err, "update request")
	}
	return req, nil
}

func notFound(err error, id int64) error {
	return serr.NotFound(err, "request %d not found", id).With("request_id", strconv.FormatInt(id, 10))
}
