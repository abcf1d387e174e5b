package requests

import (
	"context"
	"net/http"

	"github.com/techdict/backend/internal/httpx"
	"github.com/techdict/backend/internal/models"
)

type requestService interface {
	Submit(ctx context.Context, r SubmitRequest) (models.Request, error)
	RequestChange(ctx context.Context, wordID int64, r ChangeRequest) (models.Request, error)
	RequestNew(ctx context.Context, r NewWordRequest) (models.Request, error)
	List(ctx context.Context, f ListFilter) ([]models.Request, error)
	Get(ctx context.Context, id int64) (models.Request, error)
	UpdateStatus(ctx context.Context, id int64, r UpdateStatusRequest) (models.Request, error)
}

type Handler struct {
	srv requestService
}

func NewHandler(srv requestService) *Handler {
	return &Handler{srv: srv}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	created, err := h.srv.Submit(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, created); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

// RequestChange files a change request against the word in the {id} param.
func (h *Handler) RequestChange(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req ChangeRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	created, err := h.srv.RequestChange(r.Context(), id, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, created); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) RequestNew(w http.ResponseWriter, r *http.Request) {
	var req NewWordRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	created, err := h.srv.RequestNew(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, created); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.srv.List(r.Context(), ListFilter{Status: r.URL.Query().Get("status")})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, reqs); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	req, err := h.srv.Get(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, req); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req UpdateStatusRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	updated, err := h.srv.UpdateStatus(r.Context(), id, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, updated); err != nil {
		httpx.HandleErr(w, r, err)
	}
}
