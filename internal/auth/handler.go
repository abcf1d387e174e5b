package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/techdict/backend/internal/httpx"
	"github.com/techdict/backend/internal/middleware"
	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
)

type authService interface {
	Login(ctx context.Context, r LoginRequest) (LoginResponse, error)
	RegisterUser(ctx context.Context, r RegisterUserRequest) (models.Account, error)
	Account(ctx context.Context, p models.Principal) (models.Account, error)
	ListAdmins(ctx context.Context) ([]models.Account, error)
	DeleteAdmin(ctx context.Context, id string) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	srv authService
}

func NewHandler(srv authService) *Handler {
	return &Handler{srv: srv}
}

// Login authenticates an account and returns a session credential.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp, err := h.srv.Login(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

// Register creates a general user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	acc, err := h.srv.RegisterUser(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, acc); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

// Account returns the currently authenticated account.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		httpx.HandleErr(w, r, serr.Unauthenticated(errors.New("no principal in context")))
		return
	}

	acc, err := h.srv.Account(r.Context(), p)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, acc); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.srv.ListAdmins(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, admins); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	if err := h.srv.DeleteAdmin(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "admin deleted")
}
