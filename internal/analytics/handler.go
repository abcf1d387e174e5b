package analytics

import (
	"context"
	"errors"
	"net/http"

	"github.com/techdict/backend/internal/httpx"
	"github.com/techdict/backend/internal/middleware"
	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
)

type analyticsService interface {
	SuperAdminDashboard(ctx context.Context) (models.SuperAdminDashboard, error)
	AdminDashboard(ctx context.Context, p models.Principal) (models.AdminDashboard, error)
	Overview(ctx context.Context) (models.Overview, error)
	Words(ctx context.Context) (models.WordAnalytics, error)
	Requests(ctx context.Context) (models.RequestAnalytics, error)
	Activity(ctx context.Context) (models.Activity, error)
}

type Handler struct {
	srv analyticsService
}

func NewHandler(srv analyticsService) *Handler {
	return &Handler{srv: srv}
}

func (h *Handler) SuperAdminDashboard(w http.ResponseWriter, r *http.Request) {
	respond(w, r, func(ctx context.Context) (any, error) { return h.srv.SuperAdminDashboard(ctx) })
}

// AdminDashboard reports on the authenticated admin.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		httpx.HandleErr(w, r, serr.Unauthenticated(errors.New("no principal in context")))
		return
	}
	respond(w, r, func(ctx context.Context) (any, error) { return h.srv.AdminDashboard(ctx, p) })
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	respond(w, r, func(ctx context.Context) (any, error) { return h.srv.Overview(ctx) })
}

func (h *Handler) Words(w http.ResponseWriter, r *http.Request) {
	respond(w, r, func(ctx context.Context) (any, error) { return h.srv.Words(ctx) })
}

func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	respond(w, r, func(ctx context.Context) (any, error) { return h.srv.Requests(ctx) })
}

func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	respond(w, r, func(ctx context.Context) (any, error) { return h.srv.Activity(ctx) })
}

func respond(w http.ResponseWriter, r *http.Request, load func(ctx context.Context) (any, error)) {
	resp, err := load(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}
