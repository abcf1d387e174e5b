package invitation

import (
	"context"
	"errors"
	"net/http"

	"github.com/techdict/backend/internal/auth"
	"github.com/techdict/backend/internal/httpx"
	"github.com/techdict/backend/internal/middleware"
	"github.com/techdict/backend/internal/oauth"
	"github.com/techdict/backend/internal/serr"
)

type invitationService interface {
	Invite(ctx context.Context, r InviteRequest) (InviteResponse, error)
	Resend(ctx context.Context, r ResendRequest) (InviteResponse, error)
	Verify(ctx context.Context, tok string) (VerifyResponse, error)
	Register(ctx context.Context, r RegisterRequest) (RegisterResponse, error)
	RegisterWithIdentity(ctx context.Context, tok string, id oauth.Identity) (auth.LoginResponse, error)
	Pending(ctx context.Context) ([]PendingInvitation, error)
}

type identityFlow interface {
	Begin(ctx context.Context, payload string) (string, error)
	Complete(ctx context.Context, code, state string) (string, oauth.Identity, error)
}

// Handler holds invitation HTTP handlers.
type Handler struct {
	srv  invitationService
	flow identityFlow
}

// NewHandler builds the invitation handlers. flow may be nil when delegated
// identity is disabled.
func NewHandler(srv invitationService, flow identityFlow) *Handler {
	return &Handler{srv: srv, flow: flow}
}

// Invite creates an invitation on behalf of the authenticated SuperAdmin.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		req.InvitedBy = p.ID
	}

	resp, err := h.srv.Invite(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Resend(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp, err := h.srv.Resend(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	invs, err := h.srv.Pending(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, invs); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	resp, err := h.srv.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp, err := h.srv.Register(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

// OAuthStart checks the invitation token and redirects to the identity
// provider.
func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if _, err := h.srv.Verify(r.Context(), tok); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	target, err := h.flow.Begin(r.Context(), tok)
	if err != nil {
		httpx.HandleErr(w, r, serr.Internal(err, "begin oauth flow"))
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// OAuthCallback completes the provider round trip and registers the admin.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tok, id, err := h.flow.Complete(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		if errors.Is(err, oauth.ErrAuthFailed) {
			httpx.HandleErr(w, r, serr.Unauthenticated(err))
			return
		}
		httpx.HandleErr(w, r, serr.Internal(err, "complete oauth flow"))
		return
	}

	resp, err := h.srv.RegisterWithIdentity(r.Context(), tok, id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}
