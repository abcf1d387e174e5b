// Package invitation implements the admin invitation lifecycle: invite,
// verify, register and re-send.
package invitation

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/techdict/backend/internal/auth"
	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/notify"
	"github.com/techdict/backend/internal/oauth"
	"github.com/techdict/backend/internal/serr"
	"github.com/techdict/backend/internal/store"
	"github.com/techdict/backend/internal/token"
)

// Ledger persists invitations and consumes them into admin accounts.
type Ledger interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	CreateInvitation(ctx context.Context, r store.CreateInvitationRequest) (models.Invitation, error)
	RotateInvitation(ctx context.Context, r store.RotateInvitationRequest) (models.Invitation, error)
	FindLiveInvitation(ctx context.Context, tokenHash string) (models.Invitation, error)
	ListInvitations(ctx context.Context) ([]models.Invitation, error)
	ConsumeInvitation(ctx context.Context, r store.ConsumeInvitationRequest) (models.Account, error)
}

// Dispatcher delivers invitation emails.
type Dispatcher interface {
	SendInvitation(ctx context.Context, inv notify.Invitation) error
}

// SessionIssuer signs a session for a freshly registered account.
type SessionIssuer interface {
	Session(acc models.Account) (auth.LoginResponse, error)
}

type Config struct {
	TTL         time.Duration
	FrontendURL *url.URL
}

type Service struct {
	ledger   Ledger
	mail     Dispatcher
	sessions SessionIssuer
	ttl      time.Duration
	frontend *url.URL
	now      func() time.Time
}

func NewService(ledger Ledger, mail Dispatcher, sessions SessionIssuer, cfg Config) *Service {
	return &Service{
		ledger:   ledger,
		mail:     mail,
		sessions: sessions,
		ttl:      cfg.TTL,
		frontend: cfg.FrontendURL,
		now:      time.Now,
	}
}

type InviteRequest struct {
	Email     string `json:"email"`
	InvitedBy string `json:"-"`
}

func (r InviteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type InviteResponse struct {
	Message   string    `json:"message"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Invite issues a single-use invitation and emails its link. The invitation
// is persisted before delivery, so a delivery failure leaves it in place for
// Resend.
func (s *Service) Invite(ctx context.Context, r InviteRequest) (InviteResponse, error) {
	r.Email = auth.NormalizeEmail(r.Email)
	if err := r.Validate(); err != nil {
		return InviteResponse{}, serr.Validation(err, "%v", err)
	}

	taken, err := s.ledger.EmailTaken(ctx, r.Email)
	if err != nil {
		return InviteResponse{}, serr.Internal(err, "check email")
	}
	if taken {
		return InviteResponse{}, serr.Conflict(nil, "an account with this email already exists").With("email", r.Email)
	}

	tok, hash, err := token.NewInvitation()
	if err != nil {
		return InviteResponse{}, serr.Internal(err, "generate invitation token")
	}

	inv, err := s.ledger.CreateInvitation(ctx, store.CreateInvitationRequest{
		Email:     r.Email,
		TokenHash: hash,
		InvitedBy: r.InvitedBy,
		TTL:       s.ttl,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return InviteResponse{}, serr.Conflict(err, "an invitation is already pending for this email").With("email", r.Email)
		}
		return InviteResponse{}, serr.Internal(err, "save invitation")
	}

	if err := s.dispatch(ctx, inv, tok); err != nil {
		return InviteResponse{}, err
	}

	return InviteResponse{Message: "invitation sent", Email: inv.Email, ExpiresAt: inv.ExpiresAt}, nil
}

type ResendRequest struct {
	Email string `json:"email"`
}

func (r ResendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// Resend rotates the token of an outstanding invitation, restarts its
// lifetime and emails the new link. Earlier links stop working.
func (s *Service) Resend(ctx context.Context, r ResendRequest) (InviteResponse, error) {
	r.Email = auth.NormalizeEmail(r.Email)
	if err := r.Validate(); err != nil {
		return InviteResponse{}, serr.Validation(err, "%v", err)
	}

	taken, err := s.ledger.EmailTaken(ctx, r.Email)
	if err != nil {
		return InviteResponse{}, serr.Internal(err, "check email")
	}
	if taken {
		return InviteResponse{}, serr.Conflict(nil, "an account with this email already exists").With("email", r.Email)
	}

	tok, hash, err := token.NewInvitation()
	if err != nil {
		return InviteResponse{}, serr.Internal(err, "generate invitation token")
	}

	inv, err := s.ledger.RotateInvitation(ctx, store.RotateInvitationRequest{
		Email:     r.Email,
		TokenHash: hash,
		TTL:       s.ttl,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InviteResponse{}, serr.NotFound(err, "no invitation for this email").With("email", r.Email)
		}
		return InviteResponse{}, serr.Internal(err, "rotate invitation")
	}

	if err := s.dispatch(ctx, inv, tok); err != nil {
		return InviteResponse{}, err
	}

	return InviteResponse{Message: "invitation re-sent", Email: inv.Email, ExpiresAt: inv.ExpiresAt}, nil
}

func (s *Service) dispatch(ctx context.Context, inv models.Invitation, tok string) error {
	err := s.mail.SendInvitation(ctx, notify.Invitation{
		To:        inv.Email,
		Link:      s.link(tok),
		ExpiresAt: inv.ExpiresAt,
	})
	if err != nil {
		return serr.Internal(err, "invitation saved but email delivery failed").With("email", inv.Email).Expose()
	}
	return nil
}

// link is ${FRONTEND_URL}/register?token=<token>.
func (s *Service) link(tok string) string {
	u := s.frontend.JoinPath("register")
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()
	return u.String()
}

type VerifyResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Verify reports the email bound to a live invitation token without
// consuming it.
func (s *Service) Verify(ctx context.Context, tok string) (VerifyResponse, error) {
	if tok == "" {
		return VerifyResponse{}, serr.InvalidOrExpired(nil)
	}

	inv, err := s.ledger.FindLiveInvitation(ctx, token.Hash(tok))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return VerifyResponse{}, serr.InvalidOrExpired(err)
		}
		return VerifyResponse{}, serr.Internal(err, "find invitation")
	}

	return VerifyResponse{Email: inv.Email, ExpiresAt: inv.ExpiresAt}, nil
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Token    string `json:"token"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(auth.MinPasswordLength, 200)),
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.Token, validation.Required),
	)
}

type RegisterResponse struct {
	Message string `json:"message"`
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
}

// Register consumes the invitation and creates the admin account atomically.
// Exactly one of any number of concurrent registrations with the same token
// succeeds.
func (s *Service) Register(ctx context.Context, r RegisterRequest) (RegisterResponse, error) {
	r.Email = auth.NormalizeEmail(r.Email)
	if err := r.Validate(); err != nil {
		return RegisterResponse{}, serr.Validation(err, "%v", err)
	}

	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return RegisterResponse{}, serr.Internal(err, "hash password")
	}

	acc, err := s.consume(ctx, r.Token, store.CreateAccountRequest{
		Role:         models.RoleAdmin,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: hash,
	})
	if err != nil {
		return RegisterResponse{}, err
	}

	return RegisterResponse{Message: "admin registered", AdminID: acc.ID, Email: acc.Email}, nil
}

// RegisterWithIdentity consumes the invitation for an admin authenticated by
// an external identity provider. The provider's verified email must match the
// invited email. The account has no password.
func (s *Service) RegisterWithIdentity(ctx context.Context, tok string, id oauth.Identity) (auth.LoginResponse, error) {
	email := auth.NormalizeEmail(id.VerifiedEmail())
	if email == "" {
		return auth.LoginResponse{}, serr.Forbidden(nil, "identity provider did not verify the email address")
	}

	acc, err := s.consume(ctx, tok, store.CreateAccountRequest{
		Role:  models.RoleAdmin,
		Email: email,
		Name:  id.Name,
	})
	if err != nil {
		return auth.LoginResponse{}, err
	}

	return s.sessions.Session(acc)
}

func (s *Service) consume(ctx context.Context, tok string, acc store.CreateAccountRequest) (models.Account, error) {
	if tok == "" {
		return models.Account{}, serr.InvalidOrExpired(nil)
	}

	created, err := s.ledger.ConsumeInvitation(ctx, store.ConsumeInvitationRequest{
		TokenHash: token.Hash(tok),
		Email:     acc.Email,
		Account:   acc,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return models.Account{}, serr.InvalidOrExpired(err)
		case errors.Is(err, store.ErrConflict):
			return models.Account{}, serr.Conflict(err, "an account with this email already exists").With("email", acc.Email)
		}
		return models.Account{}, serr.Internal(err, "consume invitation")
	}

	slog.Info("invitation consumed", "email", created.Email, "admin_id", created.ID)
	return created, nil
}

// PendingInvitation is an outstanding invitation as shown to SuperAdmins.
type PendingInvitation struct {
	Email     string    `json:"email"`
	InvitedBy string    `json:"invited_by,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

func (s *Service) Pending(ctx context.Context) ([]PendingInvitation, error) {
	invs, err := s.ledger.ListInvitations(ctx)
	if err != nil {
		return nil, serr.Internal(err, "list invitations")
	}

	now := s.now()
	out := make([]PendingInvitation, 0, len(invs))
	for _, inv := range invs {
		out = append(out, PendingInvitation{
			Email:     inv.Email,
			InvitedBy: inv.InvitedBy,
			IssuedAt:  inv.IssuedAt,
			ExpiresAt: inv.ExpiresAt,
			Expired:   inv.Expired(now),
		})
	}
	return out, nil
}
