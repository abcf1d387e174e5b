package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
	"github.com/techdict/backend/internal/store"
)

// AccountStore is the credential store used for login and account management.
type AccountStore interface {
	CreateAccount(ctx context.Context, r store.CreateAccountRequest) (models.Account, error)
	FindAccountByEmail(ctx context.Context, role models.Role, email string) (models.Account, error)
	FindAccountByID(ctx context.Context, role models.Role, id string) (models.Account, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	FindInvitationByEmail(ctx context.Context, email string) (models.Invitation, error)
	ListAccounts(ctx context.Context, role models.Role) ([]models.Account, error)
	DeleteAccount(ctx context.Context, role models.Role, id string) error
}

// TokenIssuer signs session credentials.
type TokenIssuer interface {
	Issue(p models.Principal) (string, time.Time, error)
}

// loginOrder is the order role tables are probed in. The first table holding
// the email decides the outcome.
var loginOrder = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleUser}

type Service struct {
	store  AccountStore
	tokens TokenIssuer
}

func NewService(store AccountStore, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type LoginResponse struct {
	Token     string      `json:"token"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Login authenticates against SuperAdmin, Admin and User accounts in that
// order and issues a session credential for the matching role.
func (s *Service) Login(ctx context.Context, r LoginRequest) (LoginResponse, error) {
	r.Email = NormalizeEmail(r.Email)
	if err := r.Validate(); err != nil {
		return LoginResponse{}, serr.Validation(err, "%v", err)
	}

	for _, role := range loginOrder {
		acc, err := s.store.FindAccountByEmail(ctx, role, r.Email)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return LoginResponse{}, serr.Internal(err, "find %s account", role)
		}

		if err := ComparePassword(acc.PasswordHash, r.Password); err != nil {
			return LoginResponse{}, serr.InvalidCredentials(err)
		}
		return s.Session(acc)
	}

	_ = ComparePassword(string(dummyHash()), r.Password)
	return LoginResponse{}, serr.InvalidCredentials(nil)
}

// Session issues a credential for an already authenticated account.
func (s *Service) Session(acc models.Account) (LoginResponse, error) {
	tok, exp, err := s.tokens.Issue(models.Principal{ID: acc.ID, Email: acc.Email, Role: acc.Role})
	if err != nil {
		return LoginResponse{}, serr.Internal(err, "issue session")
	}
	return LoginResponse{Token: tok, Role: acc.Role, ExpiresAt: exp}, nil
}

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, 200)),
	)
}

// RegisterUser creates a general user account. Emails are unique across all
// roles.
func (s *Service) RegisterUser(ctx context.Context, r RegisterUserRequest) (models.Account, error) {
	r.Email = NormalizeEmail(r.Email)
	if err := r.Validate(); err != nil {
		return models.Account{}, serr.Validation(err, "%v", err)
	}

	taken, err := s.store.EmailTaken(ctx, r.Email)
	if err != nil {
		return models.Account{}, serr.Internal(err, "check email")
	}
	if taken {
		return models.Account{}, serr.Conflict(nil, "account already exists").With("email", r.Email)
	}

	// An admin invitation reserves the email until it expires.
	inv, err := s.store.FindInvitationByEmail(ctx, r.Email)
	switch {
	case err == nil && !inv.Expired(time.Now()):
		return models.Account{}, serr.Conflict(nil, "email has a pending invitation").With("email", r.Email)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return models.Account{}, serr.Internal(err, "check invitation")
	}

	hash, err := HashPassword(r.Password)
	if err != nil {
		return models.Account{}, serr.Internal(err, "hash password")
	}

	acc, err := s.store.CreateAccount(ctx, store.CreateAccountRequest{
		Role:         models.RoleUser,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.Account{}, serr.Conflict(err, "account already exists").With("email", r.Email)
		}
		return models.Account{}, serr.Internal(err, "create user")
	}

	return acc, nil
}

// Account returns the stored account behind an authenticated principal.
func (s *Service) Account(ctx context.Context, p models.Principal) (models.Account, error) {
	acc, err := s.store.FindAccountByID(ctx, p.Role, p.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Account{}, serr.NotFound(err, "account not found").With("account_id", p.ID)
		}
		return models.Account{}, serr.Internal(err, "find account")
	}
	return acc, nil
}

func (s *Service) ListAdmins(ctx context.Context) ([]models.Account, error) {
	admins, err := s.store.ListAccounts(ctx, models.RoleAdmin)
	if err != nil {
		return nil, serr.Internal(err, "list admins")
	}
	if admins == nil {
		admins = []models.Account{}
	}
	return admins, nil
}

func (s *Service) DeleteAdmin(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return serr.Validation(err, "invalid admin id %q", id)
	}

	if err := s.store.DeleteAccount(ctx, models.RoleAdmin, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return serr.NotFound(err, "admin not found").With("admin_id", id)
		}
		return serr.Internal(err, "delete admin")
	}
	return nil
}
