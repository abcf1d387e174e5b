package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
	"github.com/techdict/backend/internal/store"
	"github.com/techdict/backend/internal/token"
)

func init() {
	hashCost = bcrypt.MinCost
}

type mockAccountStore struct {
	mock.Mock
}

func (m *mockAccountStore) CreateAccount(ctx context.Context, r store.CreateAccountRequest) (models.Account, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *mockAccountStore) FindAccountByEmail(ctx context.Context, role models.Role, email string) (models.Account, error) {
	args := m.Called(ctx, role, email)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *mockAccountStore) FindAccountByID(ctx context.Context, role models.Role, id string) (models.Account, error) {
	args := m.Called(ctx, role, id)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *mockAccountStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountStore) FindInvitationByEmail(ctx context.Context, email string) (models.Invitation, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.Invitation), args.Error(1)
}

func (m *mockAccountStore) ListAccounts(ctx context.Context, role models.Role) ([]models.Account, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *mockAccountStore) DeleteAccount(ctx context.Context, role models.Role, id string) error {
	args := m.Called(ctx, role, id)
	return args.Error(0)
}

var testJWT = token.NewJWT(token.JWTConfig{Secret: "secret", Issuer: "test", TTL: time.Hour})

func account(t *testing.T, role models.Role, email, password string) models.Account {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return models.Account{ID: "11111111-1111-1111-1111-111111111111", Email: email, Role: role, PasswordHash: hash}
}

func TestLogin_ProbeOrder(t *testing.T) {
	cases := []struct {
		name string
		role models.Role
	}{
		{"superadmin", models.RoleSuperAdmin},
		{"admin", models.RoleAdmin},
		{"user", models.RoleUser},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			st := &mockAccountStore{}
			for _, role := range loginOrder {
				if role == tc.role {
					st.On("FindAccountByEmail", ctx, role, "a@example.com").
						Return(account(t, role, "a@example.com", "password1"), nil).Once()
					break
				}
				st.On("FindAccountByEmail", ctx, role, "a@example.com").
					Return(models.Account{}, store.ErrNotFound).Once()
			}

			resp, err := NewService(st, testJWT).Login(ctx, LoginRequest{Email: " A@Example.com ", Password: "password1"})
			require.NoError(t, err)
			assert.Equal(t, tc.role, resp.Role)

			p, err := testJWT.Verify(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, tc.role, p.Role)
			assert.Equal(t, "a@example.com", p.Email)
			st.AssertExpectations(t)
		})
	}
}

func TestLogin_WrongPasswordDoesNotFallThrough(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("FindAccountByEmail", ctx, models.RoleSuperAdmin, "a@example.com").
		Return(account(t, models.RoleSuperAdmin, "a@example.com", "password1"), nil).Once()

	_, err := NewService(st, testJWT).Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, serr.KindInvalidCredentials, serr.KindOf(err))

	st.AssertExpectations(t)
	st.AssertNotCalled(t, "FindAccountByEmail", ctx, models.RoleAdmin, "a@example.com")
}

func TestLogin_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("FindAccountByEmail", ctx, mock.Anything, "nobody@example.com").Return(models.Account{}, store.ErrNotFound)

	_, err := NewService(st, testJWT).Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password1"})
	require.Error(t, err)
	assert.Equal(t, serr.KindInvalidCredentials, serr.KindOf(err))
	assert.Equal(t, "invalid credentials", err.(*serr.ServiceError).Msg)
	st.AssertNumberOfCalls(t, "FindAccountByEmail", 3)
}

func TestLogin_PasswordlessAccount(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("FindAccountByEmail", ctx, models.RoleSuperAdmin, "a@example.com").Return(models.Account{}, store.ErrNotFound)
	st.On("FindAccountByEmail", ctx, models.RoleAdmin, "a@example.com").
		Return(models.Account{ID: "x", Email: "a@example.com", Role: models.RoleAdmin}, nil)

	_, err := NewService(st, testJWT).Login(ctx, LoginRequest{Email: "a@example.com", Password: ""})
	assert.Equal(t, serr.KindValidation, serr.KindOf(err))

	_, err = NewService(st, testJWT).Login(ctx, LoginRequest{Email: "a@example.com", Password: "anything"})
	assert.Equal(t, serr.KindInvalidCredentials, serr.KindOf(err))
}

func TestLogin_StoreFailure(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("FindAccountByEmail", ctx, models.RoleSuperAdmin, "a@example.com").Return(models.Account{}, errors.New("connection reset"))

	_, err := NewService(st, testJWT).Login(ctx, LoginRequest{Email: "a@example.com", Password: "password1"})
	assert.Equal(t, serr.KindInternal, serr.KindOf(err))
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("EmailTaken", ctx, "u@example.com").Return(false, nil)
	st.On("FindInvitationByEmail", ctx, "u@example.com").Return(models.Invitation{}, store.ErrNotFound)
	st.On("CreateAccount", ctx, mock.MatchedBy(func(r store.CreateAccountRequest) bool {
		return r.Role == models.RoleUser && r.Email == "u@example.com" && ComparePassword(r.PasswordHash, "password1") == nil
	})).Return(models.Account{ID: "id", Email: "u@example.com", Role: models.RoleUser}, nil)

	acc, err := NewService(st, testJWT).RegisterUser(ctx, RegisterUserRequest{Name: "U", Email: "U@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, acc.Role)
	st.AssertExpectations(t)
}

func TestRegisterUser_Invalid(t *testing.T) {
	st := &mockAccountStore{}
	srv := NewService(st, testJWT)

	cases := []RegisterUserRequest{
		{Name: "U", Email: "not-an-email", Password: "password1"},
		{Name: "U", Email: "u@example.com", Password: "short"},
		{Email: "u@example.com", Password: "password1"},
	}
	for _, r := range cases {
		_, err := srv.RegisterUser(context.Background(), r)
		assert.Equal(t, serr.KindValidation, serr.KindOf(err), "%+v", r)
	}
	st.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
}

func TestRegisterUser_Taken(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("EmailTaken", ctx, "u@example.com").Return(true, nil)

	_, err := NewService(st, testJWT).RegisterUser(ctx, RegisterUserRequest{Name: "U", Email: "u@example.com", Password: "password1"})
	assert.Equal(t, serr.KindConflict, serr.KindOf(err))
}

func TestRegisterUser_PendingInvitation(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("EmailTaken", ctx, "u@example.com").Return(false, nil)
	st.On("FindInvitationByEmail", ctx, "u@example.com").
		Return(models.Invitation{Email: "u@example.com", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	_, err := NewService(st, testJWT).RegisterUser(ctx, RegisterUserRequest{Name: "U", Email: "u@example.com", Password: "password1"})
	assert.Equal(t, serr.KindConflict, serr.KindOf(err))
	st.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
}

func TestRegisterUser_ExpiredInvitation(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("EmailTaken", ctx, "u@example.com").Return(false, nil)
	st.On("FindInvitationByEmail", ctx, "u@example.com").
		Return(models.Invitation{Email: "u@example.com", ExpiresAt: time.Now().Add(-time.Minute)}, nil)
	st.On("CreateAccount", ctx, mock.Anything).Return(models.Account{ID: "id", Role: models.RoleUser}, nil)

	_, err := NewService(st, testJWT).RegisterUser(ctx, RegisterUserRequest{Name: "U", Email: "u@example.com", Password: "password1"})
	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestAccount_NotFound(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("FindAccountByID", ctx, models.RoleAdmin, "gone").Return(models.Account{}, store.ErrNotFound)

	_, err := NewService(st, testJWT).Account(ctx, models.Principal{ID: "gone", Role: models.RoleAdmin})
	assert.Equal(t, serr.KindNotFound, serr.KindOf(err))
}

func TestListAdmins_Empty(t *testing.T) {
	ctx := context.Background()
	st := &mockAccountStore{}
	st.On("ListAccounts", ctx, models.RoleAdmin).Return([]models.Account(nil), nil)

	admins, err := NewService(st, testJWT).ListAdmins(ctx)
	require.NoError(t, err)
	assert.NotNil(t, admins)
	assert.Empty(t, admins)
}

func TestDeleteAdmin(t *testing.T) {
	ctx := context.Background()
	id := "11111111-1111-1111-1111-111111111111"
	st := &mockAccountStore{}
	st.On("DeleteAccount", ctx, models.RoleAdmin, id).Return(nil).Once()
	st.On("DeleteAccount", ctx, models.RoleAdmin, id).Return(store.ErrNotFound).Once()
	srv := NewService(st, testJWT)

	require.NoError(t, srv.DeleteAdmin(ctx, id))
	assert.Equal(t, serr.KindNotFound, serr.KindOf(srv.DeleteAdmin(ctx, id)))
	assert.Equal(t, serr.KindValidation, serr.KindOf(srv.DeleteAdmin(ctx, "not-a-uuid")))
	st.AssertNumberOfCalls(t, "DeleteAccount", 2)
}
