package store

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/techdict/backend/internal/models"
)

var (
	testPool  *pgxpool.Pool
	testRedis *redis.Client
)

func startContainer(ctx context.Context, req testcontainers.ContainerRequest) (testcontainers.Container, error) {
	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := startContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		log.Printf("postgres container unavailable: %v", err)
	} else {
		defer func() { _ = pg.Terminate(context.Background()) }()

		host, err := pg.Host(ctx)
		if err != nil {
			log.Fatalf("failed to get postgres host: %v", err)
		}
		port, err := pg.MappedPort(ctx, "5432/tcp")
		if err != nil {
			log.Fatalf("failed to get postgres port: %v", err)
		}

		testPool, err = NewPool(ctx, fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port()), 10)
		if err != nil {
			log.Fatalf("failed to open pool: %v", err)
		}
		defer testPool.Close()

		if err := NewPostgresStore(testPool).Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	rc, err := startContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:8.4-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Printf("redis container unavailable: %v", err)
	} else {
		defer func() { _ = rc.Terminate(context.Background()) }()

		host, err := rc.Host(ctx)
		if err != nil {
			log.Fatalf("failed to get redis host: %v", err)
		}
		port, err := rc.MappedPort(ctx, "6379/tcp")
		if err != nil {
			log.Fatalf("failed to get redis port: %v", err)
		}

		testRedis, err = NewRedisClient(ctx, host+":"+port.Port(), "", 0)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer testRedis.Close()
	}

	code := m.Run()
	cancel()
	os.Exit(code)
}

func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testPool == nil {
		t.Skip("postgres not available")
	}

	_, err := testPool.Exec(t.Context(),
		`TRUNCATE account_emails, superadmins, admins, users, invitations, words, requests RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return NewPostgresStore(testPool)
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testRedis == nil {
		t.Skip("redis not available")
	}
	require.NoError(t, testRedis.FlushDB(t.Context()).Err())
	return testRedis
}

func invite(t *testing.T, s *PostgresStore, email, hash string, ttl time.Duration) models.Invitation {
	t.Helper()
	inv, err := s.CreateInvitation(t.Context(), CreateInvitationRequest{
		Email:     email,
		TokenHash: hash,
		TTL:       ttl,
	})
	require.NoError(t, err)
	return inv
}

func TestCreateInvitation(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	inv := invite(t, s, "a@example.com", "hash-1", time.Hour)
	assert.Equal(t, "a@example.com", inv.Email)
	assert.WithinDuration(t, inv.IssuedAt.Add(time.Hour), inv.ExpiresAt, time.Second)

	_, err := s.CreateInvitation(ctx, CreateInvitationRequest{Email: "a@example.com", TokenHash: "hash-2", TTL: time.Hour})
	require.ErrorIs(t, err, ErrConflict)
}

func TestCreateInvitation_ReplacesExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	invite(t, s, "a@example.com", "old", -time.Second)
	invite(t, s, "a@example.com", "new", time.Hour)

	_, err := s.FindLiveInvitation(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)

	inv, err := s.FindLiveInvitation(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", inv.Email)
}

func TestRotateInvitation(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	invite(t, s, "a@example.com", "old", -time.Second)

	inv, err := s.RotateInvitation(ctx, RotateInvitationRequest{Email: "a@example.com", TokenHash: "new", TTL: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, "new", inv.TokenHash)

	_, err = s.FindLiveInvitation(ctx, "new")
	require.NoError(t, err)

	_, err = s.RotateInvitation(ctx, RotateInvitationRequest{Email: "b@example.com", TokenHash: "x", TTL: time.Hour})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeInvitation(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	invite(t, s, "a@example.com", "hash", time.Hour)

	req := ConsumeInvitationRequest{
		TokenHash: "hash",
		Email:     "a@example.com",
		Account:   CreateAccountRequest{Role: models.RoleAdmin, Name: "Ada", PasswordHash: "pw"},
	}
	acc, err := s.ConsumeInvitation(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", acc.Email)
	assert.Equal(t, models.RoleAdmin, acc.Role)
	assert.NotEmpty(t, acc.ID)

	_, err = s.ConsumeInvitation(ctx, req)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindInvitationByEmail(ctx, "a@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeInvitation_Expired(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	invite(t, s, "a@example.com", "hash", -time.Second)

	_, err := s.ConsumeInvitation(ctx, ConsumeInvitationRequest{
		TokenHash: "hash",
		Email:     "a@example.com",
		Account:   CreateAccountRequest{Role: models.RoleAdmin, Name: "Ada"},
	})
	require.ErrorIs(t, err, ErrNotFound)

	n, err := s.CountAccounts(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConsumeInvitation_WrongEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	invite(t, s, "a@example.com", "hash", time.Hour)

	_, err := s.ConsumeInvitation(ctx, ConsumeInvitationRequest{
		TokenHash: "hash",
		Email:     "b@example.com",
		Account:   CreateAccountRequest{Role: models.RoleAdmin, Name: "Bob"},
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindLiveInvitation(ctx, "hash")
	require.NoError(t, err)
}

func TestConsumeInvitation_EmailTakenRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	_, err := s.CreateAccount(ctx, CreateAccountRequest{Role: models.RoleAdmin, Email: "a@example.com", Name: "Ada"})
	require.NoError(t, err)
	invite(t, s, "a@example.com", "hash", time.Hour)

	_, err = s.ConsumeInvitation(ctx, ConsumeInvitationRequest{
		TokenHash: "hash",
		Email:     "a@example.com",
		Account:   CreateAccountRequest{Role: models.RoleAdmin, Name: "Ada"},
	})
	require.ErrorIs(t, err, ErrConflict)

	_, err = s.FindLiveInvitation(ctx, "hash")
	require.NoError(t, err, "invitation must survive a failed registration")
}

func TestConsumeInvitation_EmailHeldByOtherRole(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	invite(t, s, "a@example.com", "hash", time.Hour)
	_, err := s.CreateAccount(ctx, CreateAccountRequest{Role: models.RoleUser, Email: "A@example.com", Name: "Ada"})
	require.NoError(t, err)

	_, err = s.ConsumeInvitation(ctx, ConsumeInvitationRequest{
		TokenHash: "hash",
		Email:     "a@example.com",
		Account:   CreateAccountRequest{Role: models.RoleAdmin, Name: "Ada"},
	})
	require.ErrorIs(t, err, ErrConflict)

	n, err := s.CountAccounts(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.FindLiveInvitation(ctx, "hash")
	require.NoError(t, err)
}

func TestCreateAccount_EmailUniqueAcrossRoles(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	admin, err := s.CreateAccount(ctx, CreateAccountRequest{Role: models.RoleAdmin, Email: "a@example.com"})
	require.NoError(t, err)

	for _, role := range []models.Role{models.RoleSuperAdmin, models.RoleUser} {
		_, err := s.CreateAccount(ctx, CreateAccountRequest{Role: role, Email: "A@EXAMPLE.com"})
		require.ErrorIs(t, err, ErrConflict, "role %s", role)
	}

	require.NoError(t, s.DeleteAccount(ctx, models.RoleAdmin, admin.ID))

	taken, err := s.EmailTaken(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = s.CreateAccount(ctx, CreateAccountRequest{Role: models.RoleUser, Email: "a@example.com"})
	require.NoError(t, err)
}

func TestConsumeInvitation_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	invite(t, s, "a@example.com", "hash", time.Hour)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		missed  int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ConsumeInvitation(ctx, ConsumeInvitationRequest{
				TokenHash: "hash",
				Email:     "a@example.com",
				Account:   CreateAccountRequest{Role: models.RoleAdmin, Name: fmt.Sprintf("worker-%d", i)},
			})

			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				success++
			case ErrNotFound:
				missed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, missed)

	n, err := s.CountAccounts(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	acc, err := s.CreateAccount(ctx, CreateAccountRequest{Role: models.RoleUser, Email: "U@Example.com", Name: "U"})
	require.NoError(t, err)

	_, err = s.CreateAccount(ctx, CreateAccountRequest{Role: models.RoleUser, Email: "u@example.com", Name: "U2"})
	require.ErrorIs(t, err, ErrConflict)

	found, err := s.FindAccountByEmail(ctx, models.RoleUser, "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, found.ID)

	taken, err := s.EmailTaken(ctx, "u@EXAMPLE.com")
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = s.FindAccountByEmail(ctx, models.RoleAdmin, "u@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteAccount(ctx, models.RoleUser, acc.ID))
	require.ErrorIs(t, s.DeleteAccount(ctx, models.RoleUser, acc.ID), ErrNotFound)
}

func TestWords(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	w, err := s.CreateWord(ctx, CreateWordRequest{
		WordFields: WordFields{Term: "Mutex", Class: "noun", Meaning: "lock", History: "1960s"},
		Status:     models.WordActive,
	})
	require.NoError(t, err)
	assert.Zero(t, w.LookupCount)

	_, err = s.CreateWord(ctx, CreateWordRequest{
		WordFields: WordFields{Term: "100%_done", Class: "adj", Meaning: "finished", History: "-"},
		Status:     models.WordActive,
	})
	require.NoError(t, err)

	found, err := s.SearchWords(ctx, "mut")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.EqualValues(t, 1, found[0].LookupCount)

	found, err = s.SearchWords(ctx, "%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100%_done", found[0].Term)

	pending := models.WordPending
	upd, err := s.UpdateWord(ctx, UpdateWordRequest{
		ID:         w.ID,
		WordFields: WordFields{Term: "Mutex", Class: "noun", Meaning: "mutual exclusion", History: "1960s"},
		Status:     &pending,
	})
	require.NoError(t, err)
	assert.Equal(t, models.WordPending, upd.Status)
	assert.EqualValues(t, 1, upd.LookupCount)

	active := models.WordActive
	list, err := s.ListWords(ctx, ListWordsRequest{Status: &active})
	require.NoError(t, err)
	require.Len(t, list, 1)

	top, err := s.TopLookups(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)

	require.NoError(t, s.DeleteWord(ctx, w.ID))
	_, err = s.GetWord(ctx, w.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRandomWord_Empty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RandomWord(t.Context(), models.WordActive)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSuggestWord(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	w, req, err := s.SuggestWord(ctx, CreateWordRequest{
		WordFields: WordFields{Term: "Goroutine", Class: "noun", Meaning: "green thread", History: "2009"},
	}, "please add")
	require.NoError(t, err)
	assert.Equal(t, models.WordPending, w.Status)
	assert.Equal(t, models.RequestNew, req.Type)
	assert.Equal(t, models.RequestPending, req.Status)
	require.NotNil(t, req.WordID)
	assert.Equal(t, w.ID, *req.WordID)

	pending := models.RequestPending
	list, err := s.ListRequests(ctx, ListRequestsRequest{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	resolved, err := s.UpdateRequestStatus(ctx, UpdateRequestStatusRequest{ID: req.ID, Status: models.RequestResolved})
	require.NoError(t, err)
	assert.Equal(t, models.RequestResolved, resolved.Status)

	avg, err := s.AvgResolveSeconds(ctx)
	require.NoError(t, err)
	require.NotNil(t, avg)

	byStatus, err := s.RequestsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Count{{Key: "Resolved", Count: 1}}, byStatus)
}

func TestDailyCache(t *testing.T) {
	rdb := newTestRedis(t)
	c := NewDailyCache(rdb, "wotd")
	ctx := t.Context()

	_, ok, err := c.Get(ctx, "2026-01-01")
	require.NoError(t, err)
	assert.False(t, ok)

	id, err := c.Pin(ctx, "2026-01-01", 7, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	id, err = c.Pin(ctx, "2026-01-01", 9, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id, "first pin wins")

	require.NoError(t, c.Unpin(ctx, "2026-01-01"))
	_, ok, err = c.Get(ctx, "2026-01-01")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateStore(t *testing.T) {
	rdb := newTestRedis(t)
	s := NewStateStore(rdb, "oauth")
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "state", "invite-hash", time.Minute))
	require.ErrorIs(t, s.Save(ctx, "state", "other", time.Minute), ErrConflict)

	val, err := s.Take(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, "invite-hash", val)

	_, err = s.Take(ctx, "state")
	require.ErrorIs(t, err, ErrNotFound)
}
