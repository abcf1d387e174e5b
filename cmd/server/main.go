package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/techdict/backend/internal/analytics"
	"github.com/techdict/backend/internal/auth"
	"github.com/techdict/backend/internal/config"
	"github.com/techdict/backend/internal/dictionary"
	"github.com/techdict/backend/internal/httpx"
	"github.com/techdict/backend/internal/invitation"
	"github.com/techdict/backend/internal/middleware"
	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/notify"
	"github.com/techdict/backend/internal/oauth"
	"github.com/techdict/backend/internal/requests"
	"github.com/techdict/backend/internal/store"
	"github.com/techdict/backend/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// ── PostgreSQL ────────────────────────────────────────────
	pool, err := store.NewPool(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	pgStore := store.NewPostgresStore(pool)
	if err := pgStore.Migrate(ctx); err != nil {
		return err
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Warn("mongo disconnect", "error", err)
		}
	}()
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		return err
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	dailyPicks := store.NewDailyCache(rdb, "wotd")
	oauthStates := store.NewStateStore(rdb, "oauth")

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		return err
	}

	// ── Sessions and mail ────────────────────────────────────
	sessions := token.NewJWT(token.JWTConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.SessionTTL,
	})
	mailer, err := notify.NewMailer(cfg.Mail)
	if err != nil {
		return err
	}

	// ── Delegated identity ───────────────────────────────────
	var flow *oauth.Flow
	if cfg.OAuth.Enabled() {
		google, err := oauth.NewGoogle(ctx, oauth.GoogleConfig{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
		})
		if err != nil {
			return err
		}
		flow = oauth.NewFlow(google, oauthStates)
	}

	// ── Services ─────────────────────────────────────────────
	authSrv := auth.NewService(pgStore, sessions)
	inviteSrv := invitation.NewService(pgStore, mailer, authSrv, invitation.Config{
		TTL:         cfg.InvitationTTL,
		FrontendURL: cfg.FrontendURL,
	})
	dictSrv := dictionary.NewService(pgStore, mongoStore, dailyPicks, minioStore, dictionary.Config{
		TopLookupsTTL: cfg.TopLookupsCacheTTL,
	})
	defer dictSrv.Close()
	requestSrv := requests.NewService(pgStore)
	analyticsSrv := analytics.NewService(pgStore, mongoStore)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(authSrv)
	inviteHandler := invitation.NewHandler(inviteSrv, nil)
	dictHandler := dictionary.NewHandler(dictSrv)
	requestHandler := requests.NewHandler(requestSrv)
	analyticsHandler := analytics.NewHandler(analyticsSrv)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LogWith(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL.String()},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusOK, "ok")
	})

	requireAuth := middleware.RequireAuth(sessions)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.With(requireAuth).Get("/account", authHandler.Account)
	})

	r.Route("/api/invitations", func(r chi.Router) {
		r.Get("/verify", inviteHandler.Verify)
		r.Post("/register", inviteHandler.Register)
	})

	// Delegated identity routes exist only when the provider is configured.
	if flow != nil {
		oauthHandler := invitation.NewHandler(inviteSrv, flow)
		r.Get("/oauth", oauthHandler.OAuthStart)
		r.Get("/oauth/callback", oauthHandler.OAuthCallback)
	}

	r.Route("/api/superadmin", func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireRole(models.RoleSuperAdmin))
		r.Get("/dashboard", analyticsHandler.SuperAdminDashboard)
		r.Get("/admins", authHandler.ListAdmins)
		r.Post("/admins", inviteHandler.Invite)
		r.Post("/admins/resend", inviteHandler.Resend)
		r.Delete("/admins/{id}", authHandler.DeleteAdmin)
		r.Get("/invitations", inviteHandler.Pending)
		r.Get("/analytics", analyticsHandler.Overview)
		r.Get("/analytics/words", analyticsHandler.Words)
		r.Get("/analytics/requests", analyticsHandler.Requests)
		r.Get("/analytics/activity", analyticsHandler.Activity)
		r.Get("/words", dictHandler.List)
		r.Get("/requests", requestHandler.List)
		r.Post("/exports/words", dictHandler.Export)
		r.Get("/exports/{key}", dictHandler.Download)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireRole(models.RoleAdmin))
		r.Get("/dashboard", analyticsHandler.AdminDashboard)
		r.Get("/words", dictHandler.List)
		r.Post("/words", dictHandler.Add)
		r.Get("/words/{id}", dictHandler.Get)
		r.Put("/words/{id}", dictHandler.Update)
		r.Delete("/words/{id}", dictHandler.Delete)
		r.Get("/requests", requestHandler.List)
		r.Get("/requests/{id}", requestHandler.Get)
		r.Put("/requests/{id}", requestHandler.UpdateStatus)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/search", dictHandler.Search)
		r.Get("/word-of-the-day", dictHandler.WordOfTheDay)
		r.Get("/top-lookups", dictHandler.TopLookups)
		r.Get("/recently-added", dictHandler.RecentlyAdded)
		r.Get("/words/{id}", dictHandler.Get)
		r.Post("/words/suggestions", dictHandler.Suggest)
		r.Post("/words/{id}/change-requests", requestHandler.RequestChange)
		r.Post("/requests", requestHandler.Submit)
		r.Post("/requests/new", requestHandler.RequestNew)
		r.Get("/requests", requestHandler.List)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("backend listening", "port", cfg.Port, "oauth", cfg.OAuth.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
