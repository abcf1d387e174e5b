package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/techdict/backend/internal/env"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port            string
	LogLevel        slog.Level
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	PostgresDSN string
	DBMaxConns  int32

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret     string
	JWTIssuer     string
	SessionTTL    time.Duration
	InvitationTTL time.Duration

	FrontendURL *url.URL

	Mail  MailConfig
	OAuth OAuthConfig

	TopLookupsCacheTTL time.Duration
}

// MailConfig describes the outbound SMTP relay. When RefreshToken is set the
// relay is authenticated with XOAUTH2, otherwise with Username/Password.
type MailConfig struct {
	From         string
	Host         string
	Port         int
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// OAuthConfig enables the delegated identity routes when ClientID is set.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (o OAuthConfig) Enabled() bool {
	return o.ClientID != ""
}

func Load() *Config {
	frontend, _ := url.Parse("http://localhost:3000")
	port := env.String("PORT", "5000")

	return &Config{
		Port:            port,
		LogLevel:        parseLevel(env.String("LOG_LEVEL", "info")),
		ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		PostgresDSN: env.String("POSTGRES_DSN", postgresDSN()),
		DBMaxConns:  int32(env.Int("DB_MAX_CONNS", 10)),

		MongoURI: env.String("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  env.String("MONGO_DB", "techdict"),

		RedisAddr:     env.String("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env.String("REDIS_PASSWORD", ""),
		RedisDB:       env.Int("REDIS_DB", 0),

		MinioEndpoint:  env.String("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: env.String("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: env.String("MINIO_SECRET_KEY", ""),
		MinioBucket:    env.String("MINIO_BUCKET", "techdict-exports"),
		MinioUseSSL:    env.Bool("MINIO_USE_SSL", false),

		JWTSecret:     env.RequireString("JWT_SECRET"),
		JWTIssuer:     env.String("JWT_ISSUER", "techdict"),
		SessionTTL:    env.Duration("SESSION_TTL", time.Hour),
		InvitationTTL: env.Duration("INVITATION_TTL", time.Hour),

		FrontendURL: env.URL("FRONTEND_URL", frontend),

		Mail: MailConfig{
			From:         env.String("EMAIL_FROM", ""),
			Host:         env.String("SMTP_HOST", "smtp.gmail.com"),
			Port:         env.Int("SMTP_PORT", 587),
			Username:     env.String("SMTP_USERNAME", env.String("EMAIL_FROM", "")),
			Password:     env.String("SMTP_PASSWORD", ""),
			ClientID:     env.String("OAUTH_CLIENT_ID", ""),
			ClientSecret: env.String("OAUTH_CLIENT_SECRET", ""),
			RefreshToken: env.String("OAUTH_REFRESH_TOKEN", ""),
		},
		OAuth: OAuthConfig{
			ClientID:     env.String("GOOGLE_CLIENT_ID", ""),
			ClientSecret: env.String("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  env.String("OAUTH_REDIRECT_URL", "http://localhost:"+port+"/oauth/callback"),
		},

		TopLookupsCacheTTL: env.Duration("TOP_LOOKUPS_CACHE_TTL", 30*time.Second),
	}
}

// postgresDSN assembles a connection string from the discrete DB_* variables.
func postgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(env.String("DB_USER", "postgres"), env.String("DB_PASSWORD", "")),
		Host:   fmt.Sprintf("%s:%s", env.String("DB_HOST", "localhost"), env.String("DB_PORT", "5432")),
		Path:   "/" + env.String("DB_NAME", "techdict"),
	}
	q := u.Query()
	q.Set("sslmode", env.String("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()

	return u.String()
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
