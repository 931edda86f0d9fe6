package config

import (
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/env"
)

const (
	VerifierTokenInfo = "tokeninfo"
	VerifierOIDC      = "oidc"
)

type Config struct {
	HTTP   httpConfig
	DB     dbConfig
	Redis  redisConfig
	JWT    jwtConfig
	Google googleConfig
	Media  mediaConfig
	Log    logConfig
}

type httpConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type dbConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
	MigrationsDir   string
}

type redisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type jwtConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CodeTTL    time.Duration
}

type googleConfig struct {
	Verifier     string
	Timeout      time.Duration
	TokenInfoURL string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	CallbackURL  string
}

// CodeFlow reports whether the browser authorization code flow can be served.
func (g googleConfig) CodeFlow() bool {
	return g.ClientSecret != "" && g.RedirectURL != ""
}

type mediaConfig struct {
	Root      string
	ServeRoot string
	MaxSize   int64
	MaxWidth  int
	MaxHeight int
}

type logConfig struct {
	Level  string
	Format string
}

func FromEnv() Config {
	return Config{
		HTTP: httpConfig{
			ListenAddr:      env.String("HTTP_ADDR", ":8080"),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DB: dbConfig{
			DSN:             env.RequireString("DB_DSN"),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			Migrate:         env.Bool("DB_MIGRATE", false),
			MigrationsDir:   env.String("DB_MIGRATIONS_DIR", "db/migrations"),
		},
		Redis: redisConfig{
			Host:     env.String("REDIS_HOST", "localhost"),
			Port:     env.String("REDIS_PORT", "6379"),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
		},
		JWT: jwtConfig{
			Secret:     env.RequireString("JWT_SECRET"),
			Issuer:     env.RequireString("JWT_ISSUER"),
			Audience:   env.RequireString("JWT_AUDIENCE"),
			AccessTTL:  env.Duration("JWT_ACCESS_TTL", 60*time.Minute),
			RefreshTTL: env.Duration("REFRESH_TTL", 7*24*time.Hour),
			CodeTTL:    env.Duration("OTC_TTL", time.Minute),
		},
		Google: googleConfig{
			Verifier:     env.String("IDENTITY_VERIFIER", VerifierTokenInfo),
			Timeout:      env.Duration("IDENTITY_TIMEOUT", 10*time.Second),
			TokenInfoURL: env.String("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo"),
			ClientID:     env.RequireString("GOOGLE_CLIENT_ID"),
			ClientSecret: env.String("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  env.String("GOOGLE_REDIRECT_URL", ""),
			CallbackURL:  env.String("AUTH_CALLBACK_URL", "/"),
		},
		Media: mediaConfig{
			Root:      env.String("MEDIA_ROOT", "./media"),
			ServeRoot: env.String("MEDIA_SERVE_ROOT", "/api/v1/media/"),
			MaxSize:   env.Int64("MEDIA_MAX_SIZE", 5<<20),
			MaxWidth:  env.Int("MEDIA_MAX_WIDTH", 4096),
			MaxHeight: env.Int("MEDIA_MAX_HEIGHT", 4096),
		},
		Log: logConfig{
			Level:  env.String("LOG_LEVEL", "info"),
			Format: env.String("LOG_FORMAT", "json"),
		},
	}
}
