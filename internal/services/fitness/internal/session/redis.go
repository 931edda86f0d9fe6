package session

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound matches store.ErrNotFound so callers need not know where sessions live.
var ErrNotFound = fmt.Errorf("session %w", store.ErrNotFound)

const (
	refreshPrefix = "refresh:"
	codePrefix    = "otc:"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Refresh keeps refresh sessions keyed by the token hash.
type Refresh struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRefresh(rdb *redis.Client, ttl time.Duration) *Refresh {
	return &Refresh{rdb: rdb, ttl: ttl}
}

func (r *Refresh) Save(ctx context.Context, token string, userID int64) error {
	err := r.rdb.Set(ctx, refreshKey(token), userID, r.ttl).Err()
	if err != nil {
		return fmt.Errorf("store refresh session: %w", err)
	}
	return nil
}

// Consume deletes the session and returns its user. A token can be consumed once.
func (r *Refresh) Consume(ctx context.Context, token string) (int64, error) {
	val, err := r.rdb.GetDel(ctx, refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("consume refresh session: %w", err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session user id: %w", err)
	}

	return id, nil
}

func (r *Refresh) Revoke(ctx context.Context, token string) error {
	if err := r.rdb.Del(ctx, refreshKey(token)).Err(); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func refreshKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return refreshPrefix + hex.EncodeToString(sum[:])
}

// Codes hands out one-time codes that can be redeemed for a token pair.
type Codes struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCodes(rdb *redis.Client, ttl time.Duration) *Codes {
	return &Codes{rdb: rdb, ttl: ttl}
}

type codeEntry struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (c *Codes) CreateCode(ctx context.Context, ts service.TokenPair) (string, error) {
	ce := codeEntry{
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		ExpiresAt:    ts.ExpiresAt,
	}

	var sb strings.Builder
	err := json.NewEncoder(&sb).Encode(ce)
	if err != nil {
		return "", fmt.Errorf("serialize tokens: %w", err)
	}

	for range 3 {
		code := generateCode()
		ok, err := c.rdb.SetNX(ctx, codePrefix+code, sb.String(), c.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("store code in redis: %w", err)
		}
		if ok {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique code")
}

func (c *Codes) RedeemCode(ctx context.Context, code string) (service.TokenPair, error) {
	val, err := c.rdb.GetDel(ctx, codePrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return service.TokenPair{}, ErrNotFound
		}

		return service.TokenPair{}, fmt.Errorf("retrieve code from redis: %w", err)
	}

	var ce codeEntry
	err = json.NewDecoder(strings.NewReader(val)).Decode(&ce)
	if err != nil {
		return service.TokenPair{}, fmt.Errorf("deserialize code entry: %w", err)
	}

	return service.TokenPair{
		AccessToken:  ce.AccessToken,
		RefreshToken: ce.RefreshToken,
		ExpiresAt:    ce.ExpiresAt,
	}, nil
}

func generateCode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))
}
