package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rifas/internal/models"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisClient wraps go-redis for tenant lookups, claim locks and idempotency keys
type RedisClient struct {
	client    *redis.Client
	tenantTTL time.Duration
}

func NewRedisClient(cfg Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: rdb, tenantTTL: 10 * time.Minute}, nil
}

func tenantKey(lookup string) string {
	return "tenant:" + lookup
}

func claimKey(rifaID, numero string) string {
	return fmt.Sprintf("lock:rifa:%s:%s", rifaID, numero)
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, key)
}

// GetTenant returns the cached tenant for a slug or host, nil on miss
func (r *RedisClient) GetTenant(ctx context.Context, lookup string) (*models.Tenant, error) {
	raw, err := r.client.Get(ctx, tenantKey(lookup)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	var tenant models.Tenant
	if err := json.Unmarshal(raw, &tenant); err != nil {
		return nil, fmt.Errorf("invalid tenant in cache: %w", err)
	}
	return &tenant, nil
}

func (r *RedisClient) SetTenant(ctx context.Context, lookup string, tenant *models.Tenant) error {
	raw, err := json.Marshal(tenant)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant: %w", err)
	}
	return r.client.Set(ctx, tenantKey(lookup), raw, r.tenantTTL).Err()
}

// AcquireClaim takes the short-lived number lock. It returns false when
// another request holds it.
func (r *RedisClient) AcquireClaim(ctx context.Context, rifaID, numero string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, claimKey(rifaID, numero), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire claim lock: %w", err)
	}
	return ok, nil
}

func (r *RedisClient) ReleaseClaim(ctx context.Context, rifaID, numero string) error {
	return r.client.Del(ctx, claimKey(rifaID, numero)).Err()
}

// StoredResponse is a completed response kept for Idempotency-Key replays
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

const processingMarker = "PROCESSING"

// ErrRequestInFlight means the same idempotency key is being processed
var ErrRequestInFlight = errors.New("request with this idempotency key is in progress")

// BeginIdempotent returns the stored response for a finished key. For a new
// key it marks the key as processing and returns nil.
func (r *RedisClient) BeginIdempotent(ctx context.Context, scope, key string) (*StoredResponse, error) {
	k := idempotencyKey(scope, key)

	val, err := r.client.Get(ctx, k).Result()
	switch {
	case err == nil:
		if val == processingMarker {
			return nil, ErrRequestInFlight
		}
		var stored StoredResponse
		if err := json.Unmarshal([]byte(val), &stored); err != nil {
			return nil, fmt.Errorf("invalid stored response: %w", err)
		}
		return &stored, nil
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("idempotency lookup error: %w", err)
	}

	acquired, err := r.client.SetNX(ctx, k, processingMarker, 10*time.Second).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock idempotency key: %w", err)
	}
	if !acquired {
		return nil, ErrRequestInFlight
	}
	return nil, nil
}

// CompleteIdempotent stores the response for 24h
func (r *RedisClient) CompleteIdempotent(ctx context.Context, scope, key string, resp StoredResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal stored response: %w", err)
	}
	return r.client.Set(ctx, idempotencyKey(scope, key), raw, 24*time.Hour).Err()
}

// AbortIdempotent drops the processing marker so the client may retry
func (r *RedisClient) AbortIdempotent(ctx context.Context, scope, key string) error {
	return r.client.Del(ctx, idempotencyKey(scope, key)).Err()
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
