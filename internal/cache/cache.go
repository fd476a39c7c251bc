// Package cache holds the read-through JSON cache in front of lead queries and
// the pattern invalidation the workflow drives after every mutation.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/config"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

// ErrMiss is returned by GetJSON when no live entry exists
var ErrMiss = errors.New("cache miss")

// QualifierSeparator splits a policy key from its query qualifier, as in
// "listing:dispatchPlanning|<vendor>|page=1"
const QualifierSeparator = "|"

// Store is a namespaced JSON cache
type Store interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate drops every entry matching pattern. A trailing "*" matches any
	// key starting with the rest, otherwise the pattern matches the key itself
	// and all of its qualified variants.
	Invalidate(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}

// Key builds a qualified cache key from a policy key and its qualifiers
func Key(base string, qualifiers ...string) string {
	if len(qualifiers) == 0 {
		return base
	}
	return base + QualifierSeparator + strings.Join(qualifiers, QualifierSeparator)
}

// Matches reports whether key falls under pattern
func Matches(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern || strings.HasPrefix(key, pattern+QualifierSeparator)
}

// Fetch returns the cached value under key or loads, stores and returns it.
// Cache failures fall through to load.
func Fetch[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := s.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = s.SetJSON(ctx, key, v, ttl)
	return v, nil
}

// New selects the Redis store when an address is configured, otherwise an
// in-process memory store
func New(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (Store, error) {
	if cfg.Addr == "" {
		logger.Info("Redis not configured, using in-memory cache")
		return NewMemoryStore(), nil
	}
	return NewRedisStore(ctx, cfg, logger)
}

func namespaced(key string) string {
	return workflow.PolicyVersion + ":" + key
}
