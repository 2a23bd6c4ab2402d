// Package auth validates API keys for the ingest and query endpoints.
// Lookups go through three levels: the static keys from the environment,
// an in-process cache, then Redis. Redis being down fails closed for keys
// not already cached.
package auth

import (
	"context"
	"sync"
	"time"

	"greenpulse/internal/config"
)

// KeyLookup is the Redis-backed key resolver. Nil disables level three.
type KeyLookup interface {
	GetAPIKey(ctx context.Context, key string) (name string, found bool, err error)
}

type cacheEntry struct {
	name      string
	expiresAt time.Time
}

type Authenticator struct {
	static map[string]struct{}
	lookup KeyLookup
	ttl    time.Duration

	cache sync.Map // key -> cacheEntry
}

func New(cfg *config.Config, lookup KeyLookup) *Authenticator {
	static := make(map[string]struct{}, len(cfg.ValidAPIKeys))
	for _, k := range cfg.ValidAPIKeys {
		if k != "" {
			static[k] = struct{}{}
		}
	}
	return &Authenticator{
		static: static,
		lookup: lookup,
		ttl:    time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
	}
}

// Authenticate returns the client name for a valid key, or ok=false.
func (a *Authenticator) Authenticate(ctx context.Context, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if _, ok := a.static[key]; ok {
		return "static", true
	}

	if v, ok := a.cache.Load(key); ok {
		entry := v.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.name, true
		}
		a.cache.Delete(key)
	}

	if a.lookup == nil {
		return "", false
	}
	name, found, err := a.lookup.GetAPIKey(ctx, key)
	if err != nil || !found {
		return "", false
	}
	a.cache.Store(key, cacheEntry{name: name, expiresAt: time.Now().Add(a.ttl)})
	return name, true
}
