// Package redis keeps the CLI credential in Redis so several shells or hosts
// can share one sign-in.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"note-taker/internal/credentials"

	goredis "github.com/redis/go-redis/v9"
)

var _ credentials.Store = (*CredentialStore)(nil)

const (
	defaultPrefix  = "notetaker:credential:"
	defaultTimeout = 3 * time.Second
)

// Options configures a CredentialStore.
type Options struct {
	// Prefix is prepended to Profile to build the key.
	Prefix  string
	Profile string
	// TTL expires the credential together with the token; zero keeps it.
	TTL     time.Duration
	Timeout time.Duration
	Logger  *slog.Logger
}

// CredentialStore stores the credential as JSON under "<prefix><profile>".
type CredentialStore struct {
	client  goredis.UniversalClient
	key     string
	ttl     time.Duration
	timeout time.Duration
	log     *slog.Logger
}

// NewClient connects to addr and pings it.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// NewCredentialStore returns a store on client.
func NewCredentialStore(client goredis.UniversalClient, opts Options) *CredentialStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	profile := opts.Profile
	if profile == "" {
		profile = "default"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &CredentialStore{client: client, key: prefix + profile, ttl: opts.TTL, timeout: timeout, log: log}
}

// Key returns the Redis key holding the credential.
func (s *CredentialStore) Key() string { return s.key }

// Current treats a missing key, an unreachable server or a malformed value as no credential.
func (s *CredentialStore) Current() (credentials.Credential, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	b, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.log.Warn("failed to read credential", "key", s.key, "error", err)
		}
		return credentials.Credential{}, false
	}

	var c credentials.Credential
	if err := json.Unmarshal(b, &c); err != nil {
		s.log.Warn("malformed credential", "key", s.key, "error", err)
		return credentials.Credential{}, false
	}
	if c.Token == "" {
		return credentials.Credential{}, false
	}
	return c, true
}

func (s *CredentialStore) Set(c credentials.Credential) error {
	if c.Token == "" {
		return credentials.ErrEmptyToken
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
