package store

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyConfig addresses a Valkey server shared by several devices of the same user.
type ValkeyConfig struct {
	Addr     string
	Password string
	// Namespace is prepended to every key so several profiles can share one server.
	Namespace string
}

// Valkey is a KV backend over a Valkey server.
type Valkey struct {
	client    valkey.Client
	namespace string
}

// OpenValkey connects to the server described by cfg and verifies it with PING.
func OpenValkey(ctx context.Context, cfg ValkeyConfig, timeout time.Duration) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Password:     cfg.Password,
		DisableCache: true,
		Dialer:       net.Dialer{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("connect valkey %s: %w", cfg.Addr, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey %s: %w", cfg.Addr, err)
	}
	return &Valkey{client: client, namespace: cfg.Namespace}, nil
}

func (v *Valkey) key(k string) string {
	if v.namespace == "" {
		return k
	}
	return v.namespace + ":" + k
}

// Get returns the value stored under key, or ErrNotFound.
func (v *Valkey) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := v.client.Do(ctx, v.client.B().Get().Key(v.key(key)).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return b, nil
}

// Set stores value under key without expiry.
func (v *Valkey) Set(ctx context.Context, key string, value []byte) error {
	cmd := v.client.B().Set().Key(v.key(key)).Value(valkey.BinaryString(value)).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (v *Valkey) Delete(ctx context.Context, key string) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(v.key(key)).Build()).Error(); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (v *Valkey) Exists(ctx context.Context, key string) (bool, error) {
	n, err := v.client.Do(ctx, v.client.B().Exists().Key(v.key(key)).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", key, err)
	}
	return n > 0, nil
}

// Close releases the underlying connections.
func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}

var _ KV = (*Valkey)(nil)
