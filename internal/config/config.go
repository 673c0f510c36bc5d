package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/matheus3301/hangouts/internal/hangout"
)

// Config represents the global ~/.hangouts/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
}

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendValkey = "valkey"
)

// Profile is one local user's profile.toml.
type Profile struct {
	User      User      `toml:"user"`
	Store     Store     `toml:"store"`
	Transport Transport `toml:"transport"`
	Log       Log       `toml:"log"`
}

// User identifies the local user the profile belongs to.
type User struct {
	Username string `toml:"username"`
	Email    string `toml:"email"`
}

// Store selects where relationship records are persisted.
type Store struct {
	Backend        string `toml:"backend"`
	ValkeyAddr     string `toml:"valkey_addr"`
	ValkeyPassword string `toml:"valkey_password"`
}

// Transport addresses the push channel.
type Transport struct {
	NatsURL       string        `toml:"nats_url"`
	SubjectPrefix string        `toml:"subject_prefix"`
	ReconnectWait time.Duration `toml:"reconnect_wait"`
}

// Log configures the daemon logger.
type Log struct {
	Level string `toml:"level"`
}

// DefaultProfile returns a profile with every optional field filled in.
func DefaultProfile() Profile {
	return Profile{
		Store: Store{Backend: BackendSQLite},
		Transport: Transport{
			NatsURL:       "nats://127.0.0.1:4222",
			SubjectPrefix: "hangouts",
			ReconnectWait: 2 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Validate reports the first problem with p.
func (p *Profile) Validate() error {
	if p.User.Username == "" {
		return fmt.Errorf("user.username is required")
	}
	if err := hangout.ValidateUsername(p.User.Username); err != nil {
		return fmt.Errorf("user.username: %w", err)
	}
	switch p.Store.Backend {
	case BackendSQLite:
	case BackendValkey:
		if p.Store.ValkeyAddr == "" {
			return fmt.Errorf("store.valkey_addr is required for the valkey backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", p.Store.Backend)
	}
	if p.Transport.NatsURL == "" {
		return fmt.Errorf("transport.nats_url is required")
	}
	return nil
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadProfile reads a profile over the defaults and validates it.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	return write(path, cfg)
}

// SaveProfile writes p to the given path.
func SaveProfile(path string, p *Profile) error {
	return write(path, p)
}

func write(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
