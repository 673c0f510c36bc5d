package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, &Config{DefaultProfile: "work"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestLoadProfileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	body := `
[user]
username = "alice"
email = "alice@example.com"

[transport]
reconnect_wait = "5s"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.User.Username != "alice" {
		t.Errorf("username = %q", p.User.Username)
	}
	if p.Store.Backend != BackendSQLite {
		t.Errorf("backend = %q, want sqlite default", p.Store.Backend)
	}
	if p.Transport.SubjectPrefix != "hangouts" {
		t.Errorf("subject_prefix = %q, want default", p.Transport.SubjectPrefix)
	}
	if p.Transport.ReconnectWait != 5*time.Second {
		t.Errorf("reconnect_wait = %v, want 5s", p.Transport.ReconnectWait)
	}
	if p.Log.Level != "info" {
		t.Errorf("log.level = %q", p.Log.Level)
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr string
	}{
		{"ok", func(*Profile) {}, ""},
		{"no username", func(p *Profile) { p.User.Username = "" }, "username"},
		{"username with separator", func(p *Profile) { p.User.Username = "al:ice" }, "invalid username"},
		{"username with subject token", func(p *Profile) { p.User.Username = "alice.>" }, "invalid username"},
		{"unknown backend", func(p *Profile) { p.Store.Backend = "redis" }, "backend"},
		{"valkey without addr", func(p *Profile) { p.Store.Backend = BackendValkey }, "valkey_addr"},
		{"valkey with addr", func(p *Profile) { p.Store.Backend = BackendValkey; p.Store.ValkeyAddr = "localhost:6379" }, ""},
		{"no nats url", func(p *Profile) { p.Transport.NatsURL = "" }, "nats_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			p.User.Username = "alice"
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveProfileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles", "main", "profile.toml")
	p := DefaultProfile()
	p.User = User{Username: "alice", Email: "alice@example.com"}

	if err := SaveProfile(path, &p); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != p {
		t.Errorf("loaded = %+v, want %+v", *loaded, p)
	}
}
