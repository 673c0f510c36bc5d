package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/matheus3301/hangouts/internal/config"
	"github.com/matheus3301/hangouts/internal/profile"
	"github.com/spf13/cobra"
)

var (
	initUsername string
	initEmail    string
	initNatsURL  string
	initValkey   string
	initDefault  bool
	initForce    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write profile.toml for the selected profile.",
	Long: `Write profile.toml for the selected profile so hangoutd can start.
With --valkey the relationship store lives on a Valkey server instead of the
profile's local SQLite file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initUsername, "username", "", "local username (required)")
	initCmd.Flags().StringVar(&initEmail, "email", "", "local email")
	initCmd.Flags().StringVar(&initNatsURL, "nats", "", "push channel URL (default nats://127.0.0.1:4222)")
	initCmd.Flags().StringVar(&initValkey, "valkey", "", "Valkey address; selects the valkey store backend")
	initCmd.Flags().BoolVar(&initDefault, "default", false, "make this the default profile")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing profile.toml")
	_ = initCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	name, err := profileName()
	if err != nil {
		return err
	}
	path := profile.ProfilePath(name)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	p := config.DefaultProfile()
	p.User = config.User{Username: initUsername, Email: initEmail}
	if initNatsURL != "" {
		p.Transport.NatsURL = initNatsURL
	}
	if initValkey != "" {
		p.Store.Backend = config.BackendValkey
		p.Store.ValkeyAddr = initValkey
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := config.SaveProfile(path, &p); err != nil {
		return err
	}

	if initDefault {
		if err := config.Save(profile.ConfigPath(), &config.Config{DefaultProfile: name}); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profile %s written to %s\n", name, path)
	return nil
}
