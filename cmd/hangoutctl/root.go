package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/matheus3301/hangouts/internal/api"
	"github.com/matheus3301/hangouts/internal/profile"
	"github.com/spf13/cobra"
)

const requestTimeout = 10 * time.Second

var (
	profileFlag string
	jsonFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "hangoutctl",
	Short: "Control a running hangoutd.",
	Long: `hangoutctl talks to the hangoutd of one profile over its unix socket.

  hangoutctl init --username <name>             write the profile
  hangoutctl send <command> <username> [text]   issue INVITE, ACCEPT, DECLINE, BLOCK, UNBLOCK or MESSAGE
  hangoutctl open <username>                    open a conversation
  hangoutctl close                              close the open conversation
  hangoutctl hangouts                           list relationships
  hangoutctl messages <username>                show a conversation
  hangoutctl unread                             list unread hangouts
  hangoutctl status                             show daemon status
  hangoutctl watch                              stream dispatched actions`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "profile name (overrides config default)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
}

// profileName resolves and validates the --profile flag.
func profileName() (string, error) {
	name := profile.Resolve(profileFlag)
	if err := profile.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// withClient dials the profile's daemon and runs fn with a bounded context.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *api.Client) error) error {
	name, err := profileName()
	if err != nil {
		return err
	}
	c, err := api.Dial(profile.SocketPath(name))
	if err != nil {
		return fmt.Errorf("cannot connect to daemon for profile %q: %w", name, err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	return fn(ctx, c)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
