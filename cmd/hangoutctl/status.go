package main

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/hangouts/internal/api"
	"github.com/matheus3301/hangouts/internal/lock"
	"github.com/matheus3301/hangouts/internal/profile"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

var watchPrefix string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream dispatched actions until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchPrefix, "prefix", "", "only show actions whose kind starts with prefix (e.g. messages.)")
	rootCmd.AddCommand(statusCmd, watchCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	err := withClient(cmd, func(ctx context.Context, c *api.Client) error {
		resp, err := c.GetStatus(ctx)
		if err != nil {
			return err
		}
		if jsonFlag {
			return outputJSON(cmd.OutOrStdout(), resp)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Profile: %s\n", resp.Profile)
		fmt.Fprintf(w, "User:    %s\n", resp.Username)
		fmt.Fprintf(w, "Status:  %s\n", resp.Status)
		fmt.Fprintf(w, "Uptime:  %s\n", (time.Duration(resp.UptimeMs) * time.Millisecond).String())
		if resp.Open != "" {
			fmt.Fprintf(w, "Open:    %s\n", resp.Open)
		}
		if resp.Pending != nil {
			fmt.Fprintf(w, "Pending: %s %s\n", resp.Pending.Command, resp.Pending.RemoteUsername)
		}
		fmt.Fprintf(w, "Offline: %d queued\n", resp.Offline)
		return nil
	})
	if grpcstatus.Code(err) != codes.Unavailable {
		return err
	}
	return reportStopped(cmd)
}

// reportStopped describes a profile whose daemon does not answer, using the
// lock file to tell a stopped daemon from a wedged one.
func reportStopped(cmd *cobra.Command) error {
	name, err := profileName()
	if err != nil {
		return err
	}
	holder, err := lock.Inspect(profile.Dir(name))
	if err != nil {
		return err
	}
	if jsonFlag {
		return outputJSON(cmd.OutOrStdout(), map[string]any{"profile": name, "running": holder != nil, "holder": holder})
	}
	w := cmd.OutOrStdout()
	if holder == nil {
		fmt.Fprintf(w, "Profile %s: daemon not running\n", name)
		return nil
	}
	fmt.Fprintf(w, "Profile %s: locked by PID %d (%s) since %s but the socket is not answering\n",
		name, holder.PID, holder.Username, holder.Since)
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	name, err := profileName()
	if err != nil {
		return err
	}
	c, err := api.Dial(profile.SocketPath(name))
	if err != nil {
		return fmt.Errorf("cannot connect to daemon for profile %q: %w", name, err)
	}
	defer func() { _ = c.Close() }()

	w := cmd.OutOrStdout()
	err = c.WatchActions(cmd.Context(), watchPrefix, func(act api.ActionMessage) error {
		if jsonFlag {
			return outputJSON(w, act)
		}
		_, err := fmt.Fprintf(w, "%s %-28s %s\n", act.Timestamp.Local().Format(time.TimeOnly), act.Kind, act.Payload)
		return err
	})
	if grpcstatus.Code(err) == codes.Canceled {
		return nil
	}
	return err
}
