package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matheus3301/hangouts/internal/api"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/spf13/cobra"
)

var sendEmail string

var sendCmd = &cobra.Command{
	Use:   "send <command> <username> [text]",
	Short: "Issue a relationship command towards a remote user.",
	Long: `Issue INVITE, ACCEPT, DECLINE, BLOCK, UNBLOCK or MESSAGE towards username.
The command is case-insensitive. Text is attached as a message when given.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSend,
}

var openCmd = &cobra.Command{
	Use:   "open <username>",
	Short: "Open the conversation with username and mark it read.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *api.Client) error {
			return c.OpenConversation(ctx, args[0])
		})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the open conversation.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *api.Client) error {
			return c.CloseConversation(ctx)
		})
	},
}

var hangoutsCmd = &cobra.Command{
	Use:   "hangouts",
	Short: "List relationships with every remote user.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *api.Client) error {
			resp, err := c.ListHangouts(ctx)
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(cmd.OutOrStdout(), resp)
			}
			printHangouts(cmd.OutOrStdout(), resp.Hangouts, "No hangouts.")
			return nil
		})
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages <username>",
	Short: "Show the conversation with username.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *api.Client) error {
			resp, err := c.ListMessages(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(cmd.OutOrStdout(), resp)
			}
			printMessages(cmd.OutOrStdout(), resp.Messages)
			return nil
		})
	},
}

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "List hangouts that arrived while their conversation was closed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *api.Client) error {
			resp, err := c.ListUnread(ctx)
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unread: %d\n", resp.Count)
			printHangouts(cmd.OutOrStdout(), resp.Unread, "")
			return nil
		})
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendEmail, "email", "", "email of the remote user")
	rootCmd.AddCommand(sendCmd, openCmd, closeCmd, hangoutsCmd, messagesCmd, unreadCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	command, err := hangout.ParseCommand(strings.ToUpper(args[0]))
	if err != nil {
		return err
	}
	req := api.IssueCommandRequest{
		Username: args[1],
		Email:    sendEmail,
		Command:  string(command),
	}
	if len(args) == 3 {
		req.Text = args[2]
	}
	return withClient(cmd, func(ctx context.Context, c *api.Client) error {
		return c.IssueCommand(ctx, req)
	})
}

func printHangouts(w io.Writer, items []hangout.Hangout, empty string) {
	if len(items) == 0 {
		if empty != "" {
			fmt.Fprintln(w, empty)
		}
		return
	}
	for _, h := range items {
		flags := ""
		if !h.Delivered {
			flags += " (pending)"
		}
		if !h.Read {
			flags += " (unread)"
		}
		line := fmt.Sprintf("%-20s %-10s %s%s", h.Username, h.State, formatTime(h.Timestamp), flags)
		if h.Message != nil && h.Message.Text != "" {
			line += "  " + h.Message.Text
		}
		fmt.Fprintln(w, line)
	}
}

func printMessages(w io.Writer, msgs []hangout.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}
	for _, m := range msgs {
		mark := " "
		switch {
		case m.Type != "":
			mark = "!"
		case m.Delivered:
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %s %-16s %s\n", formatTime(m.Timestamp), mark, m.Username, m.Text)
	}
}

func formatTime(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}
