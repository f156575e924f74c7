package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/containerproxy/internal/apiauth"
)

func newResolveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <container-id> [url]",
		Short: "Show how a request from a container would be routed",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestURL := ""
			if len(args) == 2 {
				requestURL = args[1]
			}

			raw, err := opts.client().Resolve(cmd.Context(), args[0], requestURL)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return fmt.Errorf("format answer: %w", err)
			}
			buf.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
}

func newTokenCommand(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the daemon's API",
		Long: `Mint a bearer token signed with the API secret, for hosts and
presentation layers that call the daemon directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := apiauth.IssueToken([]byte(opts.secret), subject, ttl, time.Now())
			if err != nil {
				return fmt.Errorf("mint token: %w (set --secret or CONTAINERPROXY_API_SECRET)", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "host", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
