// Package cli implements containerproxyctl, the command-line client for the
// containerproxy daemon.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const defaultServer = "http://127.0.0.1:8181"

// options holds the root flags shared by every subcommand.
type options struct {
	verbose    bool
	jsonOutput bool
	server     string
	secret     string
	logger     *slog.Logger
}

func (o *options) client() *Client {
	return NewClient(o.server, []byte(o.secret))
}

// setupLogging builds the diagnostic logger written to w.
func setupLogging(verbose, jsonOutput bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewRootCommand builds the containerproxyctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	root := &cobra.Command{
		Use:   "containerproxyctl",
		Short: "Manage per-container proxy assignments",
		Long: `containerproxyctl talks to a running containerproxy daemon.

Each browsing container can be assigned its own HTTP, HTTPS, SOCKS4 or
SOCKS5 proxy. Requests from containers without an enabled assignment go
direct.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.logger = setupLogging(opts.verbose, opts.jsonOutput, cmd.ErrOrStderr())
			opts.logger.Debug("using daemon", "server", opts.server, "auth", opts.secret != "")
		},
	}

	server := os.Getenv("CONTAINERPROXY_SERVER")
	if server == "" {
		server = defaultServer
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output logs in JSON format")
	root.PersistentFlags().StringVar(&opts.server, "server", server, "Daemon base URL (env CONTAINERPROXY_SERVER)")
	root.PersistentFlags().StringVar(&opts.secret, "secret", os.Getenv("CONTAINERPROXY_API_SECRET"), "API secret used to sign bearer tokens (env CONTAINERPROXY_API_SECRET)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newListCommand(opts),
		newGetCommand(opts),
		newSetCommand(opts),
		newRemoveCommand(opts),
		newTestCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newResolveCommand(opts),
		newTokenCommand(opts),
	)

	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
