package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// proxyFlags binds the fields of a ProxyConfig to command flags.
type proxyFlags struct {
	typ      string
	host     string
	port     string
	label    string
	username string
	password string
	disabled bool
}

func (f *proxyFlags) register(cmd *cobra.Command, withState bool) {
	cmd.Flags().StringVar(&f.typ, "type", "", "Proxy type: http, https, socks4 or socks5")
	cmd.Flags().StringVar(&f.host, "host", "", "Proxy host")
	cmd.Flags().StringVar(&f.port, "port", "", "Proxy port")
	cmd.Flags().StringVar(&f.label, "label", "", "Optional label")
	cmd.Flags().StringVar(&f.username, "username", "", "Proxy username")
	cmd.Flags().StringVar(&f.password, "password", "", "Proxy password")
	if withState {
		cmd.Flags().BoolVar(&f.disabled, "disabled", false, "Store the proxy without using it")
	}
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("port")
}

func (f *proxyFlags) config() model.ProxyConfig {
	return model.ProxyConfig{
		Type:     model.ProxyType(f.typ),
		Host:     f.host,
		Port:     model.PortText(f.port),
		Label:    f.label,
		Username: f.username,
		Password: f.password,
		Enabled:  !f.disabled,
	}
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newListCommand(opts *options) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all container proxy assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.client().ListProxies(cmd.Context())
			if err != nil {
				return err
			}
			if raw {
				return writeJSONTo(cmd.OutOrStdout(), m)
			}
			if len(m) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No proxies configured.")
				return nil
			}

			ids := make([]string, 0, len(m))
			for id := range m {
				ids = append(ids, id)
			}
			slices.Sort(ids)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CONTAINER\tTYPE\tADDRESS\tENABLED\tAUTH\tLABEL")
			for _, id := range ids {
				cfg := m[id]
				_, _, auth := cfg.Credentials()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", id, cfg.Type, cfg.Address(), yesNo(cfg.Enabled), yesNo(auth), cfg.Label)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the mapping as JSON")
	return cmd
}

func newGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <container-id>",
		Short: "Show the proxy assigned to a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.client().GetProxy(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSONTo(cmd.OutOrStdout(), cfg)
		},
	}
}

func newSetCommand(opts *options) *cobra.Command {
	var f proxyFlags

	cmd := &cobra.Command{
		Use:   "set <container-id>",
		Short: "Assign a proxy to a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := opts.client().SetProxy(cmd.Context(), args[0], f.config())
			if err != nil {
				return err
			}
			opts.logger.Debug("proxy stored", "container_id", args[0], "address", stored.Address())
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s now uses %s proxy %s\n", args[0], stored.Type, stored.Address())
			if !stored.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "  (disabled: requests go direct until it is enabled)")
			}
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func newRemoveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <container-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a container's proxy",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().RemoveProxy(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s now connects directly\n", args[0])
			return nil
		},
	}
}

func newTestCommand(opts *options) *cobra.Command {
	var f proxyFlags

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check a proxy configuration without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opts.client().TestProxy(cmd.Context(), f.config())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			if !res.Success {
				return fmt.Errorf("proxy test failed")
			}
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}
