package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/containerproxy/internal/application"
)

func newExportCommand(opts *options) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download all container proxy assignments",
		Long: `Download the proxy assignments joined with the container list.

Without --output the file is written to the current directory under the
name suggested by the daemon. Use --output - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := application.ParseFormat(format)
			if err != nil {
				return err
			}

			data, filename, err := opts.client().Export(cmd.Context(), f)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			path := output
			if path == "" {
				path = filepath.Base(filename)
				if path == "" || path == "." || path == string(filepath.Separator) {
					path = "container-proxy-config." + string(f)
				}
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Document format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout")
	return cmd
}

func newImportCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Apply a previously exported configuration",
		Long: `Apply every container entry that carries a proxy. Entries without a
proxy are skipped and never remove an existing assignment. A failing entry
does not stop the rest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := format
			if name == "" {
				name = filepath.Ext(args[0])
			}
			f, err := application.ParseFormat(name)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()

			sum, err := opts.client().Import(cmd.Context(), f, file)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d proxies (%d without proxy skipped)\n", sum.Applied, sum.Skipped)
			for _, e := range sum.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", e)
			}
			if len(sum.Errors) > 0 {
				return fmt.Errorf("%d entries failed to import", len(sum.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Document format: json or yaml (default from file extension)")
	return cmd
}
