package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/coscon/cop-sdk-go/client"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newNamespacesCommand(a *app) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "namespaces",
		Short: "List the known namespaces.",
		Long: `List the built-in namespaces followed by those of namespaces_file.

With --yaml the list is printed in the catalog format read by
namespaces_file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.NewFromSettings(a.settings)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()

			if asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)

				if err := enc.Encode(c.Namespaces()); err != nil {
					return err
				}

				return enc.Close()
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tROOT URL")

			for _, ns := range c.Namespaces().All() {
				fmt.Fprintf(tw, "%s\t%s\n", ns.Name, ns.RootURL)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the namespace catalog as YAML")

	return cmd
}
