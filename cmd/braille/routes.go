package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/brailletranslate/backend/internal/auth/authz"
)

// NewRoutesCmd creates the routes subcommand.
func NewRoutesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the effective route table",
		Long: `Print the route table the guard enforces as YAML. With --file the given table
is validated first; without it ROUTE_TABLE_PATH or the built-in table is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = os.Getenv("ROUTE_TABLE_PATH")
			}
			table := authz.DefaultRouteTable()
			if file != "" {
				loaded, err := authz.LoadRouteTable(file)
				if err != nil {
					return err
				}
				table = loaded
			}

			data, err := table.EncodeYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "route table file to validate (defaults to ROUTE_TABLE_PATH)")

	return cmd
}
