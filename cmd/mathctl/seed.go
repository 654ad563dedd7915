package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"amcmath/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed or refresh the catalog from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			file = a.cfg.CatalogPath
		}

		summary, err := service.NewCatalogService(a.db, a.catalog, a.log).SeedFromFile(ctx, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d paths, %d subpaths, %d levels, %d problems from %s\n",
			summary.Paths, summary.Subpaths, summary.Levels, summary.Problems, file)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringP("file", "f", "", "Catalog YAML file (default: CATALOG_PATH)")
}
