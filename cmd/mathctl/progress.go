package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"amcmath/internal/service"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Print a learner's progression as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		learner, _ := cmd.Flags().GetString("learner")
		slug, _ := cmd.Flags().GetString("path")
		progress := service.NewProgressService(a.catalog, a.attempts, a.log)

		var out any
		if slug != "" {
			out, err = progress.PathProgression(ctx, learner, slug)
		} else {
			out, err = progress.Progression(ctx, learner)
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	progressCmd.Flags().StringP("learner", "l", "", "Learner id (empty for an anonymous view)")
	progressCmd.Flags().StringP("path", "p", "", "Only this path slug")
}
