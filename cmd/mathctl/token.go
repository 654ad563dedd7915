package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"amcmath/internal/models"
	"amcmath/internal/security"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a learner",
	Long:  "Mint a bearer token signed with JWT_SECRET, for local development and smoke tests.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("learner")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = cfg.JWTTTL
		}

		token, err := security.NewTokenManager(cfg.JWTSecret, ttl).Issue(models.Learner{ID: id, Email: email})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringP("learner", "l", "", "Learner id (token subject)")
	tokenCmd.Flags().String("email", "", "Learner email claim")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default: JWT_TTL)")
	_ = tokenCmd.MarkFlagRequired("learner")
}
