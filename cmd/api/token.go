package main

import (
	"errors"
	"fmt"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/pkg/jwt"
	"github.com/spf13/cobra"
)

// issueTokenCommand mints access tokens for local testing; identity issuance
// itself belongs to the platform's auth service.
func issueTokenCommand() *cobra.Command {
	var claims jwt.Claims
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print a signed access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return errors.New("JWT secret is required (set JWT_SECRET)")
			}
			if claims.Role != models.RoleCustomer && claims.Role != models.RoleStaff {
				return fmt.Errorf("role must be %q or %q", models.RoleCustomer, models.RoleStaff)
			}
			token, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn).Issue(claims)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&claims.Subject, "user", "", "user id (hex)")
	cmd.Flags().StringVar(&claims.Role, "role", models.RoleCustomer, "customer or staff")
	cmd.Flags().StringVar(&claims.MerchantID, "merchant", "", "merchant id (hex), staff only")
	cmd.Flags().StringVar(&claims.BranchID, "branch", "", "branch id (hex), staff only")
	cmd.Flags().BoolVar(&claims.IsMainBranch, "main-branch", false, "staff of the main branch")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
