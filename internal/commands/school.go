package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"school-finance-backend/internal/middleware"
	"school-finance-backend/internal/services/catalog"
)

func newSchoolCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "school",
		Short: "Manage schools",
	}

	var name, slug, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a new school",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(a.cfg, a.log)
			if err != nil {
				return err
			}
			defer closeStore()

			school, err := catalog.NewService(store).CreateSchool(cmd.Context(), name, slug, email)
			if err != nil {
				return err
			}
			return printJSON(cmd, school)
		},
	}
	create.Flags().StringVar(&name, "name", "", "school name (required)")
	create.Flags().StringVar(&slug, "slug", "", "unique short name (required)")
	create.Flags().StringVar(&email, "email", "", "contact email")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("slug")

	cmd.AddCommand(create)
	return cmd
}

func newTokenCommand(a *app) *cobra.Command {
	var school, user, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token bound to a school",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			schoolID, err := uuid.Parse(school)
			if err != nil {
				return fmt.Errorf("invalid --school: %w", err)
			}
			switch role {
			case middleware.RoleAdmin, middleware.RoleBursar, middleware.RoleAuditor:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			tok, err := middleware.IssueToken(a.cfg.JWTSecret, schoolID, user, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	schoolFlag(cmd, &school)
	cmd.Flags().StringVar(&user, "user", "", "subject recorded as performed_by (required)")
	cmd.Flags().StringVar(&role, "role", middleware.RoleBursar, "admin, bursar or auditor")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
