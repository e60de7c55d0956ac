package cli

import (
	"fmt"
	"strings"

	"github.com/mseiser/SelfMemo2/internal/auth"
	"github.com/mseiser/SelfMemo2/internal/config"
	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		userID int
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for local development",
		Long: `Issue an access token signed with JWT_SECRET.

Users are managed by the identity service in production, this command
exists to call the API from a shell.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("user-id must be positive")
			}
			r, err := parseRole(role)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			token, err := auth.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry).GenerateAccessToken(userID, r)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, map[string]any{
					"access_token": token,
					"expires_in":   int(cfg.JWT.AccessTokenExpiry.Seconds()),
				})
			}
			_, err = fmt.Fprintln(w, token)
			return err
		},
	}

	cmd.Flags().IntVar(&userID, "user-id", 0, "user ID carried by the token")
	cmd.Flags().StringVar(&role, "role", "user", "role carried by the token (user|admin)")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func parseRole(role string) (models.Role, error) {
	switch strings.ToLower(role) {
	case "user":
		return models.RoleUser, nil
	case "admin":
		return models.RoleAdmin, nil
	default:
		return 0, fmt.Errorf("invalid role %q: must be user or admin", role)
	}
}
