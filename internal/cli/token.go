package cli

import (
	"fmt"

	"homebroker/internal/auth"
	"homebroker/internal/domain"

	"github.com/spf13/cobra"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	UserID string
	Email  string
	Role   string
}

// NewTokenCommand creates the token command. It signs with the configured
// JWT secret and is meant for development setups.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "token",
		Short:         "Mint a session access token",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !domain.ValidRole(opts.Role) {
				return fmt.Errorf("invalid role %q", opts.Role)
			}
			tok, err := auth.GenerateAccessToken(&cfg.JWT, opts.UserID, opts.Email, opts.Role)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id to embed")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email to embed")
	cmd.Flags().StringVar(&opts.Role, "role", domain.RoleBuyer, "BUYER, SELLER or ADMIN")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
