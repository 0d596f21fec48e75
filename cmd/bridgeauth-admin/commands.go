package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrEthical07/bridgeAuth"
	"github.com/MrEthical07/bridgeAuth/totp"
	"github.com/spf13/cobra"
)

// primaryAdmin is the write side of the primary platform used by the admin commands.
// *primary.Store implements it.
type primaryAdmin interface {
	SetSuspended(ctx context.Context, email string, suspended bool) error
	CreateAPIKey(ctx context.Context, createdBy string) (*bridgeAuth.APIKey, error)
	SetMultiUserMode(ctx context.Context, enabled bool) error
	Close() error
}

// secondaryAdmin is the part of *secondary.Store the admin commands need.
type secondaryAdmin interface {
	FindUser(ctx context.Context, q bridgeAuth.UserQuery, p bridgeAuth.Projection) (*bridgeAuth.SecondaryUser, error)
	EnableTwoFactor(ctx context.Context, id, secret string) error
	Close() error
}

type backend struct {
	primary   func(ctx context.Context) (primaryAdmin, error)
	secondary func(ctx context.Context) (secondaryAdmin, error)
	totp      totp.Config
	logger    *slog.Logger
}

func newRootCmd(b *backend) *cobra.Command {
	root := &cobra.Command{
		Use:   "bridgeauth-admin",
		Short: "Operator tasks for a bridgeAuth deployment",
		Long: `bridgeauth-admin changes state that the HTTP routes never expose.

Store locations come from the BRIDGEAUTH_* environment used by bridgeauth-server:
BRIDGEAUTH_PRIMARY_DSN for API keys, suspension and the multi-user flag, and
BRIDGEAUTH_SECONDARY_PATH for two-factor enrolment.

Examples:
  bridgeauth-admin apikey create --created-by 0b6c...
  bridgeauth-admin user suspend alice@example.com
  bridgeauth-admin user enable-2fa alice@example.com
  bridgeauth-admin multi-user on`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAPIKeyCmd(b), newUserCmd(b), newMultiUserCmd(b))
	return root
}

func newAPIKeyCmd(b *backend) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage primary platform API keys",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Issue a new API key and print its secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			createdBy, _ := cmd.Flags().GetString("created-by")

			store, err := b.primary(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			key, err := store.CreateAPIKey(cmd.Context(), createdBy)
			if err != nil {
				return fmt.Errorf("create api key: %w", err)
			}
			b.logger.Info("api key issued", slog.String("id", key.ID), slog.String("created_by", createdBy))
			fmt.Fprintln(cmd.OutOrStdout(), key.Secret)
			return nil
		},
	}
	create.Flags().String("created-by", "", "primary user id recorded as the key owner")

	cmd.AddCommand(create)
	return cmd
}

func newUserCmd(b *backend) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Suspend users and manage their second factor",
	}
	cmd.AddCommand(
		newSuspendCmd(b, "suspend", true),
		newSuspendCmd(b, "unsuspend", false),
		newEnableTwoFactorCmd(b),
		newDisableTwoFactorCmd(b),
	)
	return cmd
}

func newSuspendCmd(b *backend, use string, suspended bool) *cobra.Command {
	short := "Suspend a user on the primary platform"
	if !suspended {
		short = "Lift a suspension on the primary platform"
	}
	return &cobra.Command{
		Use:   use + " [email]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])

			store, err := b.primary(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetSuspended(cmd.Context(), email, suspended); err != nil {
				return fmt.Errorf("%s %s: %w", use, email, err)
			}
			b.logger.Info("suspension updated", slog.String("email", email), slog.Bool("suspended", suspended))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: suspended=%t\n", email, suspended)
			return nil
		},
	}
}

func newEnableTwoFactorCmd(b *backend) *cobra.Command {
	return &cobra.Command{
		Use:   "enable-2fa [email]",
		Short: "Enrol a fresh TOTP secret and print its provisioning URI",
		Long: `Generates a 160-bit TOTP secret for the user, stores it and turns step-up on.
The printed otpauth:// URI can be rendered as a QR code for an authenticator app.
Running it again replaces the previous secret.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := strings.TrimSpace(args[0])

			verifier, err := totp.New(b.totp)
			if err != nil {
				return err
			}

			store, err := b.secondary(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := findUser(ctx, store, email)
			if err != nil {
				return err
			}

			secret, err := totp.GenerateSecret()
			if err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			if err := store.EnableTwoFactor(ctx, user.ID, secret); err != nil {
				return fmt.Errorf("enable two-factor: %w", err)
			}
			b.logger.Info("two-factor enrolled", slog.String("user_id", user.ID))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secret: %s\n", secret)
			fmt.Fprintf(out, "uri:    %s\n", verifier.ProvisionURI(secret, user.Email))
			return nil
		},
	}
}

func newDisableTwoFactorCmd(b *backend) *cobra.Command {
	return &cobra.Command{
		Use:   "disable-2fa [email]",
		Short: "Remove the TOTP secret and turn step-up off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := strings.TrimSpace(args[0])

			store, err := b.secondary(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := findUser(ctx, store, email)
			if err != nil {
				return err
			}
			if err := store.EnableTwoFactor(ctx, user.ID, ""); err != nil {
				return fmt.Errorf("disable two-factor: %w", err)
			}
			b.logger.Info("two-factor removed", slog.String("user_id", user.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: two-factor disabled\n", user.Email)
			return nil
		},
	}
}

func newMultiUserCmd(b *backend) *cobra.Command {
	return &cobra.Command{
		Use:       "multi-user [on|off]",
		Short:     "Set the primary platform's multi-user flag",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := args[0] == "on"

			store, err := b.primary(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetMultiUserMode(cmd.Context(), enabled); err != nil {
				return fmt.Errorf("set multi-user mode: %w", err)
			}
			b.logger.Info("multi-user mode updated", slog.Bool("enabled", enabled))
			fmt.Fprintf(cmd.OutOrStdout(), "multi-user mode: %s\n", args[0])
			return nil
		},
	}
}

func findUser(ctx context.Context, store secondaryAdmin, email string) (*bridgeAuth.SecondaryUser, error) {
	user, err := store.FindUser(ctx, bridgeAuth.UserQuery{Email: email}, bridgeAuth.Projection{})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %q not found", email)
	}
	return user, nil
}
