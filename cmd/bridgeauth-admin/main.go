// Command bridgeauth-admin runs operator tasks against the bridgeAuth stores: issuing
// API keys, suspending users, enrolling TOTP secrets and flipping the primary
// platform's multi-user flag. It reads the same BRIDGEAUTH_* environment as
// bridgeauth-server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/bridgeAuth/internal/config"
	"github.com/MrEthical07/bridgeAuth/internal/logging"
	"github.com/MrEthical07/bridgeAuth/store/primary"
	"github.com/MrEthical07/bridgeAuth/store/secondary"
	"github.com/MrEthical07/bridgeAuth/totp"
)

var (
	_ primaryAdmin   = (*primary.Store)(nil)
	_ secondaryAdmin = (*secondary.Store)(nil)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bridgeauth-admin: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	root := newRootCmd(storeBackend(cfg, logger))
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// storeBackend opens the real stores lazily so a command only connects to what it
// touches.
func storeBackend(cfg config.Config, logger *slog.Logger) *backend {
	ec := cfg.Engine()
	return &backend{
		logger: logger,
		totp: totp.Config{
			Issuer:    ec.TOTP.Issuer,
			Digits:    ec.TOTP.Digits,
			Period:    ec.TOTP.Period,
			Algorithm: ec.TOTP.Algorithm,
			Skew:      ec.TOTP.Skew,
		},
		primary: func(ctx context.Context) (primaryAdmin, error) {
			if cfg.PrimaryDSN == "" {
				return nil, errors.New("BRIDGEAUTH_PRIMARY_DSN is required")
			}
			s, err := primary.Open(ctx, cfg.PrimaryDSN)
			if err != nil {
				return nil, fmt.Errorf("primary store: %w", err)
			}
			return s, nil
		},
		secondary: func(ctx context.Context) (secondaryAdmin, error) {
			if cfg.SecondaryPath == "" {
				return nil, errors.New("BRIDGEAUTH_SECONDARY_PATH is required")
			}
			s, err := secondary.Open(ctx, cfg.SecondaryPath)
			if err != nil {
				return nil, fmt.Errorf("secondary store: %w", err)
			}
			return s, nil
		},
	}
}
