package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/himanshub16/nowplaying/queue"
)

type ServeParams struct {
	Config string `short:"c" help:"Path to a TOML config file." optional:"true"`
	Addr   string `help:"Listen address, overrides the config." optional:"true"`
}

func ServeCmd() *cobra.Command {
	return boa.CmdT[ServeParams]{
		Use:         "serve",
		Short:       "Run the HTTP server",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ServeParams, cmd *cobra.Command, args []string) {
			if err := runServe(cmd.Context(), params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "serve: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runServe(ctx context.Context, params *ServeParams) error {
	cfg, err := LoadConfig(params.Config)
	if err != nil {
		return err
	}
	if params.Addr != "" {
		cfg.ListenAddr = params.Addr
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	gate, err := NewGate(cfg.Auth)
	if err != nil {
		return err
	}

	logger := newLogger("http", cfg)
	router := NewHTTPRouter(store, gate, logger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s, store %s", cfg.ListenAddr, cfg.StoreURL)
		errCh <- router.Start(cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return router.Shutdown(shutdownCtx)
}

// openStore opens the configured repository and wraps it in a cached store.
func openStore(cfg Config) (*queue.Store, error) {
	logger := newLogger("queue", cfg)

	repo, err := queue.OpenRepository(cfg.StoreURL, logger)
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.CacheTTLDuration()
	if err != nil {
		repo.Close()
		return nil, err
	}
	return queue.NewStore(repo, queue.WithCacheTTL(ttl), queue.WithLogger(logger)), nil
}
