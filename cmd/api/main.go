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

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/e8yes/webchat/internal/authorization"
	"github.com/e8yes/webchat/internal/environment"
	"github.com/e8yes/webchat/internal/identity"
	"github.com/e8yes/webchat/internal/router"
	"github.com/e8yes/webchat/pkg/utilities"
)

type serverConfig struct {
	Addr            string        `env:"HTTP_ADDR" env-default:"0.0.0.0:8431"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	logCfg, err := utilities.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read logger config: %v\n", err)
		os.Exit(1)
	}
	lg, err := utilities.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	if err := run(sugar); err != nil {
		sugar.Errorw("service stopped", "err", err)
		lg.Sync()
		os.Exit(1)
	}
}

func run(sugar *zap.SugaredLogger) error {
	var srvCfg serverConfig
	if err := cleanenv.ReadEnv(&srvCfg); err != nil {
		return fmt.Errorf("read server env: %w", err)
	}
	envCfg, err := environment.ConfigFromEnv()
	if err != nil {
		return err
	}
	mode, err := environment.ParseMode(envCfg.Mode)
	if err != nil {
		return err
	}
	tokenCfg, err := authorization.ConfigFromEnv()
	if err != nil {
		return err
	}
	routerCfg, err := router.ConfigFromEnv()
	if err != nil {
		return err
	}

	sugar.Infow("starting webchat identity service", "mode", mode.String(), "addr", srvCfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := environment.New(mode, sugar)
	if err != nil {
		return err
	}
	if err := env.Init(ctx); err != nil {
		return err
	}
	defer func() {
		if err := env.CleanUp(); err != nil {
			sugar.Warnw("environment clean up failed", "err", err)
		}
	}()

	users := identity.NewUserService(env.Database(), env.IDs(), nil)
	if err := users.EnsureSystemGroups(ctx); err != nil {
		return err
	}
	tokens := authorization.NewService(env.KeyGen(), tokenCfg)

	handler := router.New(routerCfg, sugar, router.Deps{
		Users:  identity.NewHandler(users, sugar),
		Auth:   authorization.NewHandler(tokens, users, sugar),
		Tokens: tokens,
	})
	srv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
	return nil
}
