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

	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/gink-client/internal/app"
	"github.com/Adda-Baaj/gink-client/internal/cli"
	"github.com/Adda-Baaj/gink-client/internal/config"
	"github.com/Adda-Baaj/gink-client/internal/logger"
)

const prog = "gink-embed"

var color = "auto"

func main() {
	if err := run(os.Args[1:]); err != nil {
		cli.Fatal(prog, color, err)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	listen := fs.String("listen", "", "serve the portal redirect on this address instead of printing the URL")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return cli.Exitf(cli.ExitUsage, "%v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	color = cfg.Color

	if fs.NArg() != 0 {
		return cli.Exitf(cli.ExitUsage, "Prints the portal auto-login URL for the configured user\nUSAGE: %s [--username u --password p] [--redirect page] [--listen addr]", prog)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := app.NewClient(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	if *listen == "" {
		target, err := app.EmbedURL(ctx, client, cfg)
		if err != nil {
			return err
		}
		fmt.Println(target)
		return nil
	}

	return serve(ctx, *listen, app.EmbedHandler(client, cfg, log), log)
}

func serve(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoObj("embed redirect listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.InfoObj("embed redirect stopped", "addr", addr)
	return nil
}
