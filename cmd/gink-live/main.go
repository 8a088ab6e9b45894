package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/gink-client/internal/app"
	"github.com/Adda-Baaj/gink-client/internal/cli"
	"github.com/Adda-Baaj/gink-client/internal/config"
	"github.com/Adda-Baaj/gink-client/internal/logger"
)

const prog = "gink-live"

var color = "auto"

func main() {
	if err := run(os.Args[1:]); err != nil {
		cli.Fatal(prog, color, err)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	config.RegisterFlags(fs)
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

	if fs.NArg() < 1 || fs.NArg() > 2 {
		return cli.Exitf(cli.ExitUsage, "Polls live tracker updates for user in gink-ws\nUSAGE: %s [flags] <key> | <user> <pass>\nNote: stop with Ctrl-C", prog)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.InfoObj("live poller starting", "config", map[string]any{
		"url":             cfg.URL,
		"publishers_file": cfg.PublishersFile,
		"storage_type":    cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := app.NewClient(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	poller, err := app.NewLivePoller(ctx, cfg, client, os.Stdout, log)
	if err != nil {
		return fmt.Errorf("init live poller: %w", err)
	}
	return poller.Run(ctx, fs.Arg(0), fs.Arg(1))
}
