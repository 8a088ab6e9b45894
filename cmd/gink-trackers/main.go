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

const prog = "gink-trackers"

// color is set once the configuration is loaded so fatal errors honour it.
var color = "auto"

func main() {
	if err := run(os.Args[1:]); err != nil {
		cli.Fatal(prog, color, err)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	output := fs.StringP("output", "o", "table", "output format (table, yaml)")
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
		return cli.Exitf(cli.ExitUsage, "Lists trackers for user in gink-ws\nUSAGE: %s [flags] <key> | <user> <pass>", prog)
	}
	if *output != "table" && *output != "yaml" {
		return cli.Exitf(cli.ExitUsage, "unknown output format %q\nUSAGE: %s --output table|yaml", *output, prog)
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

	trackers, err := app.ListTrackers(ctx, client, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	if *output == "yaml" {
		return cli.WriteYAML(os.Stdout, trackers)
	}
	return cli.WriteTrackers(os.Stdout, cfg.Color, trackers)
}
