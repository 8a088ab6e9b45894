package app

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/gink-client/internal/cli"
	"github.com/Adda-Baaj/gink-client/internal/config"
	"github.com/Adda-Baaj/gink-client/internal/domain"
	"github.com/Adda-Baaj/gink-client/internal/logger"
	"github.com/Adda-Baaj/gink-client/pkg/gink"
)

// NewClient builds the GINK client described by cfg.
func NewClient(cfg *config.Config, log logger.Logger) (*gink.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	client, err := gink.New(gink.Config{
		BaseURL:      cfg.URL,
		Username:     cfg.Username,
		Password:     cfg.Password,
		WorkDir:      cfg.TmpDir,
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
	}, gink.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create gink client: %w", err)
	}
	return client, nil
}

// Authenticate requests a token and returns the token-authenticated gateway.
// secret is the password of identity; an empty secret makes identity a
// pre-shared key.
func Authenticate(ctx context.Context, client *gink.Client, identity, secret string) (domain.Gateway, error) {
	var opts []gink.TokenOption
	if secret != "" {
		opts = append(opts, gink.WithPassword(secret))
	}

	res := client.Token(ctx, identity, opts...)
	if !res.OK() {
		return domain.Gateway{}, cli.Failed(cli.ExitGateway, "gateway", res)
	}

	var gw domain.Gateway
	if err := res.Decode(&gw); err != nil {
		return domain.Gateway{}, cli.Exitf(cli.ExitGateway, "Error: could not read gateway: %v", err)
	}
	return gw, nil
}
