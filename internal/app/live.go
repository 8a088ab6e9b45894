package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/Adda-Baaj/gink-client/internal/cli"
	"github.com/Adda-Baaj/gink-client/internal/config"
	"github.com/Adda-Baaj/gink-client/internal/logger"
	"github.com/Adda-Baaj/gink-client/internal/poller"
	"github.com/Adda-Baaj/gink-client/internal/storage"
	"github.com/Adda-Baaj/gink-client/pkg/gink"
	"github.com/Adda-Baaj/gink-client/pkg/publishers"
)

const minRefresh = time.Second

// LivePoller follows the live object of the service: it prints every poll,
// publishes updates not seen before and waits as long as the service asks.
type LivePoller struct {
	client    *gink.Client
	processor *poller.Processor
	fanout    *publishers.Fanout
	store     storage.Store
	out       io.Writer
	color     string
	log       logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLivePoller wires the poller from config. A missing publishers file
// leaves publishing disabled.
func NewLivePoller(ctx context.Context, cfg *config.Config, client *gink.Client, out io.Writer, log logger.Logger) (*LivePoller, error) {
	if cfg == nil || client == nil {
		return nil, fmt.Errorf("config and client must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fanout, err := loadFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		UpdateTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"update_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	var pub poller.EventPublisher
	if fanout.Size() > 0 {
		pub = fanout
	}

	return &LivePoller{
		client:    client,
		processor: poller.NewProcessor(pub, log, store),
		fanout:    fanout,
		store:     store,
		out:       out,
		color:     cfg.Color,
		log:       log,
		now:       time.Now,
		sleep:     sleepContext,
	}, nil
}

func loadFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	reg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.InfoObj("no publishers file; publishing disabled", "publishers_file", cfg.PublishersFile)
		return publishers.NewFanout(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Run authenticates and polls until ctx is cancelled. Cancellation is a
// clean exit.
func (p *LivePoller) Run(ctx context.Context, identity, secret string) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("live poller is not initialized")
	}
	defer p.close()

	gw, err := Authenticate(ctx, p.client, identity, secret)
	if err != nil {
		return p.unlessCancelled(ctx, err)
	}
	if gw.LiveURL == "" {
		return cli.Exitf(cli.ExitGateway, "Error: gateway has no live_url")
	}

	p.log.InfoObj("live loop starting", "live_state", map[string]any{
		"live_url":         gw.LiveURL,
		"publishers_count": p.fanout.Size(),
	})

	liveURL := gw.LiveURL
	for {
		next, refresh, err := p.poll(ctx, liveURL)
		if err != nil {
			return p.unlessCancelled(ctx, err)
		}
		liveURL = next

		if err := p.sleep(ctx, refresh); err != nil {
			p.log.InfoObj("live loop exiting", "reason", err.Error())
			return nil
		}
	}
}

// poll fetches and prints one live object, returning where and when to poll
// next.
func (p *LivePoller) poll(ctx context.Context, liveURL string) (string, time.Duration, error) {
	res := p.client.Get(ctx, liveURL)
	if !res.OK() {
		return "", 0, cli.Failed(cli.ExitFetch, "Live Data", res)
	}

	snap, _, err := p.processor.Process(ctx, res.URL, res.Value)
	if errors.Is(err, poller.ErrMalformedLive) {
		return "", 0, cli.Exitf(cli.ExitFetch, "Error: could not read Live Data: %v", err)
	}
	if err != nil {
		p.log.ErrorObj("live publish failed", "error", err.Error())
	}
	if snap.LiveURL == "" {
		snap.LiveURL = liveURL
	}

	if err := cli.WriteLive(p.out, p.color, p.now(), snap); err != nil {
		return "", 0, fmt.Errorf("write live output: %w", err)
	}

	refresh := time.Duration(snap.Refresh) * time.Second
	if refresh < minRefresh {
		refresh = minRefresh
	}
	return snap.LiveURL, refresh, nil
}

func (p *LivePoller) unlessCancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		p.log.InfoObj("live loop exiting", "reason", ctx.Err().Error())
		return nil
	}
	return err
}

// close releases the storage backend and the publishers, logging failures.
func (p *LivePoller) close() {
	if err := p.store.Close(); err != nil {
		p.log.ErrorObj("storage close failed", "error", err.Error())
	}
	if err := p.fanout.Close(); err != nil {
		p.log.ErrorObj("publishers close failed", "error", err.Error())
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
