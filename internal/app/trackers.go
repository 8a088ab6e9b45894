package app

import (
	"context"

	"github.com/Adda-Baaj/gink-client/internal/cli"
	"github.com/Adda-Baaj/gink-client/internal/domain"
	"github.com/Adda-Baaj/gink-client/pkg/gink"
)

// ListTrackers authenticates and fetches the trackers of the account.
func ListTrackers(ctx context.Context, client *gink.Client, identity, secret string) ([]domain.Tracker, error) {
	gw, err := Authenticate(ctx, client, identity, secret)
	if err != nil {
		return nil, err
	}
	if gw.TrackersURL == "" {
		return nil, cli.Exitf(cli.ExitGateway, "Error: gateway has no trackers_url")
	}

	res := client.Get(ctx, gw.TrackersURL)
	if !res.OK() {
		return nil, cli.Failed(cli.ExitFetch, "trackers", res)
	}

	var list domain.TrackerList
	if err := res.Decode(&list); err != nil {
		return nil, cli.Exitf(cli.ExitFetch, "Error: could not read trackers: %v", err)
	}
	return list.Trackers, nil
}
