// Package poller turns live objects of the GINK service into published
// update events.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/gink-client/internal/domain"
	"github.com/Adda-Baaj/gink-client/internal/logger"
	"github.com/Adda-Baaj/gink-client/pkg/gink"
	"github.com/Adda-Baaj/gink-client/pkg/publishers"
)

// ErrMalformedLive reports a live object that could not be decoded.
var ErrMalformedLive = errors.New("malformed live object")

// Stats summarizes one processed live object.
type Stats struct {
	Updates   int `json:"updates"`
	Fresh     int `json:"fresh"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// Processor decodes live objects and publishes the updates not seen before.
type Processor struct {
	publisher EventPublisher
	store     Deduper
	log       logger.Logger
}

// NewProcessor wires a processor. publisher and store may be nil, in which
// case updates are only decoded.
func NewProcessor(publisher EventPublisher, log logger.Logger, store Deduper) *Processor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Processor{publisher: publisher, store: store, log: log}
}

// Process decodes live, read from source, and publishes its fresh updates.
// The snapshot is returned even when publishing fails.
func (p *Processor) Process(ctx context.Context, source string, live *gink.Value) (domain.LiveSnapshot, Stats, error) {
	var snap domain.LiveSnapshot
	if live == nil {
		return snap, Stats{}, fmt.Errorf("%w: no content", ErrMalformedLive)
	}
	if err := live.Decode(&snap); err != nil {
		return snap, Stats{}, fmt.Errorf("%w: %v", ErrMalformedLive, err)
	}
	attachRaw(snap.Updates, live.Get("updates"))

	stats := Stats{Updates: len(snap.Updates)}
	if p.publisher == nil || len(snap.Updates) == 0 {
		return snap, stats, nil
	}

	fresh := p.filterNewUpdates(snap.Updates)
	stats.Fresh = len(fresh)

	var errs []error
	for _, u := range fresh {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.publish(ctx, source, u); err != nil {
			stats.Failed++
			errs = append(errs, err)
			continue
		}
		stats.Published++
	}

	p.log.InfoObj("live object processed", "live_result", map[string]any{
		"source":    source,
		"updates":   stats.Updates,
		"fresh":     stats.Fresh,
		"published": stats.Published,
		"failed":    stats.Failed,
	})
	return snap, stats, errors.Join(errs...)
}

// attachRaw keeps the service's own rendering of every update.
func attachRaw(updates []domain.LiveUpdate, items *gink.Value) {
	if items.Len() != len(updates) {
		return
	}
	for i, item := range items.Items() {
		updates[i].Raw = json.RawMessage(item.String())
	}
}

// filterNewUpdates drops updates already marked. Lookup failures keep the
// update, so it is published rather than lost.
func (p *Processor) filterNewUpdates(updates []domain.LiveUpdate) []domain.LiveUpdate {
	if p.store == nil {
		return updates
	}

	out := make([]domain.LiveUpdate, 0, len(updates))
	for _, u := range updates {
		seen, err := p.store.SeenUpdate(u.Key())
		if err != nil {
			p.log.WarnObj("update lookup failed", "storage_error", map[string]any{
				"update_key": u.Key(),
				"error":      err.Error(),
			})
			out = append(out, u)
			continue
		}
		if !seen {
			out = append(out, u)
		}
	}
	return out
}

func (p *Processor) publish(ctx context.Context, source string, u domain.LiveUpdate) error {
	delivered, err := p.publisher.Publish(ctx, publishers.NewEvent(source, u))
	if err != nil {
		p.log.ErrorObj("update publish failed", "publish_error", map[string]any{
			"update_key": u.Key(),
			"delivered":  delivered,
			"error":      err.Error(),
		})
	}
	if delivered == 0 {
		if err == nil {
			return nil
		}
		return fmt.Errorf("publish update %s: %w", u.Key(), err)
	}

	if p.store != nil {
		if markErr := p.store.MarkUpdate(u.Key()); markErr != nil {
			p.log.WarnObj("update mark failed", "storage_error", map[string]any{
				"update_key": u.Key(),
				"error":      markErr.Error(),
			})
		}
	}
	if err != nil {
		return fmt.Errorf("publish update %s: %w", u.Key(), err)
	}
	return nil
}
