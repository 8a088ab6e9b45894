package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Fanout dispatches events to all configured publishers.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher that fans out events across publishers.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return &Fanout{publishers: cp}
}

// Publish forwards the event to every publisher, even after a failure.
// It returns how many publishers handled the event and the joined errors of
// the others.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases every publisher holding a connection.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.publishers)
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
