package messaging

import (
	"context"
	"errors"

	"stockpilot/internal/model"
)

// Publisher delivers domain events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event *model.Event) error
	Close() error
}

type noopPublisher struct{}

// Noop returns a publisher that drops every event
func Noop() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, *model.Event) error { return nil }
func (noopPublisher) Close() error                                { return nil }

type fanout []Publisher

// Fanout publishes each event to every publisher in order. Every publisher is
// attempted; the returned error joins the individual failures.
func Fanout(publishers ...Publisher) Publisher {
	return fanout(publishers)
}

func (f fanout) Publish(ctx context.Context, event *model.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
