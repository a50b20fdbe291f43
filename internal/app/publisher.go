package app

import (
	"context"
	"errors"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// FanOut publishes every event to each publisher in order.
type FanOut []domain.EventPublisher

// Compile-time check: FanOut implements domain.EventPublisher.
var _ domain.EventPublisher = FanOut(nil)

// Publish delivers to all publishers even when one fails and joins the errors.
func (f FanOut) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
