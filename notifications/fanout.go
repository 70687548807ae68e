package notifications

import (
	"context"
	"errors"
)

// Publisher is anything that can deliver a payload to a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Fanout delivers every notification to all of its publishers. One failing
// transport does not stop the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, channel string, payload any) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, channel, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
