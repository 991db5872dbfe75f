package mirror

import (
	"context"

	"github.com/pkg/errors"
)

type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Fanout publishes to every publisher and returns the first error after
// trying them all.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, key string, payload []byte) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, key, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) Close() error {
	var first error
	for _, p := range f {
		if err := p.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "closing publisher")
		}
	}
	return first
}
