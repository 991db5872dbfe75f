// Package sink defines the telemetry sink the simulation reads points from
// and writes them back to.
package sink

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"sawmill/internal/points"
)

// Sink exposes named points for reading and writing. Both calls may block on
// network I/O; callers pass a context but implementations apply no timeout.
type Sink interface {
	Read(ctx context.Context, name string) (any, error)
	Write(ctx context.Context, name string, value any) error
}

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("point %q not found", e.Name)
}

type WriteRejectedError struct {
	Name   string
	Reason string
}

func (e *WriteRejectedError) Error() string {
	return fmt.Sprintf("write to %q rejected: %s", e.Name, e.Reason)
}

// Memory is a sink backed directly by the point registry.
type Memory struct {
	reg *points.Registry
}

func NewMemory(reg *points.Registry) *Memory {
	return &Memory{reg: reg}
}

func (m *Memory) Read(_ context.Context, name string) (any, error) {
	v, err := m.reg.Get(name)
	if err != nil {
		return nil, &NotFoundError{Name: name}
	}
	return v, nil
}

func (m *Memory) Write(_ context.Context, name string, value any) error {
	d, err := m.reg.Definition(name)
	if err != nil {
		return &NotFoundError{Name: name}
	}
	if !d.Kind.Accepts(value) {
		return &WriteRejectedError{Name: name, Reason: fmt.Sprintf("expected %s, got %T", d.Kind, value)}
	}
	return m.reg.Set(name, value)
}

// Seed writes every registered point's seed value into s.
func Seed(ctx context.Context, s Sink, reg *points.Registry) error {
	for _, d := range reg.Definitions() {
		if err := s.Write(ctx, d.Name, d.Seed); err != nil {
			return errors.Wrapf(err, "seeding %s", d.Name)
		}
	}
	return nil
}

// Mirrored forwards reads and writes to an inner sink and records every value
// that passed through in the registry, so observers always see the last
// values the simulation exchanged with the sink.
type Mirrored struct {
	inner Sink
	reg   *points.Registry
}

func NewMirrored(inner Sink, reg *points.Registry) *Mirrored {
	return &Mirrored{inner: inner, reg: reg}
}

func (m *Mirrored) Read(ctx context.Context, name string) (any, error) {
	v, err := m.inner.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	_ = m.reg.Set(name, v)
	return v, nil
}

func (m *Mirrored) Write(ctx context.Context, name string, value any) error {
	if err := m.inner.Write(ctx, name, value); err != nil {
		return err
	}
	_ = m.reg.Set(name, value)
	return nil
}
