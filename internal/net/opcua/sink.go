package opcua

import (
	"context"
	"fmt"
	"time"

	ua "github.com/awcullen/opcua/ua"
	"github.com/awcullen/opcua/server"
	"github.com/pkg/errors"

	"sawmill/internal/points"
	"sawmill/internal/sink"
)

// NodeSink reads and writes point values directly on the local variable
// nodes. The server serializes node access with client sessions.
type NodeSink struct {
	reg       *points.Registry
	variables map[string]*server.VariableNode
	clock     func() time.Time
}

func NewNodeSink(reg *points.Registry, as *AddressSpace) *NodeSink {
	return &NodeSink{reg: reg, variables: as.Variables, clock: time.Now}
}

func (s *NodeSink) Read(_ context.Context, name string) (any, error) {
	v, ok := s.variables[name]
	if !ok {
		return nil, &sink.NotFoundError{Name: name}
	}
	dv := v.Value()
	if dv.StatusCode != 0 {
		return nil, errors.Errorf("read %s: node status %#x", name, uint32(dv.StatusCode))
	}
	return dv.Value, nil
}

func (s *NodeSink) Write(_ context.Context, name string, value any) error {
	v, ok := s.variables[name]
	if !ok {
		return &sink.NotFoundError{Name: name}
	}
	d, err := s.reg.Definition(name)
	if err != nil {
		return &sink.NotFoundError{Name: name}
	}
	if !d.Kind.Accepts(value) {
		return &sink.WriteRejectedError{Name: name, Reason: fmt.Sprintf("expected %s, got %T", d.Kind, value)}
	}

	now := s.clock()
	v.SetValue(ua.NewDataValue(value, 0, now, 0, now, 0))
	return nil
}
