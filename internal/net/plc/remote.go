package plc

import (
	"context"
	"fmt"

	"github.com/gopcua/opcua/ua"
	"github.com/pkg/errors"

	"sawmill/internal/points"
	"sawmill/internal/sink"
)

// NodeID is the string node identifier of a point on a server that hosts the
// SawMill tree in namespace ns.
func NodeID(ns uint16, d points.Definition) string {
	return fmt.Sprintf("ns=%d;s=%s", ns, d.Path())
}

// RemoteSink reads and writes the points on an external OPC UA server.
type RemoteSink struct {
	session session
	reg     *points.Registry
	ns      uint16
}

func NewRemoteSink(s session, reg *points.Registry, ns uint16) *RemoteSink {
	return &RemoteSink{session: s, reg: reg, ns: ns}
}

func (r *RemoteSink) variable(d points.Definition, value any) (opcuaVariable, error) {
	id := NodeID(r.ns, d)
	switch d.Kind {
	case points.KindBool:
		b, _ := value.(bool)
		return NewOpcuaBool(id, b), nil
	case points.KindDouble:
		f, _ := value.(float64)
		return NewOpcuaDouble(id, f), nil
	case points.KindInt32:
		i, _ := value.(int32)
		return NewOpcuaInt32(id, i), nil
	default:
		return nil, errors.Errorf("point %s has unsupported kind %s", d.Name, d.Kind)
	}
}

func (r *RemoteSink) Read(ctx context.Context, name string) (any, error) {
	d, err := r.reg.Definition(name)
	if err != nil {
		return nil, &sink.NotFoundError{Name: name}
	}
	v, err := r.variable(d, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.session.Read(ctx, []opcuaVariable{v})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) != 1 {
		return nil, errors.Errorf("read %s: expected 1 result, got %d", name, len(resp.Results))
	}

	res := resp.Results[0]
	if res.Status != ua.StatusOK {
		return nil, readStatusError(name, res.Status)
	}
	if res.Value == nil {
		return nil, errors.Errorf("read %s: empty value", name)
	}
	return res.Value.Value(), nil
}

func (r *RemoteSink) Write(ctx context.Context, name string, value any) error {
	d, err := r.reg.Definition(name)
	if err != nil {
		return &sink.NotFoundError{Name: name}
	}
	if !d.Kind.Accepts(value) {
		return &sink.WriteRejectedError{Name: name, Reason: fmt.Sprintf("expected %s, got %T", d.Kind, value)}
	}
	v, err := r.variable(d, value)
	if err != nil {
		return err
	}

	resp, err := r.session.Write(ctx, []opcuaVariable{v})
	if err != nil {
		return err
	}
	if len(resp.Results) != 1 {
		return errors.Errorf("write %s: expected 1 result, got %d", name, len(resp.Results))
	}
	if resp.Results[0] != ua.StatusOK {
		return writeStatusError(name, resp.Results[0])
	}
	return nil
}

func readStatusError(name string, status ua.StatusCode) error {
	if status == ua.StatusBadNodeIDUnknown {
		return &sink.NotFoundError{Name: name}
	}
	return errors.Wrapf(status, "read %s", name)
}

func writeStatusError(name string, status ua.StatusCode) error {
	if status == ua.StatusBadNodeIDUnknown {
		return &sink.NotFoundError{Name: name}
	}
	return &sink.WriteRejectedError{Name: name, Reason: status.Error()}
}
