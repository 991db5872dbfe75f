package plc

import (
	"context"
	"testing"

	"github.com/gopcua/opcua/ua"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sawmill/internal/points"
	"sawmill/internal/sink"
)

type fakeSession struct {
	nodes      map[string]*ua.Variant
	readStatus map[string]ua.StatusCode
	writes     []*ua.WriteValue
	err        error
}

func (f *fakeSession) Read(_ context.Context, vars []opcuaVariable) (*ua.ReadResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := &ua.ReadResponse{}
	for _, v := range vars {
		rv, err := v.asReadValue()
		if err != nil {
			return nil, err
		}
		if status, ok := f.readStatus[rv.NodeID.String()]; ok {
			resp.Results = append(resp.Results, &ua.DataValue{Status: status})
			continue
		}
		val, ok := f.nodes[rv.NodeID.String()]
		if !ok {
			resp.Results = append(resp.Results, &ua.DataValue{Status: ua.StatusBadNodeIDUnknown})
			continue
		}
		resp.Results = append(resp.Results, &ua.DataValue{Status: ua.StatusOK, Value: val})
	}
	return resp, nil
}

func (f *fakeSession) Write(_ context.Context, vars []opcuaVariable) (*ua.WriteResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := &ua.WriteResponse{}
	for _, v := range vars {
		wv, err := v.asWriteValue()
		if err != nil {
			return nil, err
		}
		id := wv.NodeID.String()
		if _, ok := f.nodes[id]; !ok {
			resp.Results = append(resp.Results, ua.StatusBadNodeIDUnknown)
			continue
		}
		f.nodes[id] = wv.Value.Value
		f.writes = append(f.writes, wv)
		resp.Results = append(resp.Results, ua.StatusOK)
	}
	return resp, nil
}

func newRemote(t *testing.T) (*RemoteSink, *fakeSession) {
	t.Helper()
	reg := points.NewRegistry(points.FullDefinitions())
	fs := &fakeSession{nodes: map[string]*ua.Variant{}}
	for _, d := range reg.Definitions() {
		id, err := ua.ParseNodeID(NodeID(DEFAULT_NAMESPACE, d))
		require.NoError(t, err)
		fs.nodes[id.String()] = ua.MustVariant(d.Seed)
	}
	return NewRemoteSink(fs, reg, DEFAULT_NAMESPACE), fs
}

func TestNodeID(t *testing.T) {
	d := points.Definition{Name: points.IS_ACTIVE, Group: points.GROUP_STATES, BrowseName: "IsActive"}
	assert.Equal(t, "ns=2;s=SawMill/States/IsActive", NodeID(2, d))
}

func TestWriteValueEncoding(t *testing.T) {
	cases := []struct {
		v    opcuaVariable
		want any
	}{
		{NewOpcuaBool("ns=2;s=SawMill/States/IsActive", true), true},
		{NewOpcuaDouble("ns=2;s=SawMill/Parameters/CuttingSpeed", 21.5), 21.5},
		{NewOpcuaInt32("ns=2;s=SawMill/Counters/PiecesCount", 7), int32(7)},
	}

	for _, tc := range cases {
		wv, err := tc.v.asWriteValue()
		require.NoError(t, err)
		assert.Equal(t, ua.AttributeIDValue, wv.AttributeID)
		assert.EqualValues(t, ua.DataValueValue, wv.Value.EncodingMask)
		assert.Equal(t, tc.want, wv.Value.Value.Value())

		rv, err := tc.v.asReadValue()
		require.NoError(t, err)
		assert.Equal(t, wv.NodeID.String(), rv.NodeID.String())
	}
}

func TestInvalidNodeID(t *testing.T) {
	for _, id := range []string{"ns=x;s=SawMill/States/IsActive", "ns=2;i=abc"} {
		_, err := NewOpcuaBool(id, false).asReadValue()
		assert.Error(t, err, id)
		_, err = NewOpcuaDouble(id, 0).asWriteValue()
		assert.Error(t, err, id)
	}
}

func TestRemoteReadWrite(t *testing.T) {
	r, fs := newRemote(t)
	ctx := context.Background()

	v, err := r.Read(ctx, points.MOTOR_SPEED)
	require.NoError(t, err)
	assert.Equal(t, points.SEED_MOTOR_SPEED, v)

	require.NoError(t, r.Write(ctx, points.PIECES_COUNT, int32(3)))
	v, err = r.Read(ctx, points.PIECES_COUNT)
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
	require.Len(t, fs.writes, 1)
}

func TestRemoteErrors(t *testing.T) {
	r, fs := newRemote(t)
	ctx := context.Background()

	var nf *sink.NotFoundError
	_, err := r.Read(ctx, "torque")
	assert.True(t, errors.As(err, &nf))

	var rej *sink.WriteRejectedError
	err = r.Write(ctx, points.IS_ACTIVE, 1.0)
	assert.True(t, errors.As(err, &rej))
	assert.Empty(t, fs.writes)

	// Point known locally but missing on the server.
	for id := range fs.nodes {
		delete(fs.nodes, id)
	}
	_, err = r.Read(ctx, points.IS_ACTIVE)
	assert.True(t, errors.As(err, &nf))
	err = r.Write(ctx, points.IS_ACTIVE, true)
	assert.True(t, errors.As(err, &nf))

	fs.err = errors.New("secure channel closed")
	_, err = r.Read(ctx, points.IS_ACTIVE)
	assert.EqualError(t, err, "secure channel closed")
}

func TestStatusErrors(t *testing.T) {
	var rej *sink.WriteRejectedError
	err := writeStatusError(points.HAS_ALARM, ua.StatusBadNotWritable)
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, points.HAS_ALARM, rej.Name)

	var nf *sink.NotFoundError
	assert.True(t, errors.As(readStatusError(points.HAS_ALARM, ua.StatusBadNodeIDUnknown), &nf))
	assert.True(t, errors.As(writeStatusError(points.HAS_ALARM, ua.StatusBadNodeIDUnknown), &nf))
}

func TestRemoteReadFailureIsNotAWriteRejection(t *testing.T) {
	r, fs := newRemote(t)
	d, err := points.NewRegistry(points.FullDefinitions()).Definition(points.IS_ACTIVE)
	require.NoError(t, err)
	id, err := ua.ParseNodeID(NodeID(DEFAULT_NAMESPACE, d))
	require.NoError(t, err)
	fs.readStatus = map[string]ua.StatusCode{id.String(): ua.StatusBadNotReadable}

	_, err = r.Read(context.Background(), points.IS_ACTIVE)
	require.Error(t, err)

	var rej *sink.WriteRejectedError
	var nf *sink.NotFoundError
	assert.False(t, errors.As(err, &rej))
	assert.False(t, errors.As(err, &nf))
	assert.Equal(t, ua.StatusBadNotReadable, errors.Cause(err))
}
