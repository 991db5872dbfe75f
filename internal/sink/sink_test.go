package sink

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sawmill/internal/points"
)

func TestMemoryReadWrite(t *testing.T) {
	ctx := context.Background()
	reg := points.NewRegistry(points.FullDefinitions())
	m := NewMemory(reg)

	require.NoError(t, m.Write(ctx, points.PIECES_COUNT, int32(7)))
	v, err := m.Read(ctx, points.PIECES_COUNT)
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
}

func TestMemoryUnknownPoint(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(points.NewRegistry(points.BasicDefinitions()))

	_, err := m.Read(ctx, points.TEMPERATURE)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, points.TEMPERATURE, nf.Name)

	err = m.Write(ctx, points.TEMPERATURE, 50.0)
	require.True(t, errors.As(err, &nf))
}

func TestMemoryRejectsTypeMismatch(t *testing.T) {
	m := NewMemory(points.NewRegistry(points.BasicDefinitions()))

	err := m.Write(context.Background(), points.IS_ACTIVE, 1.0)
	var rejected *WriteRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Contains(t, rejected.Error(), "expected bool")
}

func TestSeedRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	reg := points.NewRegistry(points.FullDefinitions())
	m := NewMemory(reg)
	require.NoError(t, m.Write(ctx, points.IS_STOPPED, false))

	require.NoError(t, Seed(ctx, m, reg))

	v, _ := m.Read(ctx, points.IS_STOPPED)
	assert.Equal(t, true, v)
}

func TestMirroredRecordsValues(t *testing.T) {
	ctx := context.Background()
	backing := points.NewRegistry(points.BasicDefinitions())
	observed := points.NewRegistry(points.BasicDefinitions())
	s := NewMirrored(NewMemory(backing), observed)

	require.NoError(t, backing.Set(points.CUTTING_SPEED, 22.5))
	_, err := s.Read(ctx, points.CUTTING_SPEED)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, points.HAS_ALARM, true))

	snap := observed.Snapshot()
	assert.Equal(t, 22.5, snap[points.CUTTING_SPEED])
	assert.Equal(t, true, snap[points.HAS_ALARM])
}
