package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/geoplus/internal/store"
)

func TestXYZUpsertAndPosition(t *testing.T) {
	mem := store.NewMemory()
	svc := NewXYZService(mem)

	added, err := svc.Upsert(context.Background(), "fleet", []XYZMember{
		{Name: "drone-1", Lon: 2.2945, Lat: 48.8584, Altitude: 120},
		{Name: "drone-2", Lon: 2.2950, Lat: 48.8590, Altitude: 85.5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	positions, err := svc.Position(context.Background(), "fleet", []string{"drone-1", "drone-2", "drone-3"})
	require.NoError(t, err)
	require.Len(t, positions, 3)

	require.NotNil(t, positions[0])
	assert.InDelta(t, 2.2945, positions[0].Lon, 1e-9)
	require.NotNil(t, positions[0].Altitude)
	assert.Equal(t, 120.0, *positions[0].Altitude)

	require.NotNil(t, positions[1])
	require.NotNil(t, positions[1].Altitude)
	assert.Equal(t, 85.5, *positions[1].Altitude)

	assert.Nil(t, positions[2])
}

func TestXYZUpsertCountsOnlyNewMembers(t *testing.T) {
	svc := NewXYZService(store.NewMemory())

	_, err := svc.Upsert(context.Background(), "fleet", []XYZMember{
		{Name: "drone-1", Lon: 1, Lat: 1, Altitude: 10},
	})
	require.NoError(t, err)

	added, err := svc.Upsert(context.Background(), "fleet", []XYZMember{
		{Name: "drone-1", Lon: 2, Lat: 2, Altitude: 20},
		{Name: "drone-2", Lon: 3, Lat: 3, Altitude: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)
}

func TestXYZRemove(t *testing.T) {
	svc := NewXYZService(store.NewMemory())

	_, err := svc.Upsert(context.Background(), "fleet", []XYZMember{
		{Name: "drone-1", Lon: 1, Lat: 1, Altitude: 10},
		{Name: "drone-2", Lon: 2, Lat: 2, Altitude: 20},
	})
	require.NoError(t, err)

	removed, err := svc.Remove(context.Background(), "fleet", []string{"drone-1", "drone-9"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// Both sides of the split record are gone.
	positions, err := svc.Position(context.Background(), "fleet", []string{"drone-1"})
	require.NoError(t, err)
	assert.Nil(t, positions[0])
}

func TestXYZEmptyInput(t *testing.T) {
	svc := NewXYZService(store.NewMemory())

	_, err := svc.Upsert(context.Background(), "fleet", nil)
	assert.Error(t, err)
	_, err = svc.Remove(context.Background(), "fleet", nil)
	assert.Error(t, err)
}
