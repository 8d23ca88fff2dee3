package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/netnotes-cli/pkg/db"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/store/storetest"
)

func TestStoreConformance(t *testing.T) {
	dsn := os.Getenv("NETNOTES_TEST_PG_DSN")
	if dsn == "" || testing.Short() {
		t.Skip("NETNOTES_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	owner, err := Open(ctx, &db.Config{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = owner.Close() })

	storetest.Run(t, func(t *testing.T) people.Store {
		_, err := owner.Pool().Exec(ctx, `TRUNCATE trip_reachouts, trips, notes, people`)
		require.NoError(t, err)
		return New(owner.Pool())
	})
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullString(""))
	assert.Equal(t, "x", *nullString("x"))
	assert.Nil(t, nullInt(0))
	assert.Equal(t, int32(29), *nullInt(29))
	assert.Empty(t, deref(nil))

	lat, lng := splitCoords(nil)
	assert.Nil(t, lat)
	assert.Nil(t, lng)
	assert.Nil(t, joinCoords(nil, lng))

	lat, lng = splitCoords(&people.Coordinates{Lat: 1, Lng: 2})
	assert.Equal(t, &people.Coordinates{Lat: 1, Lng: 2}, joinCoords(lat, lng))
}

func TestForeignKeyViolation(t *testing.T) {
	assert.False(t, isForeignKeyViolation(nil))
	assert.False(t, isForeignKeyViolation(assert.AnError))
}
