package services

import (
	"context"
	"testing"
	"time"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/testutil"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheStoreHoldsBothLists(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cars := repositories.NewCarRepository(db)
	manufacturers := repositories.NewManufacturerRepository(db)

	ford := &models.Manufacturer{Name: "Ford"}
	require.NoError(t, db.Create(ford).Error)
	require.NoError(t, db.Create(&models.Car{Name: "Focus", ManufacturerID: ford.ID, Price: decimal.NewFromInt(20000)}).Error)

	st, err := NewLocalCacheStore()
	require.NoError(t, err)
	catalog := NewCatalogCache(st, cars, manufacturers)
	require.NoError(t, catalog.Refresh(ctx))

	m := marshaler.New(cache.New[any](st))
	// ristretto applies writes asynchronously.
	require.Eventually(t, func() bool {
		_, carErr := m.Get(ctx, CarCacheKey, new([]models.Car))
		_, manufacturerErr := m.Get(ctx, ManufacturerCacheKey, new([]models.Manufacturer))
		return carErr == nil && manufacturerErr == nil
	}, 2*time.Second, 10*time.Millisecond)

	// Rows gone from the database are still served from the cache.
	require.NoError(t, db.Exec("DELETE FROM cars").Error)
	cached, err := catalog.Cars(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Focus", cached[0].Name)
}
