package seeders

import (
	"testing"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBSeed(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, DBSeed(testutil.Ctx(), db, 3))

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 3, count(&models.User{}))
	assert.EqualValues(t, 3, count(&models.Topic{}))
	assert.EqualValues(t, 6, count(&models.BlogPost{}))
	assert.EqualValues(t, 9, count(&models.Task{}))
	assert.EqualValues(t, 3, count(&models.Manufacturer{}))
	assert.EqualValues(t, 9, count(&models.Car{}))

	var chained int64
	require.NoError(t, db.Model(&models.BlogPost{}).Where("previous_id IS NOT NULL").Count(&chained).Error)
	assert.EqualValues(t, 3, chained)

	var cars []models.Car
	require.NoError(t, db.Find(&cars).Error)
	for _, car := range cars {
		assert.False(t, car.Price.IsNegative())
		assert.True(t, car.Price.Equal(car.Price.Round(2)))
	}
}

func TestDBSeedTwiceKeepsNamesUnique(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, DBSeed(testutil.Ctx(), db, 2))
	require.NoError(t, DBSeed(testutil.Ctx(), db, 2))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 4, users)
}

func TestDBSeedRejectsZero(t *testing.T) {
	db := testutil.NewDB(t)
	assert.Error(t, DBSeed(testutil.Ctx(), db, 0))
}
