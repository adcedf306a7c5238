package services

import (
	"context"
	"errors"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	redis_store "github.com/eko/gocache/store/redis/v4"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	CarCacheKey          = "car_data"
	ManufacturerCacheKey = "manufacturer_data"
)

// NewLocalCacheStore is the in-process store used when no CACHE_URL is set.
// Entries are stored with cost 0, so internal cost accounting must be off
// or the second list evicts the first.
func NewLocalCacheStore() (store.StoreInterface, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        1000,
		MaxCost:            100,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return ristretto_store.NewRistretto(client), nil
}

func NewRedisCacheStore(client *redis.Client) store.StoreInterface {
	return redis_store.NewRedis(client)
}

// CatalogCache is a read-through cache of the full car and manufacturer
// lists. A nil store disables caching.
type CatalogCache struct {
	marshal       *marshaler.Marshaler
	cars          repositories.CarRepositoryImpl
	manufacturers repositories.ManufacturerRepositoryImpl
}

func NewCatalogCache(s store.StoreInterface, cars repositories.CarRepositoryImpl, manufacturers repositories.ManufacturerRepositoryImpl) *CatalogCache {
	c := &CatalogCache{cars: cars, manufacturers: manufacturers}
	if s != nil {
		c.marshal = marshaler.New(cache.New[any](s))
	}
	return c
}

func (c *CatalogCache) Enabled() bool {
	return c.marshal != nil
}

func (c *CatalogCache) Cars(ctx context.Context) ([]models.Car, error) {
	if c.marshal != nil {
		if cached, err := c.marshal.Get(ctx, CarCacheKey, new([]models.Car)); err == nil {
			if cars, ok := cached.(*[]models.Car); ok {
				return *cars, nil
			}
		}
	}
	cars, err := c.cars.All(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, CarCacheKey, cars)
	return cars, nil
}

func (c *CatalogCache) Manufacturers(ctx context.Context) ([]models.Manufacturer, error) {
	if c.marshal != nil {
		if cached, err := c.marshal.Get(ctx, ManufacturerCacheKey, new([]models.Manufacturer)); err == nil {
			if manufacturers, ok := cached.(*[]models.Manufacturer); ok {
				return *manufacturers, nil
			}
		}
	}
	manufacturers, err := c.manufacturers.All(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, ManufacturerCacheKey, manufacturers)
	return manufacturers, nil
}

func (c *CatalogCache) set(ctx context.Context, key string, value any) {
	if c.marshal == nil {
		return
	}
	if err := c.marshal.Set(ctx, key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to populate catalog cache")
	}
}

// Refresh drops both entries and repopulates them. Every catalog write
// calls it, since a car row embeds its manufacturer.
func (c *CatalogCache) Refresh(ctx context.Context) error {
	if c.marshal == nil {
		return nil
	}
	var errs []error
	for _, key := range []string{CarCacheKey, ManufacturerCacheKey} {
		if err := c.marshal.Delete(ctx, key); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("cache delete")
		}
	}
	if _, err := c.Cars(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Manufacturers(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
