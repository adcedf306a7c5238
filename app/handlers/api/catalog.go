package api

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/samber/lo"
)

type ManufacturerOut struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type CarOut struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Price        string `json:"price"`
}

func carOut(c models.Car) CarOut {
	out := CarOut{ID: c.ID, Name: c.Name, Price: c.Price.StringFixed(2)}
	if c.Manufacturer != nil {
		out.Manufacturer = c.Manufacturer.Name
	}
	return out
}

// sortCached orders a cached list in place. keys maps each allowed sort
// key onto a comparison.
func sortCached[T any](items []T, sort string, keys map[string]func(a, b T) int) error {
	desc := strings.HasPrefix(sort, "-")
	compare, ok := keys[strings.TrimPrefix(sort, "-")]
	if !ok {
		return fmt.Errorf("%w: %s", repositories.ErrInvalidSort, strings.TrimPrefix(sort, "-"))
	}
	slices.SortStableFunc(items, func(a, b T) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return nil
}

// window applies offset and limit to an already filtered list.
func window[T any](items []T, lq repositories.ListQuery) []T {
	end := len(items)
	if lq.Limit > 0 {
		end = min(lq.Offset+lq.Limit, len(items))
	}
	return lo.Slice(items, lq.Offset, end)
}

// ListCars reads through the catalog cache instead of querying per request.
func (h *Handler) ListCars(w http.ResponseWriter, r *http.Request) {
	lq, err := h.listQuery(r, map[string]string{"manufacturer": "manufacturer_name"})
	if err != nil {
		h.fail(w, r, "ListCars", err)
		return
	}
	cached, err := h.catalog.Cars(r.Context())
	if err != nil {
		h.fail(w, r, "ListCars", err)
		return
	}

	cars := slices.Clone(cached)
	if name, ok := lq.Filters["manufacturer_name"]; ok {
		cars = lo.Filter(cars, func(c models.Car, _ int) bool {
			return c.Manufacturer != nil && c.Manufacturer.Name == name
		})
	}
	err = sortCached(cars, lq.Sort, map[string]func(a, b models.Car) int{
		"id":           func(a, b models.Car) int { return cmp.Compare(a.ID, b.ID) },
		"name":         func(a, b models.Car) int { return cmp.Compare(a.Name, b.Name) },
		"price":        func(a, b models.Car) int { return a.Price.Cmp(b.Price) },
		"manufacturer": func(a, b models.Car) int { return cmp.Compare(a.ManufacturerID, b.ManufacturerID) },
	})
	if err != nil {
		h.fail(w, r, "ListCars", err)
		return
	}

	items := lo.Map(window(cars, lq), func(c models.Car, _ int) CarOut { return carOut(c) })
	h.render.JSON(w, http.StatusOK, Page[CarOut]{Items: items, Count: int64(len(cars))})
}

func (h *Handler) ListManufacturers(w http.ResponseWriter, r *http.Request) {
	lq, err := h.listQuery(r, nil)
	if err != nil {
		h.fail(w, r, "ListManufacturers", err)
		return
	}
	cached, err := h.catalog.Manufacturers(r.Context())
	if err != nil {
		h.fail(w, r, "ListManufacturers", err)
		return
	}

	manufacturers := slices.Clone(cached)
	err = sortCached(manufacturers, lq.Sort, map[string]func(a, b models.Manufacturer) int{
		"id":   func(a, b models.Manufacturer) int { return cmp.Compare(a.ID, b.ID) },
		"name": func(a, b models.Manufacturer) int { return cmp.Compare(a.Name, b.Name) },
	})
	if err != nil {
		h.fail(w, r, "ListManufacturers", err)
		return
	}

	items := lo.Map(window(manufacturers, lq), func(m models.Manufacturer, _ int) ManufacturerOut {
		return ManufacturerOut{ID: m.ID, Name: m.Name}
	})
	h.render.JSON(w, http.StatusOK, Page[ManufacturerOut]{Items: items, Count: int64(len(manufacturers))})
}
