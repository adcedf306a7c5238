package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/middlewares"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/Rakhulsr/go-portal/app/utils/breadcrumb"
	"github.com/rs/zerolog/hlog"
	"github.com/shopspring/decimal"
	"github.com/unrolled/render"
)

const (
	carListPath          = "/catalog/cars"
	manufacturerListPath = "/catalog/manufacturers"
	catalogDefaultSort   = "name"
)

var (
	carsCrumb          = breadcrumb.Breadcrumb{Name: "Cars", URL: carListPath}
	manufacturersCrumb = breadcrumb.Breadcrumb{Name: "Manufacturers", URL: manufacturerListPath}
)

type CatalogHandler struct {
	render   *render.Render
	catalog  *services.CatalogService
	pageSize int
}

func NewCatalogHandler(r *render.Render, catalog *services.CatalogService, pageSize int) *CatalogHandler {
	return &CatalogHandler{render: r, catalog: catalog, pageSize: pageSize}
}

func (h *CatalogHandler) ManufacturerList(w http.ResponseWriter, r *http.Request) {
	lq, page := listRequest(r, h.pageSize, catalogDefaultSort)
	manufacturers, pagination, err := runList(r, lq, page, catalogDefaultSort, func(q repositories.ListQuery) ([]models.Manufacturer, int64, error) {
		return h.catalog.ListManufacturers(r.Context(), q)
	})
	if err != nil {
		renderServiceError(h.render, w, r, "ManufacturerList", err)
		return
	}
	data := &ManufacturerListPageData{
		BasePageData:  helpers.GetBaseData(r, "Manufacturers", manufacturersCrumb),
		Manufacturers: manufacturers,
		Pagination:    pagination,
		Search:        lq.Search,
		Sort:          r.URL.Query().Get("sort"),
		CanCreate:     h.catalog.CanDo(r.Context(), helpers.UserFromContext(r.Context()), models.CapAddManufacturer),
	}
	renderList(h.render, w, r, "catalog/manufacturer_list", "catalog/components/manufacturer_table", data)
}

func (h *CatalogHandler) ManufacturerDetail(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	m, err := h.catalog.GetManufacturer(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "ManufacturerDetail", err)
		return
	}
	cars, _, err := h.catalog.ListCars(r.Context(), repositories.ListQuery{
		Filters: map[string]string{"manufacturer": idString(id)},
		Sort:    "name",
	})
	if err != nil {
		renderServiceError(h.render, w, r, "ManufacturerDetail", err)
		return
	}
	user := helpers.UserFromContext(r.Context())
	h.render.HTML(w, http.StatusOK, "catalog/manufacturer_detail", &ManufacturerDetailPageData{
		BasePageData: helpers.GetBaseData(r, m.Name, manufacturersCrumb, breadcrumb.Breadcrumb{Name: m.Name, URL: r.URL.Path}),
		Manufacturer: m,
		Cars:         cars,
		CanChange:    h.catalog.CanDo(r.Context(), user, models.CapChangeManufacturer),
		CanDelete:    h.catalog.CanDo(r.Context(), user, models.CapDeleteManufacturer),
	})
}

func (h *CatalogHandler) manufacturerFormPage(r *http.Request, id uint, name string) *ManufacturerFormPageData {
	title, action := "New manufacturer", "/catalog/manufacturers/create"
	if id != 0 {
		title, action = "Edit manufacturer", fmt.Sprintf("/catalog/manufacturers/update/%d", id)
	}
	return &ManufacturerFormPageData{
		BasePageData: helpers.GetBaseData(r, title, manufacturersCrumb, breadcrumb.Breadcrumb{Name: title, URL: action}),
		FormAction:   action,
		IsEdit:       id != 0,
		Name:         name,
		Errors:       map[string]string{},
	}
}

func (h *CatalogHandler) ManufacturerCreateGet(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "catalog/manufacturer_form", h.manufacturerFormPage(r, 0, ""))
}

func (h *CatalogHandler) ManufacturerCreatePost(w http.ResponseWriter, r *http.Request) {
	h.saveManufacturer(w, r, 0)
}

func (h *CatalogHandler) ManufacturerUpdateGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	m, err := h.catalog.GetManufacturer(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "ManufacturerUpdateGet", err)
		return
	}
	h.render.HTML(w, http.StatusOK, "catalog/manufacturer_form", h.manufacturerFormPage(r, id, m.Name))
}

func (h *CatalogHandler) ManufacturerUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	h.saveManufacturer(w, r, id)
}

func (h *CatalogHandler) saveManufacturer(w http.ResponseWriter, r *http.Request, id uint) {
	if err := r.ParseForm(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("saveManufacturer: error parsing form")
		helpers.RedirectWithMessage(w, r, manufacturerListPath, "error", "Could not read the submitted form.")
		return
	}
	in := services.ManufacturerInput{Name: r.PostFormValue("name")}
	actor := helpers.UserFromContext(r.Context())

	var err error
	if id == 0 {
		_, err = h.catalog.CreateManufacturer(r.Context(), actor, in)
	} else {
		_, err = h.catalog.UpdateManufacturer(r.Context(), actor, id, in)
	}
	if err == nil {
		http.Redirect(w, r, manufacturerListPath, http.StatusSeeOther)
		return
	}
	fieldErrs, ok := formErrors(err)
	if !ok {
		renderServiceError(h.render, w, r, "saveManufacturer", err)
		return
	}
	data := h.manufacturerFormPage(r, id, in.Name)
	data.Errors = fieldErrs
	h.render.HTML(w, http.StatusOK, "catalog/manufacturer_form", data)
}

func (h *CatalogHandler) ManufacturerDeleteGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	m, err := h.catalog.GetManufacturer(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "ManufacturerDeleteGet", err)
		return
	}
	h.render.HTML(w, http.StatusOK, "confirm_delete", &ConfirmDeletePageData{
		BasePageData: helpers.GetBaseData(r, "Delete manufacturer", manufacturersCrumb, breadcrumb.Breadcrumb{Name: "Delete", URL: r.URL.Path}),
		ObjectLabel:  "manufacturer and all of its cars",
		ObjectName:   m.Name,
		FormAction:   r.URL.Path,
		CancelURL:    manufacturerListPath,
	})
}

func (h *CatalogHandler) ManufacturerDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	if err := h.catalog.DeleteManufacturer(r.Context(), helpers.UserFromContext(r.Context()), id); err != nil {
		renderServiceError(h.render, w, r, "ManufacturerDeletePost", err)
		return
	}
	http.Redirect(w, r, manufacturerListPath, http.StatusSeeOther)
}

func (h *CatalogHandler) CarList(w http.ResponseWriter, r *http.Request) {
	lq, page := listRequest(r, h.pageSize, catalogDefaultSort, "manufacturer")
	cars, pagination, err := runList(r, lq, page, catalogDefaultSort, func(q repositories.ListQuery) ([]models.Car, int64, error) {
		return h.catalog.ListCars(r.Context(), q)
	})
	if err != nil {
		renderServiceError(h.render, w, r, "CarList", err)
		return
	}
	data := &CarListPageData{
		BasePageData: helpers.GetBaseData(r, "Cars", carsCrumb),
		Cars:         cars,
		Pagination:   pagination,
		Search:       lq.Search,
		Sort:         r.URL.Query().Get("sort"),
		Manufacturer: lq.Filters["manufacturer"],
		CanCreate:    h.catalog.CanDo(r.Context(), helpers.UserFromContext(r.Context()), models.CapAddCar),
	}
	if !helpers.IsPartialRequest(r) {
		manufacturers, err := h.catalog.Manufacturers(r.Context())
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("CarList: failed to load manufacturers")
		}
		data.ManufacturerOptions = manufacturerOptions(manufacturers, data.Manufacturer)
	}
	renderList(h.render, w, r, "catalog/car_list", "catalog/components/car_table", data)
}

func (h *CatalogHandler) CarDetail(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	car, err := h.catalog.GetCar(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "CarDetail", err)
		return
	}
	user := helpers.UserFromContext(r.Context())
	h.render.HTML(w, http.StatusOK, "catalog/car_detail", &CarDetailPageData{
		BasePageData: helpers.GetBaseData(r, car.Name, carsCrumb, breadcrumb.Breadcrumb{Name: car.Name, URL: r.URL.Path}),
		Car:          car,
		CanChange:    h.catalog.CanDo(r.Context(), user, models.CapChangeCar),
		CanDelete:    h.catalog.CanDo(r.Context(), user, models.CapDeleteCar),
	})
}

func (h *CatalogHandler) carFormPage(r *http.Request, id uint, form CarForm) *CarFormPageData {
	title, action := "New car", "/catalog/cars/create"
	if id != 0 {
		title, action = "Edit car", fmt.Sprintf("/catalog/cars/update/%d", id)
	}
	data := &CarFormPageData{
		BasePageData: helpers.GetBaseData(r, title, carsCrumb, breadcrumb.Breadcrumb{Name: title, URL: action}),
		FormAction:   action,
		IsEdit:       id != 0,
		Form:         form,
		Errors:       map[string]string{},
	}
	manufacturers, err := h.catalog.Manufacturers(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("carFormPage: failed to load manufacturers")
	}
	data.ManufacturerOptions = manufacturerOptions(manufacturers, form.Manufacturer)
	return data
}

func (h *CatalogHandler) CarCreateGet(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "catalog/car_form", h.carFormPage(r, 0, CarForm{Price: "0.00"}))
}

func (h *CatalogHandler) CarCreatePost(w http.ResponseWriter, r *http.Request) {
	h.saveCar(w, r, 0)
}

func (h *CatalogHandler) CarUpdateGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	car, err := h.catalog.GetCar(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "CarUpdateGet", err)
		return
	}
	form := CarForm{Name: car.Name, Manufacturer: idString(car.ManufacturerID), Price: car.Price.StringFixed(2)}
	h.render.HTML(w, http.StatusOK, "catalog/car_form", h.carFormPage(r, id, form))
}

func (h *CatalogHandler) CarUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	h.saveCar(w, r, id)
}

func (h *CatalogHandler) saveCar(w http.ResponseWriter, r *http.Request, id uint) {
	if err := r.ParseForm(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("saveCar: error parsing form")
		helpers.RedirectWithMessage(w, r, carListPath, "error", "Could not read the submitted form.")
		return
	}
	form := CarForm{
		Name:         r.PostFormValue("name"),
		Manufacturer: r.PostFormValue("manufacturer"),
		Price:        strings.TrimSpace(r.PostFormValue("price")),
	}

	fieldErrs := map[string]string{}
	in := services.CarInput{Name: form.Name}
	if form.Manufacturer != "" {
		mid, err := helpers.ParseUint(form.Manufacturer)
		if err != nil {
			fieldErrs["manufacturer"] = invalidChoiceMessage
		}
		in.ManufacturerID = mid
	}
	if form.Price != "" {
		price, err := decimal.NewFromString(form.Price)
		if err != nil {
			fieldErrs["price"] = "Enter a number."
		}
		in.Price = price
	}

	if len(fieldErrs) == 0 {
		actor := helpers.UserFromContext(r.Context())
		var err error
		if id == 0 {
			_, err = h.catalog.CreateCar(r.Context(), actor, in)
		} else {
			_, err = h.catalog.UpdateCar(r.Context(), actor, id, in)
		}
		if err == nil {
			http.Redirect(w, r, carListPath, http.StatusSeeOther)
			return
		}
		var ok bool
		if fieldErrs, ok = formErrors(err); !ok {
			renderServiceError(h.render, w, r, "saveCar", err)
			return
		}
	}

	data := h.carFormPage(r, id, form)
	data.Errors = fieldErrs
	h.render.HTML(w, http.StatusOK, "catalog/car_form", data)
}

func (h *CatalogHandler) CarDeleteGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	car, err := h.catalog.GetCar(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "CarDeleteGet", err)
		return
	}
	h.render.HTML(w, http.StatusOK, "confirm_delete", &ConfirmDeletePageData{
		BasePageData: helpers.GetBaseData(r, "Delete car", carsCrumb, breadcrumb.Breadcrumb{Name: "Delete", URL: r.URL.Path}),
		ObjectLabel:  "car",
		ObjectName:   car.Name,
		FormAction:   r.URL.Path,
		CancelURL:    carListPath,
	})
}

func (h *CatalogHandler) CarDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	if err := h.catalog.DeleteCar(r.Context(), helpers.UserFromContext(r.Context()), id); err != nil {
		renderServiceError(h.render, w, r, "CarDeletePost", err)
		return
	}
	http.Redirect(w, r, carListPath, http.StatusSeeOther)
}
