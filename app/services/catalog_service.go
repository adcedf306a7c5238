package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var maxCarPrice = decimal.New(1, 10)

type ManufacturerInput struct {
	Name string `json:"name" form:"name" validate:"required,max=100"`
}

type CarInput struct {
	Name           string          `json:"name" form:"name" validate:"required,max=100"`
	ManufacturerID uint            `json:"manufacturer" form:"manufacturer" validate:"required"`
	Price          decimal.Decimal `json:"price" form:"price"`
}

// CatalogService validates every catalog row in full before saving and
// refreshes the catalog cache after each write.
type CatalogService struct {
	cars          repositories.CarRepositoryImpl
	manufacturers repositories.ManufacturerRepositoryImpl
	perms         repositories.PermissionRepositoryImpl
	cache         *CatalogCache
	validate      *validator.Validate
}

func NewCatalogService(
	cars repositories.CarRepositoryImpl,
	manufacturers repositories.ManufacturerRepositoryImpl,
	perms repositories.PermissionRepositoryImpl,
	cache *CatalogCache,
	validate *validator.Validate,
) *CatalogService {
	return &CatalogService{
		cars:          cars,
		manufacturers: manufacturers,
		perms:         perms,
		cache:         cache,
		validate:      validate,
	}
}

func (s *CatalogService) refresh(ctx context.Context) {
	if err := s.cache.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to refresh catalog cache")
	}
}

func (s *CatalogService) Cars(ctx context.Context) ([]models.Car, error) {
	return s.cache.Cars(ctx)
}

func (s *CatalogService) Manufacturers(ctx context.Context) ([]models.Manufacturer, error) {
	return s.cache.Manufacturers(ctx)
}

func (s *CatalogService) ListCars(ctx context.Context, q repositories.ListQuery) ([]models.Car, int64, error) {
	return s.cars.List(ctx, q)
}

func (s *CatalogService) ListManufacturers(ctx context.Context, q repositories.ListQuery) ([]models.Manufacturer, int64, error) {
	return s.manufacturers.List(ctx, q)
}

func (s *CatalogService) GetCar(ctx context.Context, id uint) (*models.Car, error) {
	return s.cars.GetByID(ctx, id)
}

func (s *CatalogService) GetManufacturer(ctx context.Context, id uint) (*models.Manufacturer, error) {
	return s.manufacturers.GetByID(ctx, id)
}

func (s *CatalogService) validateManufacturer(ctx context.Context, id uint, in *ManufacturerInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(s.validate, in); err != nil {
		return err
	}
	taken, err := s.manufacturers.NameTaken(ctx, in.Name, id)
	if err != nil {
		return err
	}
	if taken {
		return invalid("name", "unique", "Manufacturer with this Name already exists.")
	}
	return nil
}

func (s *CatalogService) CreateManufacturer(ctx context.Context, actor *models.User, in ManufacturerInput) (*models.Manufacturer, error) {
	if err := requireCapability(ctx, s.perms, actor, models.CapAddManufacturer); err != nil {
		return nil, err
	}
	if err := s.validateManufacturer(ctx, 0, &in); err != nil {
		return nil, err
	}
	m := &models.Manufacturer{Name: in.Name}
	if err := s.manufacturers.Create(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("name", "unique", "Manufacturer with this Name already exists.")
		}
		return nil, err
	}
	s.refresh(ctx)
	return m, nil
}

func (s *CatalogService) UpdateManufacturer(ctx context.Context, actor *models.User, id uint, in ManufacturerInput) (*models.Manufacturer, error) {
	if err := requireCapability(ctx, s.perms, actor, models.CapChangeManufacturer); err != nil {
		return nil, err
	}
	m, err := s.manufacturers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateManufacturer(ctx, id, &in); err != nil {
		return nil, err
	}
	m.Name = in.Name
	if err := s.manufacturers.Update(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("name", "unique", "Manufacturer with this Name already exists.")
		}
		return nil, err
	}
	s.refresh(ctx)
	return m, nil
}

// DeleteManufacturer also removes its cars.
func (s *CatalogService) DeleteManufacturer(ctx context.Context, actor *models.User, id uint) error {
	if err := requireCapability(ctx, s.perms, actor, models.CapDeleteManufacturer); err != nil {
		return err
	}
	if err := s.manufacturers.Delete(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *CatalogService) validateCar(ctx context.Context, id uint, in *CarInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(s.validate, in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return invalid("price", "value_error", "Ensure this value is greater than or equal to 0.")
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return invalid("price", "value_error", "Ensure that there are no more than 2 decimal places.")
	}
	if in.Price.GreaterThanOrEqual(maxCarPrice) {
		return invalid("price", "value_error", "Ensure that there are no more than 12 digits in total.")
	}
	if _, err := s.manufacturers.GetByID(ctx, in.ManufacturerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return invalid("manufacturer", "invalid_choice", "Select a valid choice. That choice is not one of the available choices.")
		}
		return err
	}
	taken, err := s.cars.PairTaken(ctx, in.Name, in.ManufacturerID, id)
	if err != nil {
		return err
	}
	if taken {
		return invalid("name", "unique", "Car with this Name and Manufacturer already exists.")
	}
	return nil
}

func (s *CatalogService) CreateCar(ctx context.Context, actor *models.User, in CarInput) (*models.Car, error) {
	if err := requireCapability(ctx, s.perms, actor, models.CapAddCar); err != nil {
		return nil, err
	}
	if err := s.validateCar(ctx, 0, &in); err != nil {
		return nil, err
	}
	car := &models.Car{Name: in.Name, ManufacturerID: in.ManufacturerID, Price: in.Price}
	if err := s.cars.Create(ctx, car); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("name", "unique", "Car with this Name and Manufacturer already exists.")
		}
		return nil, err
	}
	s.refresh(ctx)
	return s.cars.GetByID(ctx, car.ID)
}

func (s *CatalogService) UpdateCar(ctx context.Context, actor *models.User, id uint, in CarInput) (*models.Car, error) {
	if err := requireCapability(ctx, s.perms, actor, models.CapChangeCar); err != nil {
		return nil, err
	}
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateCar(ctx, id, &in); err != nil {
		return nil, err
	}
	car.Name = in.Name
	car.ManufacturerID = in.ManufacturerID
	car.Price = in.Price
	car.Manufacturer = nil
	if err := s.cars.Update(ctx, car); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("name", "unique", "Car with this Name and Manufacturer already exists.")
		}
		return nil, err
	}
	s.refresh(ctx)
	return s.cars.GetByID(ctx, id)
}

func (s *CatalogService) DeleteCar(ctx context.Context, actor *models.User, id uint) error {
	if err := requireCapability(ctx, s.perms, actor, models.CapDeleteCar); err != nil {
		return err
	}
	if err := s.cars.Delete(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *CatalogService) CanDo(ctx context.Context, actor *models.User, capability models.Capability) bool {
	return requireCapability(ctx, s.perms, actor, capability) == nil
}
