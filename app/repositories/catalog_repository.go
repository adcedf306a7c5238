package repositories

import (
	"context"

	"github.com/Rakhulsr/go-portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ManufacturerRepositoryImpl interface {
	Create(ctx context.Context, m *models.Manufacturer) error
	GetByID(ctx context.Context, id uint) (*models.Manufacturer, error)
	NameTaken(ctx context.Context, name string, exceptID uint) (bool, error)
	Update(ctx context.Context, m *models.Manufacturer) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, q ListQuery) ([]models.Manufacturer, int64, error)
	All(ctx context.Context) ([]models.Manufacturer, error)
}

type CarRepositoryImpl interface {
	Create(ctx context.Context, car *models.Car) error
	GetByID(ctx context.Context, id uint) (*models.Car, error)
	// PairTaken reports whether another car already uses (name, manufacturerID).
	PairTaken(ctx context.Context, name string, manufacturerID, exceptID uint) (bool, error)
	Update(ctx context.Context, car *models.Car) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, q ListQuery) ([]models.Car, int64, error)
	All(ctx context.Context) ([]models.Car, error)
}

var manufacturerListSpec = listSpec{
	searchColumn: "name",
	sorts: map[string]string{
		"id":   "id",
		"name": "name",
	},
	defaultSort: "id",
}

var carListSpec = listSpec{
	searchColumn: "name",
	sorts: map[string]string{
		"id":           "id",
		"name":         "name",
		"price":        "price",
		"manufacturer": "manufacturer_id",
	},
	defaultSort: "id",
	filters: map[string]filterFunc{
		"manufacturer":      equalsID("manufacturer_id"),
		"manufacturer_name": subqueryByName("manufacturer_id", "manufacturers"),
	},
	preloads: []string{"Manufacturer"},
}

type manufacturerRepository struct {
	db *gorm.DB
}

func NewManufacturerRepository(db *gorm.DB) ManufacturerRepositoryImpl {
	return &manufacturerRepository{db}
}

func (r *manufacturerRepository) Create(ctx context.Context, m *models.Manufacturer) error {
	return translateError(r.db.WithContext(ctx).Create(m).Error)
}

func (r *manufacturerRepository) GetByID(ctx context.Context, id uint) (*models.Manufacturer, error) {
	var m models.Manufacturer
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &m, nil
}

func (r *manufacturerRepository) NameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Manufacturer{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (r *manufacturerRepository) Update(ctx context.Context, m *models.Manufacturer) error {
	return translateError(r.db.WithContext(ctx).Model(m).Select("name").Updates(m).Error)
}

func (r *manufacturerRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Manufacturer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *manufacturerRepository) List(ctx context.Context, q ListQuery) ([]models.Manufacturer, int64, error) {
	return list[models.Manufacturer](ctx, r.db, q, manufacturerListSpec)
}

func (r *manufacturerRepository) All(ctx context.Context) ([]models.Manufacturer, error) {
	manufacturers := make([]models.Manufacturer, 0)
	err := r.db.WithContext(ctx).Order("id").Find(&manufacturers).Error
	return manufacturers, err
}

type carRepository struct {
	db *gorm.DB
}

func NewCarRepository(db *gorm.DB) CarRepositoryImpl {
	return &carRepository{db}
}

func (r *carRepository) Create(ctx context.Context, car *models.Car) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(car).Error)
}

func (r *carRepository) GetByID(ctx context.Context, id uint) (*models.Car, error) {
	var car models.Car
	if err := r.db.WithContext(ctx).Preload("Manufacturer").First(&car, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &car, nil
}

func (r *carRepository) PairTaken(ctx context.Context, name string, manufacturerID, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Car{}).
		Where("name = ? AND manufacturer_id = ? AND id <> ?", name, manufacturerID, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (r *carRepository) Update(ctx context.Context, car *models.Car) error {
	err := r.db.WithContext(ctx).Model(car).Omit(clause.Associations).
		Select("name", "manufacturer_id", "price").
		Updates(car).Error
	return translateError(err)
}

func (r *carRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Car{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *carRepository) List(ctx context.Context, q ListQuery) ([]models.Car, int64, error) {
	return list[models.Car](ctx, r.db, q, carListSpec)
}

func (r *carRepository) All(ctx context.Context) ([]models.Car, error) {
	cars := make([]models.Car, 0)
	err := r.db.WithContext(ctx).Preload("Manufacturer").Order("id").Find(&cars).Error
	return cars, err
}
