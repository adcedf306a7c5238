package repositories

import (
	"context"

	"github.com/Rakhulsr/go-portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepositoryImpl interface {
	Grant(ctx context.Context, userID uint, capability models.Capability) error
	Revoke(ctx context.Context, userID uint, capability models.Capability) error
	// Has is always true for superusers.
	Has(ctx context.Context, user *models.User, capability models.Capability) (bool, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Capability, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepositoryImpl {
	return &permissionRepository{db}
}

func (r *permissionRepository) Grant(ctx context.Context, userID uint, capability models.Capability) error {
	perm := models.UserPermission{UserID: userID, Capability: capability}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&perm).Error
	return translateError(err)
}

func (r *permissionRepository) Revoke(ctx context.Context, userID uint, capability models.Capability) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND capability = ?", userID, capability).
		Delete(&models.UserPermission{}).Error
}

func (r *permissionRepository) Has(ctx context.Context, user *models.User, capability models.Capability) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserPermission{}).
		Where("user_id = ? AND capability = ?", user.ID, capability).
		Count(&count).Error
	return count > 0, err
}

func (r *permissionRepository) ListForUser(ctx context.Context, userID uint) ([]models.Capability, error) {
	var caps []models.Capability
	err := r.db.WithContext(ctx).Model(&models.UserPermission{}).
		Where("user_id = ?", userID).
		Order("capability").
		Pluck("capability", &caps).Error
	return caps, err
}
