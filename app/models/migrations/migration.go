package migrations

import (
	"github.com/Rakhulsr/go-portal/app/models"
	"gorm.io/gorm"
)

// Order matters: referenced tables are created before the tables pointing at them.
var autoMaintainRange = []any{
	&models.User{},
	&models.UserPermission{},
	&models.Topic{},
	&models.BlogPost{},
	&models.Comment{},
	&models.Task{},
	&models.Manufacturer{},
	&models.Car{},
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(autoMaintainRange...)
}
