package database

import (
	"gorm.io/gorm"

	"github.com/productapp/catalog-backend/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Product{},
	)
}
