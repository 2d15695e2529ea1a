package database

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/productapp/catalog-backend/internal/domain"
)

var sampleProducts = []domain.Product{
	{Name: "Pen", Price: 1.5, Quantity: 100, Category: "Stationery"},
	{Name: "Notebook", Price: 4.25, Quantity: 40, Category: "Stationery"},
	{Name: "Desk Lamp", Price: 24.99, Quantity: 12, Category: "Office"},
	{Name: "USB-C Cable", Price: 9.99, Quantity: 60, Category: "Electronics"},
}

// Seed inserts a demo account and a small starter catalog. Existing rows are
// left alone, so seeding is safe to run on every startup.
func Seed(db *gorm.DB) error {
	demo := domain.User{Username: "demo", Email: "demo@example.com", Password: "demo1234"}
	res := db.Where("email = ?", demo.Email).FirstOrCreate(&demo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		slog.InfoContext(context.Background(), "seeded demo user", "email", demo.Email)
	}

	for _, p := range sampleProducts {
		product := p
		res := db.Where("name = ? AND category = ?", product.Name, product.Category).FirstOrCreate(&product)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			slog.InfoContext(context.Background(), "seeded product", "name", product.Name)
		}
	}
	return nil
}
