package health

import (
	"context"

	"gorm.io/gorm"

	"github.com/productapp/catalog-backend/internal/domain"
	"github.com/productapp/catalog-backend/internal/service"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	sqlDB, err := c.db.DB()
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

// AssetStoreChecker probes the asset store by asking for the default image
// reference, which never performs remote I/O on the local backend and only a
// cheap metadata call on object storage.
type AssetStoreChecker struct {
	store service.AssetStore
}

func NewAssetStoreChecker(store service.AssetStore) Checker {
	if store == nil {
		return nil
	}
	return &AssetStoreChecker{store: store}
}

func (c *AssetStoreChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "asset_store", Healthy: true}
	if _, err := c.store.Exists(ctx, domain.DefaultImage()); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}
