package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"product-importer-service/internal/models"
)

// ProductCacheTTL bounds how long a single-product lookup may be served
// from Redis before going back to the database.
const ProductCacheTTL = 5 * time.Minute

// ErrEmptySKU is returned for writes whose command carries no SKU.
var ErrEmptySKU = errors.New("sku must not be empty")

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewProductsRepository returns a repository backed by db. The Redis client
// is optional; a nil client disables caching without changing behavior.
func NewProductsRepository(db *gorm.DB, redisClient *redis.Client) *ProductsRepository {
	return &ProductsRepository{db: db, redis: redisClient}
}

// NormalizeSKU returns the canonical lookup form of a SKU.
func NormalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

func productCacheKey(norm string) string {
	return "products:sku:" + norm
}

func (r *ProductsRepository) invalidateProductCache(ctx context.Context, norm string) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, productCacheKey(norm)).Err()
}

func (r *ProductsRepository) invalidateAllProductCaches(ctx context.Context) {
	if r.redis == nil {
		return
	}
	iter := r.redis.Scan(ctx, 0, productCacheKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		_ = r.redis.Del(ctx, iter.Val()).Err()
	}
}

// CreateProduct creates a new product. The caller is expected to have
// checked SKUExists first; the unique index on sku_norm is the backstop.
func (r *ProductsRepository) CreateProduct(product *models.Product) error {
	norm := NormalizeSKU(product.SKU)
	if norm == "" {
		return ErrEmptySKU
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.SKUNorm = norm
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	err := r.db.Create(product).Error
	if err == nil {
		r.invalidateProductCache(context.Background(), norm)
	}
	return err
}

// GetProductBySKU retrieves a product by case-insensitive SKU match,
// serving from cache when possible. Returns gorm.ErrRecordNotFound when
// no product matches.
func (r *ProductsRepository) GetProductBySKU(sku string) (*models.Product, error) {
	ctx := context.Background()
	norm := NormalizeSKU(sku)
	cacheKey := productCacheKey(norm)

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.Where("sku_norm = ?", norm).First(&product).Error; err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// SKUExists reports whether any product holds the given SKU, ignoring case.
func (r *ProductsRepository) SKUExists(sku string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("sku_norm = ?", NormalizeSKU(sku)).
		Count(&count).Error
	return count > 0, err
}

// UpdateProductBySKU applies a partial update to the product with the given
// SKU and returns the refreshed record. SKU itself is immutable and never
// part of updates.
func (r *ProductsRepository) UpdateProductBySKU(sku string, updates map[string]interface{}) (*models.Product, error) {
	norm := NormalizeSKU(sku)

	var product models.Product
	if err := r.db.Where("sku_norm = ?", norm).First(&product).Error; err != nil {
		return nil, err
	}

	updates["updated_at"] = time.Now()
	if err := r.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, err
	}

	r.invalidateProductCache(context.Background(), norm)

	if err := r.db.Where("sku_norm = ?", norm).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProductBySKU removes the product with the given SKU. Returns
// gorm.ErrRecordNotFound when nothing matched.
func (r *ProductsRepository) DeleteProductBySKU(sku string) error {
	norm := NormalizeSKU(sku)
	result := r.db.Where("sku_norm = ?", norm).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateProductCache(context.Background(), norm)
	return nil
}

// DeleteAllProducts removes every product and returns the deleted count.
func (r *ProductsRepository) DeleteAllProducts() (int64, error) {
	result := r.db.Where("1 = 1").Delete(&models.Product{})
	if result.Error != nil {
		return 0, result.Error
	}
	r.invalidateAllProductCaches(context.Background())
	return result.RowsAffected, nil
}

// ListProducts retrieves products newest-first with filtering and
// skip/limit pagination.
func (r *ProductsRepository) ListProducts(filter models.ProductFilter) ([]models.Product, error) {
	products := make([]models.Product, 0)

	query := r.db.Model(&models.Product{})
	if filter.SKU != "" {
		query = query.Where("sku_norm LIKE ?", "%"+NormalizeSKU(filter.SKU)+"%")
	}
	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	err := query.Order("created_at DESC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&products).Error
	return products, err
}

// Upsert creates or updates a single product keyed by case-insensitive SKU.
func (r *ProductsRepository) Upsert(cmd models.UpsertCommand) (*models.Product, error) {
	product, err := r.UpsertTx(r.db, cmd)
	if err == nil {
		r.invalidateProductCache(context.Background(), NormalizeSKU(cmd.SKU))
	}
	return product, err
}

// UpsertTx runs one atomic insert-or-update inside tx. The conflict target
// is the unique sku_norm index, so two concurrent creates of the same SKU
// can never produce duplicates: the second simply becomes an update. Only
// the fields present in cmd are assigned on conflict; on insert, unset
// optional fields stay NULL and Active defaults to true.
func (r *ProductsRepository) UpsertTx(tx *gorm.DB, cmd models.UpsertCommand) (*models.Product, error) {
	norm := NormalizeSKU(cmd.SKU)
	if norm == "" {
		return nil, ErrEmptySKU
	}

	now := time.Now()
	product := models.Product{
		ID:          uuid.New(),
		SKU:         strings.TrimSpace(cmd.SKU),
		SKUNorm:     norm,
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if cmd.Active != nil {
		product.Active = *cmd.Active
	}

	assignments := map[string]interface{}{"updated_at": now}
	if cmd.Name != nil {
		assignments["name"] = *cmd.Name
	}
	if cmd.Description != nil {
		assignments["description"] = *cmd.Description
	}
	if cmd.Price != nil {
		assignments["price"] = *cmd.Price
	}
	if cmd.Active != nil {
		assignments["active"] = *cmd.Active
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku_norm"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&product).Error
	if err != nil {
		return nil, err
	}

	// Re-read so callers get the stored row (on conflict the insert's id
	// and created_at are discarded in favor of the existing record's).
	var stored models.Product
	if err := tx.Where("sku_norm = ?", norm).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// BatchUpsert upserts one batch of commands inside a single transaction.
// A failing row is skipped and the rest of the batch still commits; only a
// transaction-level failure (storage unavailable, commit error) is returned.
// Returns the number of rows actually written.
func (r *ProductsRepository) BatchUpsert(cmds []models.UpsertCommand) (int, error) {
	if len(cmds) == 0 {
		return 0, nil
	}

	succeeded := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i, cmd := range cmds {
			// Savepoint per row: a SQL-level row failure would otherwise
			// abort the enclosing transaction and take the rest of the
			// batch down with it.
			name := fmt.Sprintf("row_%d", i)
			if err := tx.SavePoint(name).Error; err != nil {
				return err
			}
			if _, err := r.UpsertTx(tx, cmd); err != nil {
				if err := tx.RollbackTo(name).Error; err != nil {
					return err
				}
				continue
			}
			succeeded++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	ctx := context.Background()
	for _, cmd := range cmds {
		r.invalidateProductCache(ctx, NormalizeSKU(cmd.SKU))
	}
	return succeeded, nil
}
