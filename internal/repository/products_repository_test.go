package repository

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"product-importer-service/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Webhook{}))
	return db
}

func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }

func TestCreateAndGetProductCaseInsensitive(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)

	product := &models.Product{SKU: "ABC-001", Name: stringPtr("Widget"), Active: true}
	require.NoError(t, repo.CreateProduct(product))

	got, err := repo.GetProductBySKU("abc-001")
	require.NoError(t, err)
	assert.Equal(t, "ABC-001", got.SKU)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Widget", *got.Name)

	_, err = repo.GetProductBySKU("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateProductRejectsEmptySKU(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)

	err := repo.CreateProduct(&models.Product{SKU: "   "})
	assert.ErrorIs(t, err, ErrEmptySKU)
}

func TestSKUExistsIgnoresCase(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "ABC-001", Active: true}))

	exists, err := repo.SKUExists("AbC-001")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SKUExists("other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertCreatesWithDefaults(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)

	product, err := repo.Upsert(models.UpsertCommand{SKU: "NEW-1"})
	require.NoError(t, err)

	assert.Equal(t, "NEW-1", product.SKU)
	assert.True(t, product.Active)
	assert.Nil(t, product.Name)
	assert.Nil(t, product.Price)
}

func TestUpsertUpdatesOnlyProvidedFields(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)

	_, err := repo.Upsert(models.UpsertCommand{
		SKU:   "ABC-001",
		Name:  stringPtr("Widget"),
		Price: stringPtr("10.00"),
	})
	require.NoError(t, err)

	// Same SKU in a different casing: this must update, not duplicate.
	updated, err := repo.Upsert(models.UpsertCommand{
		SKU:   "abc-001",
		Price: stringPtr("12.50"),
	})
	require.NoError(t, err)

	assert.Equal(t, "ABC-001", updated.SKU, "original casing is kept")
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Widget", *updated.Name, "absent field keeps stored value")
	require.NotNil(t, updated.Price)
	assert.Equal(t, "12.50", *updated.Price)

	var count int64
	require.NoError(t, repo.db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertTogglesActive(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)

	_, err := repo.Upsert(models.UpsertCommand{SKU: "ABC-001"})
	require.NoError(t, err)

	updated, err := repo.Upsert(models.UpsertCommand{SKU: "ABC-001", Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	// Absent active keeps the stored value.
	updated, err = repo.Upsert(models.UpsertCommand{SKU: "ABC-001", Name: stringPtr("Widget")})
	require.NoError(t, err)
	assert.False(t, updated.Active)
}

func TestBatchUpsertSkipsFailingRows(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)

	succeeded, err := repo.BatchUpsert([]models.UpsertCommand{
		{SKU: "A-1", Name: stringPtr("One")},
		{SKU: ""},
		{SKU: "A-2", Name: stringPtr("Two")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, succeeded)

	var count int64
	require.NoError(t, repo.db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestBatchUpsertIsolatesSQLLevelRowFailures(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductsRepository(db, nil)

	// Make one row fail inside the engine, after its SQL has started, so the
	// failure hits the open transaction rather than the pre-write guard.
	require.NoError(t, db.Exec(`CREATE TRIGGER reject_flagged_sku BEFORE INSERT ON products
		WHEN NEW.sku = 'REJECT-ME'
		BEGIN SELECT RAISE(ABORT, 'sku rejected'); END`).Error)

	succeeded, err := repo.BatchUpsert([]models.UpsertCommand{
		{SKU: "B-1", Name: stringPtr("One")},
		{SKU: "REJECT-ME"},
		{SKU: "B-2", Name: stringPtr("Two")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, succeeded)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = repo.GetProductBySKU("B-2")
	assert.NoError(t, err, "rows after the failing one still commit")
}

func TestUpdateProductBySKU(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "ABC-001", Name: stringPtr("Widget"), Active: true}))

	updated, err := repo.UpdateProductBySKU("abc-001", map[string]interface{}{
		"price":  "19.99",
		"active": false,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Price)
	assert.Equal(t, "19.99", *updated.Price)
	assert.False(t, updated.Active)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Widget", *updated.Name)

	_, err = repo.UpdateProductBySKU("missing", map[string]interface{}{"price": "1"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteProductBySKU(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "ABC-001", Active: true}))

	require.NoError(t, repo.DeleteProductBySKU("ABC-001"))
	assert.ErrorIs(t, repo.DeleteProductBySKU("ABC-001"), gorm.ErrRecordNotFound)
}

func TestDeleteAllProducts(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "A-1", Active: true}))
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "A-2", Active: true}))

	deleted, err := repo.DeleteAllProducts()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	products, err := repo.ListProducts(models.ProductFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestListProductsFilters(t *testing.T) {
	repo := NewProductsRepository(newTestDB(t), nil)
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "TSH-BLU-001", Name: stringPtr("Blue Shirt"), Active: true}))
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "TSH-RED-001", Name: stringPtr("Red Shirt"), Active: false}))
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "MUG-001", Name: stringPtr("Mug"), Active: true}))

	bySKU, err := repo.ListProducts(models.ProductFilter{SKU: "tsh", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, bySKU, 2)

	byName, err := repo.ListProducts(models.ProductFilter{Name: "shirt", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	active, err := repo.ListProducts(models.ProductFilter{Active: boolPtr(true), Limit: 10})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	paged, err := repo.ListProducts(models.ProductFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}
