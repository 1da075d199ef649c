package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"product-importer-service/internal/events"
	"product-importer-service/internal/models"
	"product-importer-service/internal/repository"
)

type ProductsHandler struct {
	repo            *repository.ProductsRepository
	eventsPublisher *events.Publisher
	defaultPageSize int
	maxPageSize     int
}

// NewProductsHandler wires the product CRUD handler. eventsPublisher may be
// nil; lifecycle events are then skipped.
func NewProductsHandler(repo *repository.ProductsRepository, eventsPublisher *events.Publisher, defaultPageSize, maxPageSize int) *ProductsHandler {
	if defaultPageSize < 1 {
		defaultPageSize = 50
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &ProductsHandler{
		repo:            repo,
		eventsPublisher: eventsPublisher,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// ListProducts lists products with filtering and pagination
// GET /products?skip&limit&sku&name&active
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Skip:  0,
		Limit: h.defaultPageSize,
		SKU:   c.Query("sku"),
		Name:  c.Query("name"),
	}

	if skip, err := strconv.Atoi(c.Query("skip")); err == nil && skip > 0 {
		filter.Skip = skip
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if filter.Limit > h.maxPageSize {
		filter.Limit = h.maxPageSize
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: "active must be a boolean",
					Field:   "active",
				},
			})
			return
		}
		filter.Active = &active
	}

	products, err := h.repo.ListProducts(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, products)
}

// CreateProduct creates a new product
// POST /products
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	exists, err := h.repo.SKUExists(req.SKU)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create product",
			},
		})
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SKU_EXISTS",
				Message: "A product with this SKU already exists",
				Field:   "sku",
			},
		})
		return
	}

	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := h.repo.CreateProduct(product); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create product",
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductCreated(product)
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct applies a partial update to a product
// PUT /products/:sku
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	sku := c.Param("sku")

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	// Map-based updates so Active=false survives gorm's zero-value rules.
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	product, err := h.repo.UpdateProductBySKU(sku, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update product",
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductUpdated(product)
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct deletes a product by SKU
// DELETE /products/:sku
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	sku := c.Param("sku")

	if err := h.repo.DeleteProductBySKU(sku); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete product",
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductDeleted(sku)
	}

	c.Status(http.StatusNoContent)
}

// DeleteAllProducts clears the catalog
// DELETE /products?confirm=true
func (h *ProductsHandler) DeleteAllProducts(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CONFIRM_REQUIRED",
				Message: "Pass confirm=true to delete all products",
			},
		})
		return
	}

	deleted, err := h.repo.DeleteAllProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deleted": deleted,
	})
}
