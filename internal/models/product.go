package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog entry. SKU keeps the casing it was first
// created with; SKUNorm holds the lowercased form and carries the unique
// index, so two casings of the same SKU can never coexist.
type Product struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	SKU         string    `json:"sku" gorm:"not null;index"`
	SKUNorm     string    `json:"-" gorm:"column:sku_norm;not null;uniqueIndex:idx_products_sku_norm"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *string   `json:"price,omitempty"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Webhook represents an outbound notification target.
type Webhook struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	URL       string    `json:"url" gorm:"not null"`
	Event     string    `json:"event" gorm:"not null"`
	Enabled   bool      `json:"enabled" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpsertCommand is a normalized product write derived from one CSV row or
// API request. Nil pointer fields mean "not provided": on update they leave
// the stored value untouched, on create they fall back to defaults
// (NULL for text fields, true for Active).
type UpsertCommand struct {
	SKU         string
	Name        *string
	Description *string
	Price       *string
	Active      *bool
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU         string  `json:"sku" binding:"required"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// UpdateProductRequest represents a partial update; absent fields are kept.
type UpdateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// CreateWebhookRequest represents a request to register a webhook
type CreateWebhookRequest struct {
	URL     string `json:"url" binding:"required,url"`
	Event   string `json:"event" binding:"required"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// ProductFilter holds list query parameters. SKU and Name are
// case-insensitive substring matches, Active is an exact match.
type ProductFilter struct {
	Skip   int
	Limit  int
	SKU    string
	Name   string
	Active *bool
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the Webhook model
func (Webhook) TableName() string {
	return "webhooks"
}
