package models

import "time"

// ImportFormat represents the file format for the import template
type ImportFormat string

const (
	ImportFormatJSON ImportFormat = "json"
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportStatus represents the lifecycle state of an import task.
type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "pending"
	ImportStatusStarted   ImportStatus = "started"
	ImportStatusParsing   ImportStatus = "parsing"
	ImportStatusImporting ImportStatus = "importing"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ProgressSnapshot is the latest reported state of one import task.
// Progress is a percentage in [0, 100], non-decreasing until the task
// completes or fails (failure resets it to 0).
type ProgressSnapshot struct {
	TaskID    string       `json:"task_id"`
	Status    ImportStatus `json:"status"`
	Progress  float64      `json:"progress"`
	Message   string       `json:"message"`
	UpdatedAt time.Time    `json:"-"`
}

// UploadResponse is returned by the upload endpoint once the import has run.
type UploadResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, boolean
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "sku", Description: "Unique product SKU (case-insensitive)", Required: true, Type: "string", Example: "TSH-BLU-001"},
		{Name: "name", Description: "Product name", Required: false, Type: "string", Example: "Blue Cotton T-Shirt"},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: "price", Description: "Product price (stored as-is)", Required: false, Type: "string", Example: "29.99"},
		{Name: "active", Description: "0/false/no/n disable the product, anything else enables it", Required: false, Type: "boolean", Example: "true"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}
