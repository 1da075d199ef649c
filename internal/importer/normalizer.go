package importer

import (
	"errors"
	"strings"

	"product-importer-service/internal/models"
)

// ErrMissingSKU marks a row without a usable SKU. The caller skips the row;
// it never aborts the surrounding import.
var ErrMissingSKU = errors.New("row has no usable SKU")

var falseTokens = map[string]struct{}{
	"0": {}, "false": {}, "no": {}, "n": {},
}

// NormalizeRow turns one loosely-typed CSV row into an upsert command.
// Header spelling is uncontrolled, so field resolution is case-insensitive
// ("sku", "SKU" and "Sku" are the same field). Blank values are treated the
// same as absent ones.
func NormalizeRow(row map[string]string) (models.UpsertCommand, error) {
	sku := fieldValue(row, "sku")
	if sku == "" {
		return models.UpsertCommand{}, ErrMissingSKU
	}

	cmd := models.UpsertCommand{
		SKU:         sku,
		Name:        optional(fieldValue(row, "name")),
		Description: optional(fieldValue(row, "description")),
		Price:       optional(fieldValue(row, "price")),
	}

	if raw := fieldValue(row, "active"); raw != "" {
		cmd.Active = parseActive(raw)
	}

	return cmd, nil
}

// fieldValue resolves a logical field against uncontrolled header casing,
// returning the trimmed value or "" when the field is absent or blank.
func fieldValue(row map[string]string, field string) string {
	if v, ok := row[field]; ok {
		return strings.TrimSpace(v)
	}
	for header, v := range row {
		if strings.EqualFold(strings.TrimSpace(header), field) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseActive maps the literal tokens 0/false/no/n to false; any other
// non-empty value means true.
func parseActive(raw string) *bool {
	token := strings.ToLower(strings.TrimSpace(raw))
	_, isFalse := falseTokens[token]
	active := !isFalse
	return &active
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
