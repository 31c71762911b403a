// Package catalog defines the plain catalog resources, products and
// suppliers, on top of the generic crud repository. The core consumes
// products by id only (movements and order lines reference them).
package catalog

import (
	"errors"

	"dispensaryhub/internal/crud"
)

// Product is a catalog item. Stock is never stored here; it is derived from
// the inventory ledger.
type Product struct {
	ID            string `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	UnitOfMeasure string `json:"unit_of_measure"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// Supplier is a sourcing contact record.
type Supplier struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Address      string `json:"address,omitempty"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// is_active lives in an INTEGER column so the same literal works on both
// engines; bools convert explicitly on the way in.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Products describes the products table for the crud repository.
func Products() crud.Resource[Product] {
	return crud.Resource[Product]{
		Table:   "products",
		Columns: []string{"sku", "name", "description", "unit_of_measure", "is_active"},
		Values: func(p *Product) []any {
			return []any{p.SKU, p.Name, p.Description, p.UnitOfMeasure, boolToInt(p.IsActive)}
		},
		Scan: func(p *Product) []any {
			return []any{&p.ID, &p.SKU, &p.Name, &p.Description, &p.UnitOfMeasure, &p.IsActive, &p.CreatedAt, &p.UpdatedAt}
		},
	}
}

// ValidateProduct enforces the required product fields.
func ValidateProduct(p *Product) error {
	if p.SKU == "" || p.Name == "" || p.UnitOfMeasure == "" {
		return errors.New("sku, name, and unit_of_measure are required")
	}
	return nil
}

// Suppliers describes the suppliers table for the crud repository.
func Suppliers() crud.Resource[Supplier] {
	return crud.Resource[Supplier]{
		Table:   "suppliers",
		Columns: []string{"name", "code", "contact_name", "contact_email", "contact_phone", "address", "is_active"},
		Values: func(s *Supplier) []any {
			return []any{s.Name, s.Code, s.ContactName, s.ContactEmail, s.ContactPhone, s.Address, boolToInt(s.IsActive)}
		},
		Scan: func(s *Supplier) []any {
			return []any{&s.ID, &s.Name, &s.Code, &s.ContactName, &s.ContactEmail, &s.ContactPhone, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt}
		},
	}
}

// ValidateSupplier enforces the required supplier fields.
func ValidateSupplier(s *Supplier) error {
	if s.Name == "" || s.Code == "" {
		return errors.New("name and code are required")
	}
	return nil
}
