// Package catalog describes the vendors and products sold through the kiosk.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed campus.yaml
var defaultCatalog []byte

// ErrNotFound is returned when a vendor or product ID is unknown.
var ErrNotFound = errors.New("catalog: not found")

// Product is an item a vendor sells.
type Product struct {
	ID         string `yaml:"id" json:"id"`
	VendorID   string `yaml:"-" json:"vendorId"`
	Name       string `yaml:"name" json:"name"`
	PriceCents int64  `yaml:"price_cents" json:"priceCents"`
	Stock      int    `yaml:"stock" json:"stock"`
	Image      string `yaml:"image,omitempty" json:"image,omitempty"`
	ImageHint  string `yaml:"image_hint,omitempty" json:"imageHint,omitempty"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.Stock > 0 }

// Vendor is a campus outlet.
type Vendor struct {
	ID             string    `yaml:"id" json:"id"`
	Name           string    `yaml:"name" json:"name"`
	Description    string    `yaml:"description" json:"description"`
	Image          string    `yaml:"image,omitempty" json:"image,omitempty"`
	ImageHint      string    `yaml:"image_hint,omitempty" json:"imageHint,omitempty"`
	TelegramChatID int64     `yaml:"telegram_chat_id,omitempty" json:"-"`
	Products       []Product `yaml:"products" json:"products"`
}

// Product returns the vendor's product with the given ID.
func (v Vendor) Product(id string) (Product, error) {
	for _, p := range v.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("product %q of %s: %w", id, v.ID, ErrNotFound)
}

type document struct {
	Vendors []Vendor `yaml:"vendors"`
}

// Load reads a YAML catalog, validates it and returns its vendors in file order.
func Load(r io.Reader) ([]Vendor, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validate(tree); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := checkUnique(doc.Vendors); err != nil {
		return nil, err
	}
	for i := range doc.Vendors {
		for j := range doc.Vendors[i].Products {
			doc.Vendors[i].Products[j].VendorID = doc.Vendors[i].ID
		}
	}
	return doc.Vendors, nil
}

// Default returns the built-in campus catalog.
func Default() []Vendor {
	vendors, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return vendors
}

func checkUnique(vendors []Vendor) error {
	seen := make(map[string]bool)
	for _, v := range vendors {
		if seen["v:"+v.ID] {
			return &ValidationError{Err: fmt.Errorf("duplicate vendor id %q", v.ID)}
		}
		seen["v:"+v.ID] = true
		for _, p := range v.Products {
			if seen["p:"+p.ID] {
				return &ValidationError{Err: fmt.Errorf("duplicate product id %q", p.ID)}
			}
			seen["p:"+p.ID] = true
		}
	}
	return nil
}
