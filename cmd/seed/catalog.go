package main

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"storefront/models"
)

type catalogFile struct {
	Products []catalogEntry `yaml:"products"`
}

type catalogEntry struct {
	Name        string    `yaml:"name"`
	Category    string    `yaml:"category"`
	Description string    `yaml:"description"`
	Price       float64   `yaml:"price"`
	Sizes       []float64 `yaml:"sizes"`
	Images      []string  `yaml:"images"`
	Stock       int       `yaml:"stock"`
	Featured    bool      `yaml:"featured"`
}

type priceFile struct {
	Prices []priceChange `yaml:"prices"`
}

type priceChange struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

// loadCatalog decodes a products file and validates every entry.
func loadCatalog(r io.Reader) ([]models.Product, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Products))
	products := make([]models.Product, 0, len(file.Products))
	for i, e := range file.Products {
		p := models.Product{
			Name:        strings.TrimSpace(e.Name),
			Category:    models.Category(strings.TrimSpace(e.Category)),
			Description: strings.TrimSpace(e.Description),
			Price:       e.Price,
			Sizes:       e.Sizes,
			Images:      e.Images,
			Stock:       e.Stock,
			Featured:    e.Featured,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %d (%q): %w", i+1, e.Name, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("product %d: duplicate name %q", i+1, p.Name)
		}
		seen[p.Name] = true
		products = append(products, p)
	}
	return products, nil
}

// loadPrices decodes a price list keyed by product name.
func loadPrices(r io.Reader) ([]priceChange, error) {
	var file priceFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}
	for i, c := range file.Prices {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("price %d: name is required", i+1)
		}
		if c.Price < 0 {
			return nil, fmt.Errorf("price %d (%q): price cannot be negative", i+1, c.Name)
		}
	}
	return file.Prices, nil
}
