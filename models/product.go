package models

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
)

// Category is one of the fixed sneaker lines sold by the store.
type Category string

const (
	CategoryJordan1   Category = "jordan 1"
	CategoryAirForce1 Category = "air force 1"
	CategoryAirMax95  Category = "air max 95"
	CategoryAirMax270 Category = "air max 270"
)

var Categories = []Category{CategoryJordan1, CategoryAirForce1, CategoryAirMax95, CategoryAirMax270}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

const (
	MaxProductNameLength        = 100
	MaxProductDescriptionLength = 500
)

// Product represents a catalog entry
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string             `bson:"name" json:"name"`
	Category      Category           `bson:"category" json:"category"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	Sizes         []float64          `bson:"sizes" json:"sizes"`
	Images        []string           `bson:"images" json:"images"`
	Stock         int                `bson:"stock" json:"stock"`
	Featured      bool               `bson:"featured" json:"featured"`
	Views         int                `bson:"views" json:"views"`
	AverageRating float64            `bson:"averageRating" json:"averageRating"`
	ReviewCount   int                `bson:"reviewCount" json:"reviewCount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasSize reports whether size is offered for the product.
func (p *Product) HasSize(size float64) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// FirstImage returns the primary image or "" when none is set.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Validate checks the catalog invariants of a product before it is stored.
func (p *Product) Validate() error {
	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		return apperrors.InvalidInput("Product name is required")
	case utf8.RuneCountInString(name) > MaxProductNameLength:
		return apperrors.InvalidInput("Product name cannot exceed %d characters", MaxProductNameLength)
	case !ValidCategory(string(p.Category)):
		return apperrors.InvalidInput("Invalid category: %s", p.Category)
	case strings.TrimSpace(p.Description) == "":
		return apperrors.InvalidInput("Product description is required")
	case utf8.RuneCountInString(p.Description) > MaxProductDescriptionLength:
		return apperrors.InvalidInput("Description cannot exceed %d characters", MaxProductDescriptionLength)
	case p.Price < 0:
		return apperrors.InvalidInput("Price cannot be negative")
	case len(p.Sizes) == 0:
		return apperrors.InvalidInput("At least one size is required")
	case len(p.Images) == 0:
		return apperrors.InvalidInput("At least one image is required")
	case p.Stock < 0:
		return apperrors.InvalidInput("Stock cannot be negative")
	}
	return nil
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Category    *Category
	Description *string
	Price       *float64
	Sizes       []float64
	Images      []string
	Stock       *int
	Featured    *bool
}

// Apply copies the set fields onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Sizes != nil {
		p.Sizes = u.Sizes
	}
	if u.Images != nil {
		p.Images = u.Images
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Featured != nil {
		p.Featured = *u.Featured
	}
}

// Product list sort keys.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortName      = "name"
	SortPopular   = "popular"
	SortRating    = "rating"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 100
)

// ProductQuery filters, sorts and paginates the catalog.
type ProductQuery struct {
	Category string
	Featured *bool
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Sort     string
	Page     int
	Limit    int
}

// Normalize applies defaults and validates the query.
func (q *ProductQuery) Normalize() error {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if int64(q.Page) > math.MaxInt64/int64(q.Limit) {
		return apperrors.InvalidInput("Invalid page: %d", q.Page)
	}
	switch q.Sort {
	case "":
		q.Sort = SortNewest
	case SortNewest, SortPriceAsc, SortPriceDesc, SortName, SortPopular, SortRating:
	default:
		return apperrors.InvalidInput("Invalid sort option: %s", q.Sort)
	}
	if q.Category != "" && !ValidCategory(q.Category) {
		return apperrors.InvalidInput("Invalid category: %s", q.Category)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return apperrors.InvalidInput("minPrice cannot exceed maxPrice")
	}
	return nil
}

// Skip is the number of documents before the requested page.
func (q ProductQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}

// Pages returns ceil(total/limit).
func Pages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
