package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/models"
	"storefront/services"
)

// CatalogService is the catalog API used by ProductController.
type CatalogService interface {
	List(ctx context.Context, q models.ProductQuery) (*services.ProductPage, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Export(ctx context.Context) ([]models.Product, error)
}

// ProductRequest is the body of a product create.
type ProductRequest struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Category    string    `json:"category" validate:"required,category"`
	Description string    `json:"description" validate:"required,max=500"`
	Price       *float64  `json:"price" validate:"required,gte=0"`
	Sizes       []float64 `json:"sizes" validate:"required,min=1,dive,gt=0"`
	Images      []string  `json:"images" validate:"required,min=1,dive,required"`
	Stock       *int      `json:"stock" validate:"required,gte=0"`
	Featured    bool      `json:"featured"`
}

// ProductUpdateRequest is the body of a product update. Absent fields are kept.
type ProductUpdateRequest struct {
	Name        *string   `json:"name" validate:"omitempty,max=100"`
	Category    *string   `json:"category" validate:"omitempty,category"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Sizes       []float64 `json:"sizes" validate:"omitempty,dive,gt=0"`
	Images      []string  `json:"images" validate:"omitempty,dive,required"`
	Stock       *int      `json:"stock" validate:"omitempty,gte=0"`
	Featured    *bool     `json:"featured"`
}

func (req ProductUpdateRequest) toUpdate() models.ProductUpdate {
	upd := models.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Sizes:       req.Sizes,
		Images:      req.Images,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}
	if req.Category != nil {
		c := models.Category(*req.Category)
		upd.Category = &c
	}
	return upd
}

// ProductController handles product-related requests
type ProductController struct {
	catalog CatalogService
}

// NewProductController creates a new ProductController
func NewProductController(catalog CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// GetProducts lists the catalog with filters, sorting and pagination
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	page, err := pc.catalog.List(r.Context(), q)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	items := page.Items
	if items == nil {
		items = []models.Product{}
	}
	count := len(items)
	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    items,
		Count:   &count,
		Total:   &page.Total,
		Page:    &page.Page,
		Pages:   &page.Pages,
	})
}

func parseProductQuery(r *http.Request) (models.ProductQuery, error) {
	v := r.URL.Query()
	q := models.ProductQuery{
		Category: strings.TrimSpace(v.Get("category")),
		Search:   strings.TrimSpace(v.Get("search")),
		Sort:     v.Get("sort"),
	}
	if s := v.Get("featured"); s != "" {
		b := s == "true"
		q.Featured = &b
	}
	for _, f := range []struct {
		name string
		dst  **float64
	}{{"minPrice", &q.MinPrice}, {"maxPrice", &q.MaxPrice}} {
		s := v.Get(f.name)
		if s == "" {
			continue
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, apperrors.InvalidInput("Invalid %s", f.name)
		}
		*f.dst = &n
	}
	for _, f := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"limit", &q.Limit}} {
		s := v.Get(f.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, apperrors.InvalidInput("Invalid %s", f.name)
		}
		*f.dst = n
	}
	return q, nil
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "id", "product")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	product, err := pc.catalog.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !validateRequest(w, r, req) {
		return
	}

	product, err := pc.catalog.Create(r.Context(), &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Category:    models.Category(req.Category),
		Description: strings.TrimSpace(req.Description),
		Price:       *req.Price,
		Sizes:       req.Sizes,
		Images:      req.Images,
		Stock:       *req.Stock,
		Featured:    req.Featured,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, product)
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "id", "product")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !validateRequest(w, r, req) {
		return
	}

	product, err := pc.catalog.Update(r.Context(), id, req.toUpdate())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "id", "product")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := pc.catalog.Delete(r.Context(), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, struct{}{})
}

var exportHeaders = []string{
	"ID", "Name", "Category", "Description", "Price", "Sizes", "Stock",
	"Featured", "Views", "AverageRating", "ReviewCount", "CreatedAt", "UpdatedAt",
}

// ExportProducts streams the catalog as an Excel workbook (Admin only)
func (pc *ProductController) ExportProducts(w http.ResponseWriter, r *http.Request) {
	products, err := pc.catalog.Export(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	file, err := buildCatalogWorkbook(products)
	if err != nil {
		respondWithError(w, r, apperrors.Wrap(err, "build workbook"))
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=products.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.Header().Set("Expires", "0")
	if err := file.Write(w); err != nil {
		log.Error().Err(err).Msg("Failed to write product export")
	}
}

func buildCatalogWorkbook(products []models.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		sizes := make([]string, len(p.Sizes))
		for i, s := range p.Sizes {
			sizes[i] = strconv.FormatFloat(s, 'f', -1, 64)
		}

		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID.Hex())
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(string(p.Category))
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Price)
		row.AddCell().SetValue(strings.Join(sizes, ","))
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(p.Featured)
		row.AddCell().SetValue(p.Views)
		row.AddCell().SetValue(p.AverageRating)
		row.AddCell().SetValue(p.ReviewCount)
		row.AddCell().SetValue(p.CreatedAt.Format(time.DateTime))
		row.AddCell().SetValue(p.UpdatedAt.Format(time.DateTime))
	}
	return file, nil
}
