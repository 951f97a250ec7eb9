package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Items []models.Product
	Total int64
	Page  int
	Pages int
}

type CatalogService struct {
	products ProductStore
}

func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) List(ctx context.Context, q models.ProductQuery) (*ProductPage, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	items, total, err := s.products.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &ProductPage{
		Items: items,
		Total: total,
		Page:  q.Page,
		Pages: models.Pages(total, q.Limit),
	}, nil
}

// Get returns the product and counts the view.
func (s *CatalogService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return s.products.IncrementViews(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = primitive.NilObjectID
	p.Views, p.AverageRating, p.ReviewCount = 0, 0, 0
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	log.Info().Str("product_id", p.ID.Hex()).Str("name", p.Name).Msg("Product created")
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.products.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	log.Info().Str("product_id", id.Hex()).Msg("Product updated")
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("product_id", id.Hex()).Msg("Product deleted")
	return nil
}

// Export returns the whole catalog for the spreadsheet export.
func (s *CatalogService) Export(ctx context.Context) ([]models.Product, error) {
	return s.products.All(ctx)
}
