package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-storefront/internal/repo"
	"github.com/angelmondragon/packfinderz-storefront/pkg/db/models"
)

// Repository reads and seeds catalog listings.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListActive returns active listings, restricted to categoryID when set.
func (r *Repository) ListActive(ctx context.Context, categoryID string) ([]models.Product, error) {
	query := r.Active(ctx, &models.Product{})
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	var rows []models.Product
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, repo.Classify(err, "list catalog products", nil)
	}
	return rows, nil
}

// FindByID loads a single active listing.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var row models.Product
	if err := r.Active(ctx, &models.Product{}).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, repo.Classify(err, "load catalog product", map[string]any{"product_id": id})
	}
	return &row, nil
}

// Upsert inserts products or overwrites existing rows with the same id.
func (r *Repository) Upsert(ctx context.Context, products ...models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return repo.Classify(r.Base.Upsert(ctx, &products), "upsert catalog products", nil)
}

func toProduct(row models.Product) Product {
	return Product{
		ID:                   row.ID,
		Title:                row.Title,
		CategoryID:           row.CategoryID,
		PriceCents:           row.PriceCents,
		DiscountedPriceCents: row.DiscountedPriceCents,
		Stock:                row.Stock,
		Rating:               row.Rating,
		ReviewCount:          row.ReviewCount,
		ImageURL:             row.ImageURL,
		CreatedAt:            row.ListedAt,
	}
}
