package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/pkg/db/models"
)

// ReadSeedFile parses a JSON array of catalog listings. Listings without an
// id or title are rejected.
func ReadSeedFile(path string) ([]models.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	for i := range products {
		products[i].ID = strings.TrimSpace(products[i].ID)
		if products[i].ID == "" || strings.TrimSpace(products[i].Title) == "" {
			return nil, fmt.Errorf("seed product %d: id and title are required", i)
		}
	}
	return products, nil
}
