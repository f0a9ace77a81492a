package listing

import (
	"context"
	"fmt"

	"github.com/ayush/app-store/backend/internal/models"
)

// Seeder inserts unowned catalog listings when none exist yet.
type Seeder interface {
	SeedListings(ctx context.Context, seeds []models.PublishRequest) (int, error)
}

// Catalog is the set of seeded listings.
var Catalog = []models.PublishRequest{
	{
		Name:        "Notes",
		Description: "Plain text notes that sync across devices.",
		Image:       "https://picsum.photos/seed/notes/400/300",
		Link:        "https://example.com/apps/notes",
	},
	{
		Name:        "Weather",
		Description: "Hourly forecasts and severe weather alerts.",
		Image:       "https://picsum.photos/seed/weather/400/300",
		Link:        "https://example.com/apps/weather",
	},
	{
		Name:        "Budget",
		Description: "Track spending by category with monthly reports.",
		Image:       "https://picsum.photos/seed/budget/400/300",
		Link:        "https://example.com/apps/budget",
	},
}

// Seed loads Catalog and returns the number of listings inserted.
func Seed(ctx context.Context, s Seeder) (int, error) {
	n, err := s.SeedListings(ctx, Catalog)
	if err != nil {
		return n, fmt.Errorf("seed catalog: %w", err)
	}
	return n, nil
}
