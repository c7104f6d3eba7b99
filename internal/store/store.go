// Package store defines the persistence interface for shelf's catalog.
package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/scbrown/shelf/internal/model"
)

// Store is the persistence interface for catalog products. Every Store is a
// catalog.Source.
type Store interface {
	// Products returns every stored product in catalog order.
	Products(ctx context.Context) ([]model.Product, error)

	// Stats returns summary statistics about the stored catalog.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}

// NameCount pairs a name (brand) with its occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Import describes one catalog import run.
type Import struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Products   int       `json:"products"`
	ImportedAt time.Time `json:"imported_at"`
}

// Stats holds summary statistics about a catalog.
type Stats struct {
	TotalProducts  int         `json:"total_products"`
	TaggedProducts int         `json:"tagged_products"`
	Brands         int         `json:"brands"`
	AvgRating      float64     `json:"avg_rating"`
	TopBrands      []NameCount `json:"top_brands,omitempty"`
	LastImport     *Import     `json:"last_import,omitempty"`
}

// topBrandsLimit caps Stats.TopBrands.
const topBrandsLimit = 5

// ComputeStats derives Stats from an in-memory product list. It matches what
// SQLiteStore.Stats reports for the same products. AvgRating covers rated
// products only.
func ComputeStats(products []model.Product) Stats {
	var st Stats
	st.TotalProducts = len(products)

	brands := make(map[string]int)
	var ratingSum float64
	var rated int
	for _, p := range products {
		if strings.TrimSpace(p.Tags) != "" {
			st.TaggedProducts++
		}
		if p.Brand != "" {
			brands[p.Brand]++
		}
		if p.Rating > 0 {
			ratingSum += p.Rating
			rated++
		}
	}
	st.Brands = len(brands)
	if rated > 0 {
		st.AvgRating = ratingSum / float64(rated)
	}

	for name, n := range brands {
		st.TopBrands = append(st.TopBrands, NameCount{Name: name, Count: n})
	}
	sort.Slice(st.TopBrands, func(i, j int) bool {
		if st.TopBrands[i].Count != st.TopBrands[j].Count {
			return st.TopBrands[i].Count > st.TopBrands[j].Count
		}
		return st.TopBrands[i].Name < st.TopBrands[j].Name
	})
	if len(st.TopBrands) > topBrandsLimit {
		st.TopBrands = st.TopBrands[:topBrandsLimit]
	}
	return st
}
