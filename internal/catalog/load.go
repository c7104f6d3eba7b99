package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/scbrown/shelf/internal/model"
)

// Source supplies the products a catalog is built from.
type Source interface {
	Products(ctx context.Context) ([]model.Product, error)
}

// Load reads products from src and builds a Catalog. Startup never fails on a
// bad catalog: any error is logged at warn level and an empty catalog is
// returned instead, so the service still answers (with empty results).
func Load(ctx context.Context, src Source, logger zerolog.Logger) *Catalog {
	if src == nil {
		logger.Warn().Msg("no catalog source configured, starting with empty catalog")
		return Empty()
	}
	products, err := src.Products(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("source", describe(src)).Msg("catalog load failed, starting with empty catalog")
		return Empty()
	}
	c := New(products)
	logger.Info().Str("source", describe(src)).Int("products", c.Len()).Msg("catalog loaded")
	return c
}

func describe(src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
