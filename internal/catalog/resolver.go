package catalog

import (
	"context"
	"log/slog"

	"mizora-service/pkg/logkey"
)

// ProductSource is one tier of the catalog. A miss is (nil, nil).
type ProductSource interface {
	Name() string
	FindProduct(ctx context.Context, ref string) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// Resolver maps a product reference to its current record.
type Resolver interface {
	Resolve(ctx context.Context, ref string) *Product
}

// ChainedResolver asks each source in order and returns the first hit.
// A failing source is logged and skipped so a lower tier can still answer.
type ChainedResolver struct {
	Sources []ProductSource
}

func NewChainedResolver(sources ...ProductSource) *ChainedResolver {
	return &ChainedResolver{Sources: sources}
}

func (r *ChainedResolver) Resolve(ctx context.Context, ref string) *Product {
	if ref == "" {
		return nil
	}
	for _, src := range r.Sources {
		p, err := src.FindProduct(ctx, ref)
		if err != nil {
			slog.Warn("product source failed", slog.String("source", src.Name()),
				slog.String(logkey.ProductID, ref), slog.String(logkey.ERROR, err.Error()))
			continue
		}
		if p != nil {
			return p
		}
	}
	return nil
}

// ResolveSlug serves the product page: each source is asked by slug first,
// then the reference is resolved as an id.
func (r *ChainedResolver) ResolveSlug(ctx context.Context, slug string) *Product {
	if slug == "" {
		return nil
	}
	for _, src := range r.Sources {
		p, err := src.FindBySlug(ctx, slug)
		if err != nil {
			slog.Warn("product source failed", slog.String("source", src.Name()),
				slog.String("Slug", slug), slog.String(logkey.ERROR, err.Error()))
			continue
		}
		if p != nil {
			return p
		}
	}
	return r.Resolve(ctx, slug)
}

// List returns the products of the first source that has any.
func (r *ChainedResolver) List(ctx context.Context) []Product {
	for _, src := range r.Sources {
		products, err := src.ListProducts(ctx)
		if err != nil {
			slog.Warn("product source failed to list", slog.String("source", src.Name()), slog.String(logkey.ERROR, err.Error()))
			continue
		}
		if len(products) > 0 {
			return products
		}
	}
	return []Product{}
}
