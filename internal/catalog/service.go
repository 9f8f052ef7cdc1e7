// Package catalog resolves product snapshots for the cart and proxies catalog browsing.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fjod/furstore/internal/cache"
	"github.com/fjod/furstore/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Source is the backend catalog API.
type Source interface {
	Product(ctx context.Context, id int64) (domain.Product, error)
	Products(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

type Service struct {
	source Source
	cache  cache.ProductCache
	sfg    singleflight.Group // collapses concurrent misses for one product
	log    zerolog.Logger
}

func NewService(source Source, productCache cache.ProductCache, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		cache:  productCache,
		log:    log.With().Str("component", "catalog").Logger(),
	}
}

// Product returns the snapshot a cart line needs, reading through the product cache.
func (s *Service) Product(ctx context.Context, id int64) (domain.ProductSnapshot, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		snap, err := s.cache.Get(ctx, id)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Int64("product_id", id).Msg("product cache get error")
		}

		p, err := s.source.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		snap = p.Snapshot()

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(ctx, snap); err != nil {
				s.log.Warn().Err(err).Int64("product_id", id).Msg("product cache set error")
			}
		}()
		return snap, nil
	})
	if err != nil {
		return domain.ProductSnapshot{}, err
	}
	return v.(domain.ProductSnapshot), nil
}

// ProductDetail returns the full catalog entry, uncached.
func (s *Service) ProductDetail(ctx context.Context, id int64) (domain.Product, error) {
	return s.source.Product(ctx, id)
}

func (s *Service) Products(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 12
	}
	return s.source.Products(ctx, q)
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.source.Categories(ctx)
}

// Flatten lists the category tree depth-first with each node's nesting level.
func (s *Service) Flatten(categories []domain.Category) []domain.FlatCategory {
	return domain.FlattenCategories(categories)
}
