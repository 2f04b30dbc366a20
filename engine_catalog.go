package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/storefront/cart"
	"github.com/MrEthical07/storefront/cms"
	"github.com/MrEthical07/storefront/commerce"
	"github.com/MrEthical07/storefront/internal/cache"
	"go.uber.org/zap"
)

// Products returns one page of the catalog. Pages are cached for
// Cache.ProductsTTL.
func (e *Engine) Products(ctx context.Context, q commerce.ProductQuery) (commerce.ProductPage, error) {
	if e.catalog == nil {
		return commerce.ProductPage{}, fmt.Errorf("products: %w", ErrNotConfigured)
	}
	key := "products:" + strconv.Itoa(q.First) + ":" + q.After
	return cachedCall(ctx, e, key, e.config.Cache.ProductsTTL, func(ctx context.Context) (commerce.ProductPage, error) {
		return e.catalog.Products(ctx, q)
	})
}

// Product returns one product by handle.
func (e *Engine) Product(ctx context.Context, handle string) (commerce.ProductDetail, error) {
	if e.catalog == nil {
		return commerce.ProductDetail{}, fmt.Errorf("product: %w", ErrNotConfigured)
	}
	if handle == "" {
		return commerce.ProductDetail{}, invalid("Product handle is required")
	}
	return cachedCall(ctx, e, "product:"+handle, e.config.Cache.ProductsTTL, func(ctx context.Context) (commerce.ProductDetail, error) {
		return e.catalog.ProductByHandle(ctx, handle)
	})
}

// Checkout creates an upstream cart for lines. Upstream user errors come
// back in the result rather than as an error.
func (e *Engine) Checkout(ctx context.Context, lines []cart.LineInput) (cart.CheckoutResult, error) {
	if e.catalog == nil {
		return cart.CheckoutResult{}, fmt.Errorf("checkout: %w", ErrNotConfigured)
	}
	if len(lines) == 0 {
		return cart.CheckoutResult{}, invalid("Cart is empty")
	}
	for _, l := range lines {
		if l.MerchandiseID == "" || l.Quantity < 1 {
			return cart.CheckoutResult{}, invalid("Each line needs a merchandise id and a positive quantity")
		}
	}

	start := time.Now()
	res, err := e.catalog.CreateCart(ctx, lines)
	e.metrics.ObserveSince(MetricUpstreamLatency, start)
	if err != nil {
		e.metricInc(MetricCheckoutFailure)
		e.logger.Error("checkout failed", zap.Int("lines", len(lines)), zap.Error(err))
		return cart.CheckoutResult{}, e.upstreamError("checkout", err)
	}
	if res.CheckoutURL == "" {
		e.metricInc(MetricCheckoutFailure)
	} else {
		e.metricInc(MetricCheckoutSuccess)
	}
	return res, nil
}

// Posts lists blog posts. Pages are cached for Cache.PostsTTL.
func (e *Engine) Posts(ctx context.Context, q cms.PostQuery) (cms.PostPage, error) {
	if e.content == nil {
		return cms.PostPage{}, fmt.Errorf("posts: %w", ErrNotConfigured)
	}
	key := "posts:" + q.Category + ":" + strconv.FormatBool(q.Featured) + ":" + strconv.Itoa(q.PerPage) + ":" + q.After
	return cachedCall(ctx, e, key, e.config.Cache.PostsTTL, func(ctx context.Context) (cms.PostPage, error) {
		return e.content.Posts(ctx, q)
	})
}

// Post returns one post by slug.
func (e *Engine) Post(ctx context.Context, slug string) (cms.Post, error) {
	if e.content == nil {
		return cms.Post{}, fmt.Errorf("post: %w", ErrNotConfigured)
	}
	if slug == "" {
		return cms.Post{}, invalid("Post slug is required")
	}
	return cachedCall(ctx, e, "post:"+slug, e.config.Cache.PostsTTL, func(ctx context.Context) (cms.Post, error) {
		return e.content.Post(ctx, slug)
	})
}

// Categories lists post categories. Results are cached for
// Cache.CategoriesTTL.
func (e *Engine) Categories(ctx context.Context, q cms.CategoryQuery) ([]cms.Category, error) {
	if e.content == nil {
		return nil, fmt.Errorf("categories: %w", ErrNotConfigured)
	}
	key := fmt.Sprintf("categories:%d:%t:%t:%t", q.Limit, q.IncludeEmpty, q.OrderByName, q.Ascending)
	return cachedCall(ctx, e, key, e.config.Cache.CategoriesTTL, func(ctx context.Context) ([]cms.Category, error) {
		return e.content.Categories(ctx, q)
	})
}

// GraphQL forwards a raw GraphQL request body to the CMS and returns the
// upstream response unchanged.
func (e *Engine) GraphQL(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	if e.content == nil {
		return nil, fmt.Errorf("graphql: %w", ErrNotConfigured)
	}
	if !json.Valid(body) {
		return nil, invalid("Request body must be JSON")
	}
	start := time.Now()
	out, err := e.content.Query(ctx, body)
	e.metrics.ObserveSince(MetricUpstreamLatency, start)
	if err != nil {
		return nil, e.upstreamError("graphql", err)
	}
	return out, nil
}

func cachedCall[T any](ctx context.Context, e *Engine, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	v, hit, err := cache.Load(ctx, e.cache, key, ttl, func(ctx context.Context) (T, error) {
		start := time.Now()
		v, err := load(ctx)
		e.metrics.ObserveSince(MetricUpstreamLatency, start)
		return v, err
	})
	if err != nil {
		var zero T
		return zero, e.upstreamError(key, err)
	}
	if e.cache != nil && ttl > 0 {
		if hit {
			e.metricInc(MetricCacheHit)
		} else {
			e.metricInc(MetricCacheMiss)
		}
	}
	return v, nil
}

// upstreamError maps client sentinels onto Engine errors while keeping the
// original chain for errors.As.
func (e *Engine) upstreamError(op string, err error) error {
	switch {
	case errors.Is(err, commerce.ErrProductNotFound), errors.Is(err, cms.ErrPostNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, commerce.ErrNotConfigured), errors.Is(err, cms.ErrNotConfigured):
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	case errors.Is(err, context.Canceled):
		return err
	}
	e.metricInc(MetricUpstreamError)
	e.logger.Warn("upstream call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
