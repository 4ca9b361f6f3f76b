// services/url_cache_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

// This is the duration for which presigned URLs stay valid.
const presignedURLExpiration = 15 * time.Minute

// slightly less than expiration so a cached URL never outlives its signature
const cacheCleanupInterval = 12 * time.Minute

const pageTextTTL = 30 * time.Minute

type URLCacheServiceProvider interface {
	GetReadURL(ctx context.Context, objectKey string) (string, error)
}

// URLCacheService serves presigned read URLs for stored try-on images
// through a loadable Ristretto cache, so history listings and repeated
// result fetches don't re-sign on every request.
type URLCacheService struct {
	cache      *cache.LoadableCache[string]
	bucketName string
}

func NewURLCacheService(awsService AWSServiceProvider, bucketName string) (*URLCacheService, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,
		MaxCost:     1 << 27,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	loadFunction := func(ctx context.Context, key any) (string, []store.Option, error) {
		objectKey, ok := key.(string)
		if !ok {
			return "", nil, fmt.Errorf("invalid key type provided to URL cache: expected string, got %T", key)
		}

		log.Printf("CACHE MISS for key: %s. Generating new presigned URL.", objectKey)
		url, err := awsService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
		return url, []store.Option{store.WithExpiration(cacheCleanupInterval)}, err
	}

	loadableCache := cache.NewLoadable[string](
		loadFunction,
		cache.New[string](ristrettoStore),
	)
	return &URLCacheService{
		cache:      loadableCache,
		bucketName: bucketName,
	}, nil
}

func (s *URLCacheService) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}

	return s.cache.Get(ctx, objectKey)
}

// CachedPageTextProvider wraps a page text fetcher with the same loadable
// cache so repeat try-ons of one product skip the page fetch entirely.
type CachedPageTextProvider struct {
	cache *cache.LoadableCache[string]
}

func NewCachedPageTextProvider(inner PageTextProvider) (*CachedPageTextProvider, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 26,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create page text cache: %w", err)
	}

	loadFunction := func(ctx context.Context, key any) (string, []store.Option, error) {
		pageURL, ok := key.(string)
		if !ok {
			return "", nil, fmt.Errorf("invalid key type provided to page cache: expected string, got %T", key)
		}
		text, err := inner.FetchPageText(ctx, pageURL)
		return text, []store.Option{store.WithExpiration(pageTextTTL)}, err
	}

	return &CachedPageTextProvider{
		cache: cache.NewLoadable[string](
			loadFunction,
			cache.New[string](ristretto_store.NewRistretto(ristrettoCache)),
		),
	}, nil
}

func (p *CachedPageTextProvider) FetchPageText(ctx context.Context, pageURL string) (string, error) {
	return p.cache.Get(ctx, pageURL)
}
