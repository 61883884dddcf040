package services

import (
	"context"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/glazor-app/glazor-cli/pkg/internal/models"
	"github.com/rs/zerolog/log"
)

const feedCacheKey = "feed:last"

// FeedCache keeps the last successfully fetched post list in memory so a
// failed reload can fall back to a stale rendering instead of a blank feed.
// Nothing here is persisted; mutations still go to the server.
type FeedCache struct {
	inner   *cache.Cache[[]models.Post]
	backing *ristretto.Cache
}

func NewFeedCache() (*FeedCache, error) {
	backing, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 64,
		MaxCost:     16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &FeedCache{
		inner:   cache.New[[]models.Post](ristretto_store.NewRistretto(backing)),
		backing: backing,
	}, nil
}

// Store remembers the given post list as the latest known feed.
func (c *FeedCache) Store(posts []models.Post) {
	if err := c.inner.Set(context.Background(), feedCacheKey, posts, store.WithCost(1)); err != nil {
		log.Warn().Err(err).Msg("Failed to cache the feed snapshot.")
		return
	}
	// Ristretto applies writes asynchronously; wait so the snapshot is
	// readable as soon as Store returns.
	c.backing.Wait()
}

// Last returns the most recent snapshot, if one was stored.
func (c *FeedCache) Last() ([]models.Post, bool) {
	posts, err := c.inner.Get(context.Background(), feedCacheKey)
	if err != nil {
		return nil, false
	}
	return posts, true
}
