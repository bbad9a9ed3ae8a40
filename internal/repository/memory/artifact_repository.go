package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ArtifactRepository holds generated PDFs for download. References are
// transient: Release drops them eagerly, TTL eviction is the backstop for
// anything a client abandoned.
type ArtifactRepository struct {
	cache *cache.Cache
}

func NewArtifactRepository(ttl time.Duration) *ArtifactRepository {
	c := cache.New(ttl, 5*time.Minute)
	return &ArtifactRepository{
		cache: c,
	}
}

// Store saves the PDF bytes and returns the new artifact reference.
func (r *ArtifactRepository) Store(pdf []byte) uuid.UUID {
	id := uuid.New()
	r.cache.Set(id.String(), pdf, cache.DefaultExpiration)
	return id
}

func (r *ArtifactRepository) Get(id uuid.UUID) ([]byte, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.([]byte), true
	}
	return nil, false
}

// Release drops the artifact. Safe to call for ids that were already
// released or evicted.
func (r *ArtifactRepository) Release(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	r.cache.Delete(id.String())
}

// Count reports how many artifacts are currently held (health/metrics view).
func (r *ArtifactRepository) Count() int {
	return r.cache.ItemCount()
}
