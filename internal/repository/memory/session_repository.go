package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/ryounan4/Cramify/internal/entity"
)

// SessionRepository keeps signed-in sessions in process memory. Nothing
// survives a restart; an expired entry simply re-opens the sign-in gate.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	// Purge expired sessions every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *entity.Session) {
	r.cache.Set(session.Id.String(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID uuid.UUID) (*entity.Session, bool) {
	if x, found := r.cache.Get(sessionID.String()); found {
		return x.(*entity.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID uuid.UUID) {
	r.cache.Delete(sessionID.String())
}
