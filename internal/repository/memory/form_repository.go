package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/ryounan4/Cramify/internal/entity"
)

// FormRepository holds the per-browser upload forms. Forms are sliding-TTL:
// every save refreshes the expiration, so an active user never loses the
// selected file set mid-session.
type FormRepository struct {
	cache *cache.Cache
}

func NewFormRepository(ttl time.Duration) *FormRepository {
	c := cache.New(ttl, 10*time.Minute)
	return &FormRepository{
		cache: c,
	}
}

// GetOrCreate returns the form for the given browser id, creating an idle
// one on first use.
func (r *FormRepository) GetOrCreate(formID uuid.UUID) *entity.Form {
	if x, found := r.cache.Get(formID.String()); found {
		return x.(*entity.Form)
	}
	form := entity.NewForm(formID)
	r.cache.Set(formID.String(), form, cache.DefaultExpiration)
	return form
}

func (r *FormRepository) Get(formID uuid.UUID) (*entity.Form, bool) {
	if x, found := r.cache.Get(formID.String()); found {
		return x.(*entity.Form), true
	}
	return nil, false
}

func (r *FormRepository) Save(form *entity.Form) {
	form.UpdatedAt = time.Now()
	r.cache.Set(form.Id.String(), form, cache.DefaultExpiration)
}

func (r *FormRepository) Delete(formID uuid.UUID) {
	r.cache.Delete(formID.String())
}
