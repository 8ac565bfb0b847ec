package locations

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

// Registry is the known-locations cache, keyed by location id (the IATA code
// when known). Entries are replaced wholesale, never mutated in place.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, models.Location]
}

func NewRegistry(size int) (*Registry, error) {
	if size <= 0 {
		size = 2048
	}
	cache, err := lru.New[string, models.Location](size)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache}, nil
}

// Lookup finds a location by code. Implements normalize.KnownLocations.
func (r *Registry) Lookup(code string) (models.Location, bool) {
	if r == nil {
		return models.Location{}, false
	}
	return r.cache.Get(key(code))
}

// Merge adds newly seen locations. An existing entry keeps its populated
// fields and only gains the ones it was missing. Returns the number of new ids.
func (r *Registry) Merge(locs ...models.Location) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, loc := range locs {
		k := key(loc.ID)
		if k == "" {
			k = key(loc.IATACode)
		}
		if k == "" {
			continue
		}
		existing, ok := r.cache.Peek(k)
		if !ok {
			added++
			r.cache.Add(k, loc)
			continue
		}
		r.cache.Add(k, fill(existing, loc))
	}
	return added
}

func (r *Registry) All() []models.Location {
	if r == nil {
		return nil
	}
	return r.cache.Values()
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.cache.Len()
}

func key(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func fill(dst, src models.Location) models.Location {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.City == "" {
		dst.City = src.City
	}
	if dst.Country == "" {
		dst.Country = src.Country
	}
	if dst.IATACode == "" {
		dst.IATACode = src.IATACode
	}
	if dst.Timezone == "" {
		dst.Timezone = src.Timezone
	}
	if dst.Kind == "" {
		dst.Kind = src.Kind
	}
	return dst
}
