package video

import (
	"sync"

	"github.com/google/uuid"
)

const objectURLPrefix = "blob:vscan/"

// ObjectURLRegistry hands out object URLs for streams, the fallback used when
// an element cannot take a stream directly.
type ObjectURLRegistry struct {
	mu      sync.RWMutex
	streams map[string]Stream
}

func NewObjectURLRegistry() *ObjectURLRegistry {
	return &ObjectURLRegistry{streams: map[string]Stream{}}
}

func (r *ObjectURLRegistry) Create(stream Stream) string {
	url := objectURLPrefix + uuid.NewString()
	r.mu.Lock()
	r.streams[url] = stream
	r.mu.Unlock()
	return url
}

func (r *ObjectURLRegistry) Revoke(url string) {
	r.mu.Lock()
	delete(r.streams, url)
	r.mu.Unlock()
}

func (r *ObjectURLRegistry) Resolve(url string) (Stream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stream, ok := r.streams[url]
	return stream, ok
}

func (r *ObjectURLRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}
