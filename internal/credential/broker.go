// Package credential obtains the text-generation API key from a privileged
// source on first use and caches it for the rest of the session.
package credential

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/metcalfc/simplyread/internal/errors"
)

// ErrNoKey means no source produced an API key. It fails the operation that
// needed the key, never the program.
var ErrNoKey = errors.New("no API key available")

// Source produces an API key.
type Source interface {
	FetchKey(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

// FetchKey calls f.
func (f SourceFunc) FetchKey(ctx context.Context) (string, error) { return f(ctx) }

// Broker memoises the first key a Source returns. Failed fetches are not
// cached, so a later call tries again.
type Broker struct {
	src   Source
	group singleflight.Group

	mu  sync.RWMutex
	key string
}

// NewBroker returns a broker over src.
func NewBroker(src Source) *Broker {
	return &Broker{src: src}
}

// Key returns the cached key, fetching it once if needed. Concurrent first
// callers share one fetch.
func (b *Broker) Key(ctx context.Context) (string, error) {
	b.mu.RLock()
	key := b.key
	b.mu.RUnlock()
	if key != "" {
		return key, nil
	}

	v, err, _ := b.group.Do("key", func() (interface{}, error) {
		k, err := b.src.FetchKey(ctx)
		if err != nil {
			return "", err
		}
		if k == "" {
			return "", ErrNoKey
		}
		b.mu.Lock()
		b.key = k
		b.mu.Unlock()
		return k, nil
	})
	if err != nil {
		return "", errors.Wrap(err, "fetch API key")
	}
	return v.(string), nil
}

// Cached reports whether a key has been obtained.
func (b *Broker) Cached() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.key != ""
}
