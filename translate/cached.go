package translate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
)

// sharedCallTimeout bounds a backend call shared by several callers. The call
// does not follow any one caller's context.
const sharedCallTimeout = 30 * time.Second

// Cached memoizes successful translations of another Translator.
// Concurrent requests for the same word share one backend call.
type Cached struct {
	next  Translator
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]string
}

// NewCached wraps next.
func NewCached(next Translator) *Cached {
	return &Cached{next: next, cache: make(map[string]string)}
}

func cacheKey(word string, source, target model.Language) string {
	return string(source) + "\x00" + string(target) + "\x00" + lexicon.Fold(word)
}

// Translate implements Translator. Failures are not cached.
func (c *Cached) Translate(ctx context.Context, word string, source, target model.Language) (string, error) {
	key := cacheKey(word, source, target)

	c.mu.RLock()
	out, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return out, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		out, err := c.next.Translate(sctx, word, source, target)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.cache[key] = out
		c.mu.Unlock()
		return out, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", Classify(word, ctx.Err())
	}
}

// Pronounce forwards to the wrapped translator when it can speak.
func (c *Cached) Pronounce(ctx context.Context, word string, lang model.Language) error {
	if sp, ok := c.next.(Speaker); ok {
		return sp.Pronounce(ctx, word, lang)
	}
	return nil
}

// Len returns the number of cached translations.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
