package textures

import (
	"image"
	"sync"
)

type entry struct {
	done    chan struct{}
	img     image.Image
	err     error
	waiters []func(img image.Image)
}

// cache keeps one entry per url, failed fetches included
type cache struct {
	lock sync.Mutex
	d    map[string]*entry
}

func newCache() *cache {
	return &cache{d: make(map[string]*entry)}
}

// acquire returns the entry for url and true if the caller must fetch it.
// waiter is called right away when the image is already there.
func (c *cache) acquire(url string, waiter func(img image.Image)) (*entry, bool) {
	c.lock.Lock()

	if e, ok := c.d[url]; ok {
		select {
		case <-e.done:
			c.lock.Unlock()
			if e.img != nil {
				waiter(e.img)
			}
		default:
			e.waiters = append(e.waiters, waiter)
			c.lock.Unlock()
		}
		return e, false
	}

	e := &entry{done: make(chan struct{}), waiters: []func(image.Image){waiter}}
	c.d[url] = e
	c.lock.Unlock()
	return e, true
}

func (c *cache) complete(e *entry, img image.Image, err error) {
	c.lock.Lock()
	e.img = img
	e.err = err
	waiters := e.waiters
	e.waiters = nil
	close(e.done)
	c.lock.Unlock()

	if img == nil {
		return
	}
	for _, w := range waiters {
		w(img)
	}
}
