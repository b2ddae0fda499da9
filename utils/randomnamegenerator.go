package utils

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out unique silly names, safe for concurrent use
type RandomNameGenerator struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func (rng *RandomNameGenerator) RandomName() string {
	rng.mu.Lock()
	defer rng.mu.Unlock()

	if rng.names == nil {
		rng.names = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	for {
		name := randomdata.SillyName()
		// avoid duplicate names
		if _, exists := rng.names[name]; !exists {
			rng.names[name] = struct{}{}
			return name
		}
	}
}

// Release makes name available again
func (rng *RandomNameGenerator) Release(name string) {
	rng.mu.Lock()
	defer rng.mu.Unlock()
	delete(rng.names, name)
}
