package utils

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out unique silly names for unnamed lod groups
// and meshes. The zero value is ready to use and deterministic across runs.
type RandomNameGenerator struct {
	mu   sync.Mutex
	used map[string]struct{}
	seed int64
}

func NewRandomNameGenerator(seed int64) *RandomNameGenerator {
	return &RandomNameGenerator{seed: seed}
}

// DefaultNames is shared by every geometry of the process, so two imports
// never synthesize the same name.
var DefaultNames = NewRandomNameGenerator(time.Now().UnixNano())

func (rng *RandomNameGenerator) RandomName() string {
	rng.mu.Lock()
	defer rng.mu.Unlock()

	if rng.used == nil {
		rng.used = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(rng.seed)))
	}
	for {
		name := strings.ToLower(strings.ReplaceAll(randomdata.SillyName(), " ", ""))
		// avoid duplicate names
		if _, exists := rng.used[name]; !exists {
			rng.used[name] = struct{}{}
			return name
		}
	}
}
