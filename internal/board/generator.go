package board

import (
	"math/rand/v2"
	"sync"
)

// Generator rolls random boards from the dice set.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded from the runtime's random source.
func NewGenerator() *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededGenerator returns a generator whose sequence of boards is fully
// determined by seed.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// Generate shuffles the dice, rolls one face per die and lays the faces out row-major.
func (g *Generator) Generate() *Board {
	g.mu.Lock()
	defer g.mu.Unlock()

	order := g.rng.Perm(Cells)
	b := &Board{}
	for i, d := range order {
		b.faces[i] = dice[d][g.rng.IntN(len(dice[d]))]
	}
	return b
}
