package questions

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is the randomness used to draw from pools. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a Rand that is safe for concurrent use. A zero seed is
// replaced by the current time.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// pickN draws up to n distinct entries of pool.
func pickN(rng Rand, pool []string, n int) []string {
	n = min(n, len(pool))
	if n <= 0 {
		return nil
	}

	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, pool[idx[i]])
	}
	return out
}
