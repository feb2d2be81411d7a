// Package useragent hands out browser User-Agent strings so consecutive
// requests do not share one fingerprint.
package useragent

import (
	"math/rand/v2"
	"sync"
)

var defaultPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Source picks one User-Agent per call
type Source interface {
	Next() string
}

// Rotator draws uniformly from a fixed pool. Safe for concurrent use.
type Rotator struct {
	pool []string
	mu   sync.Mutex
	intn func(n int) int
}

// NewRotator returns a rotator over pool, or over the default pool when empty
func NewRotator(pool ...string) *Rotator {
	if len(pool) == 0 {
		pool = defaultPool
	}
	p := make([]string, len(pool))
	copy(p, pool)
	return &Rotator{pool: p, intn: rand.IntN}
}

// NewSeededRotator returns a rotator with a deterministic pick sequence
func NewSeededRotator(seed uint64, pool ...string) *Rotator {
	r := NewRotator(pool...)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.intn = rng.IntN
	return r
}

// Next returns a randomly chosen User-Agent from the pool
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pool[r.intn(len(r.pool))]
}

// Size returns the number of strings in the pool
func (r *Rotator) Size() int {
	return len(r.pool)
}

var shared = NewRotator()

// Next draws from the default pool
func Next() string {
	return shared.Next()
}

// Pool returns a copy of the default pool
func Pool() []string {
	out := make([]string, len(defaultPool))
	copy(out, defaultPool)
	return out
}
