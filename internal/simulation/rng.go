package simulation

import (
	"fmt"
	"io"
	"math/rand"
	"time"
)

// NewSeededRNG creates a seeded random number generator.
// If seed is 0, uses current time and writes the seed to w for reproducibility.
func NewSeededRNG(seed int64, w io.Writer) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
		if w != nil {
			fmt.Fprintf(w, "Using seed: %d\n", seed)
		}
	}
	return rand.New(rand.NewSource(seed)), seed
}
