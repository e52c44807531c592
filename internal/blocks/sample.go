package blocks

import (
	"fmt"
	"math/rand/v2"
)

// Sample picks n entries from numbers without replacement, uniformly at
// random, and returns them in selection order. Positions are sampled, so a
// value repeated in the input may appear more than once in the result.
func Sample(rng *rand.Rand, numbers []int, n int) ([]int, error) {
	if n < 0 || n > len(numbers) {
		return nil, fmt.Errorf("cannot sample %d of %d numbers", n, len(numbers))
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pool := make([]int, len(numbers))
	copy(pool, numbers)

	// Partial Fisher-Yates: the first n slots end up holding the sample.
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n], nil
}
