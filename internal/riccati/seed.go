package riccati

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Seeder produces the S×S iterate the doubling solver compares its first
// iterate against. The default is deterministic.
type Seeder func(s int) *mat.Dense

// ZeroSeed is the default seed.
func ZeroSeed(s int) *mat.Dense {
	return mat.NewDense(s, s, nil)
}

func IdentitySeed(s int) *mat.Dense {
	return identity(s)
}

// RandomSeed draws uniform [0, 1) entries from rng. Use a seeded source to
// keep runs reproducible.
func RandomSeed(rng *rand.Rand) Seeder {
	return func(s int) *mat.Dense {
		m := mat.NewDense(s, s, nil)
		for i := 0; i < s; i++ {
			for j := 0; j < s; j++ {
				m.Set(i, j, rng.Float64())
			}
		}
		return m
	}
}
