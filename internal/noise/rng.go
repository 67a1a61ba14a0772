package noise

import "math/rand"

// SeededRandom - детерминированный генератор псевдослучайных чисел.
// Один и тот же сид всегда даёт одну и ту же последовательность.
type SeededRandom struct {
	seed int64
	rnd  *rand.Rand
}

// NewSeededRandom создаёт генератор с указанным сидом
func NewSeededRandom(seed int64) *SeededRandom {
	return &SeededRandom{
		seed: seed,
		rnd:  rand.New(rand.NewSource(seed)),
	}
}

// Seed возвращает исходный сид
func (r *SeededRandom) Seed() int64 {
	return r.seed
}

// Float64 возвращает число в [0, 1)
func (r *SeededRandom) Float64() float64 {
	return r.rnd.Float64()
}

// Int63 возвращает неотрицательное 63-битное число
func (r *SeededRandom) Int63() int64 {
	return r.rnd.Int63()
}

// Intn возвращает число в [0, n)
func (r *SeededRandom) Intn(n int) int {
	return r.rnd.Intn(n)
}
