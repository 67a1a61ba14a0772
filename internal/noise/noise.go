package noise

import (
	"fmt"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Algorithm выбирает реализацию когерентного шума
type Algorithm string

const (
	AlgorithmSimplex Algorithm = "simplex"
	AlgorithmPerlin  Algorithm = "perlin"
)

// Параметры Перлина: сглаживание, частота, количество октав
const (
	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = int32(3)
)

// ParseAlgorithm разбирает имя алгоритма; пустая строка означает simplex
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", AlgorithmSimplex:
		return AlgorithmSimplex, nil
	case AlgorithmPerlin:
		return AlgorithmPerlin, nil
	}
	return "", fmt.Errorf("unknown noise algorithm %q", s)
}

// Field - когерентный шум, заданный в мировых координатах.
// Строится один раз на генерацию мира и используется всеми чанками,
// поэтому соседние чанки стыкуются без швов.
type Field struct {
	algorithm Algorithm
	seed      int64
	simplex   opensimplex.Noise
	perlin    *perlin.Perlin
}

// NewField берёт очередной сид из rng и строит поле шума.
// Порядок вызовов NewField на одном rng определяет итоговый рельеф.
func NewField(algorithm Algorithm, rng *SeededRandom) *Field {
	seed := rng.Int63()
	f := &Field{algorithm: algorithm, seed: seed}

	switch algorithm {
	case AlgorithmPerlin:
		f.perlin = perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed)
	default:
		f.algorithm = AlgorithmSimplex
		f.simplex = opensimplex.New(seed)
	}
	return f
}

// Algorithm возвращает алгоритм поля
func (f *Field) Algorithm() Algorithm {
	return f.algorithm
}

// Seed возвращает сид поля
func (f *Field) Seed() int64 {
	return f.seed
}

// Sample2D возвращает значение шума в [-1, 1]
func (f *Field) Sample2D(x, z float64) float64 {
	if f.perlin != nil {
		return clamp(f.perlin.Noise2D(x, z))
	}
	return clamp(f.simplex.Eval2(x, z))
}

// Sample3D возвращает значение объёмного шума в [-1, 1]
func (f *Field) Sample3D(x, y, z float64) float64 {
	if f.perlin != nil {
		return clamp(f.perlin.Noise3D(x, y, z))
	}
	return clamp(f.simplex.Eval3(x, y, z))
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
