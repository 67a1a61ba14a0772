package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededRandomDeterminism(t *testing.T) {
	a := NewSeededRandom(42)
	b := NewSeededRandom(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Int63(), b.Int63())
	}

	c := NewSeededRandom(43)
	assert.NotEqual(t, NewSeededRandom(42).Int63(), c.Int63())
}

func TestFieldDeterminism(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmSimplex, AlgorithmPerlin} {
		f1 := NewField(alg, NewSeededRandom(7))
		f2 := NewField(alg, NewSeededRandom(7))
		for x := -20; x < 20; x++ {
			for z := -20; z < 20; z++ {
				fx, fz := float64(x)/13.7, float64(z)/13.7
				require.Equal(t, f1.Sample2D(fx, fz), f2.Sample2D(fx, fz), "%s (%d,%d)", alg, x, z)
				require.Equal(t, f1.Sample3D(fx, 0.5, fz), f2.Sample3D(fx, 0.5, fz))
			}
		}
	}
}

func TestFieldRangeAndContinuity(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmSimplex, AlgorithmPerlin} {
		f := NewField(alg, NewSeededRandom(0))
		prev := f.Sample2D(-5, 1.25)
		for i := 1; i <= 1000; i++ {
			x := -5 + float64(i)*0.01
			v := f.Sample2D(x, 1.25)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
			// шаг 0.01 не должен давать скачков
			assert.Less(t, math.Abs(v-prev), 0.2, "%s jump at x=%f", alg, x)
			prev = v
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmSimplex, alg)

	alg, err = ParseAlgorithm("Perlin")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmPerlin, alg)

	_, err = ParseAlgorithm("value")
	assert.Error(t, err)
}

func TestFieldsFromOneRandomDiffer(t *testing.T) {
	rng := NewSeededRandom(1)
	a := NewField(AlgorithmSimplex, rng)
	b := NewField(AlgorithmSimplex, rng)
	assert.NotEqual(t, a.Seed(), b.Seed())
}
