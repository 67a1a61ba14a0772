package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, div, mod int }{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
		{7, 4, 1, 3},
		{-5, 4, -2, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.div, FloorDiv(c.a, c.b), "FloorDiv(%d,%d)", c.a, c.b)
		assert.Equal(t, c.mod, FloorMod(c.a, c.b), "FloorMod(%d,%d)", c.a, c.b)
	}
}

func TestVec3FloatFloor(t *testing.T) {
	assert.Equal(t, Vec3{X: -1, Y: 2, Z: 0}, Vec3Float{X: -0.5, Y: 2.9, Z: 0.1}.Floor())
	assert.True(t, Vec3Float{X: 1}.IsFinite())
}
