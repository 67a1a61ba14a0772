package vec

// FloorDiv - целочисленное деление с округлением вниз (-1/16 == -1)
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod - остаток, согласованный с FloorDiv (всегда в [0, b) при b > 0)
func FloorMod(a, b int) int {
	return a - FloorDiv(a, b)*b
}
