package ir

// Integer helpers shared by the fold rules and the analyzers. All operate
// on int64 with the caller responsible for divisor checks.

// FloorDiv64 rounds the quotient toward negative infinity.
func FloorDiv64(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod64 returns the remainder matching FloorDiv64; its sign follows b.
func FloorMod64(a, b int64) int64 {
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		r += b
	}
	return r
}

// ZeroAwareGCD is the greatest common divisor with gcd(0, x) = |x|.
func ZeroAwareGCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a < b {
		a, b = b, a
	}
	if b == 0 {
		return a
	}
	for a%b != 0 {
		a = a % b
		a, b = b, a
	}
	return b
}

// ExtendedEuclidean solves a*x + b*y = gcd(a, b) and returns the gcd.
func ExtendedEuclidean(a, b int64) (gcd, x, y int64) {
	s, oldS := int64(0), int64(1)
	absA := a
	if absA < 0 {
		absA = -absA
	}
	r, oldR := b, absA
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
	}
	if a >= 0 {
		x = oldS
	} else {
		x = -oldS
	}
	if b != 0 {
		y = (oldR - x*a) / b
	} else {
		y = 1
	}
	return oldR, x, y
}

// LeastCommonMultiple of two positive values.
func LeastCommonMultiple(a, b int64) int64 {
	gcd, _, _ := ExtendedEuclidean(a, b)
	return (a * b) / gcd
}

// CheckPowOfTwo returns k when x == 1<<k, or -1.
func CheckPowOfTwo(x int64) int {
	if x <= 0 {
		return -1
	}
	if x&(x-1) != 0 {
		return -1
	}
	k := 0
	for x > 1 {
		x >>= 1
		k++
	}
	return k
}

// foldInt64Repr truncates v to what dtype can represent, matching the
// two's-complement wrap of the target width.
func foldInt64Repr(v int64, t DType) int64 {
	if t.Bits >= 64 || t.Bits <= 0 {
		return v
	}
	shift := 64 - uint(t.Bits)
	if t.Code == CodeUInt {
		return int64(uint64(v) << shift >> shift)
	}
	return v << shift >> shift
}
