package economy

import (
	"math"

	"github.com/holiman/uint256"
)

// mulDiv returns floor(a*b/d), clamped to MaxUint64. A zero divisor
// saturates.
func mulDiv(a, b, d uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if d == 0 {
		return math.MaxUint64
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(d))
	if !quotient.IsUint64() {
		return math.MaxUint64
	}
	return quotient.Uint64()
}

func saturatingAdd(a, b uint64) uint64 {
	if sum := a + b; sum >= a {
		return sum
	}
	return math.MaxUint64
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticOverflow
	}
	return a - b, nil
}

func checkedIncrement(v *uint64) error {
	next, err := checkedAdd(*v, 1)
	if err != nil {
		return err
	}
	*v = next
	return nil
}

// deadline returns start+duration, clamped to the int64 range.
func deadline(start, duration int64) int64 {
	if duration > 0 && start > math.MaxInt64-duration {
		return math.MaxInt64
	}
	if duration < 0 && start < math.MinInt64-duration {
		return math.MinInt64
	}
	return start + duration
}

func clamp(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
