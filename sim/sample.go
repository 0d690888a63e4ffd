package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/sampleuv"
)

var (
	// ErrShapeMismatch reports scalar/per-group arguments that cannot be combined.
	ErrShapeMismatch = errors.New("mismatched group shapes")
	// ErrSampleTooLarge reports a draw of more items than the range holds.
	ErrSampleTooLarge = errors.New("sample larger than population")
	// ErrNegativeCount reports a negative draw count or range size.
	ErrNegativeCount = errors.New("negative count")
)

// Flip flips a weighted coin: true with probability p. A uniform [0,1) value
// is always drawn, so p <= 0 never succeeds and p >= 1 always does.
func Flip(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

// Adopt decides adoption with probability p and, on adoption, draws the
// intensity uniformly from [0,1). Non-adopters get 0.
func Adopt(rng *rand.Rand, p float64) float64 {
	if Flip(rng, p) {
		return rng.Float64()
	}
	return 0
}

// SampleWithoutReplacement draws k distinct integers from [0, n).
func SampleWithoutReplacement(rng *rand.Rand, k, n int) ([]int, error) {
	if k < 0 || n < 0 {
		return nil, fmt.Errorf("sample %d of %d: %w", k, n, ErrNegativeCount)
	}
	if k > n {
		return nil, fmt.Errorf("sample %d of %d: %w", k, n, ErrSampleTooLarge)
	}
	idx := make([]int, k)
	if k > 0 {
		sampleuv.WithoutReplacement(idx, n, rng)
	}
	return idx, nil
}

// StratifiedSample draws distinct indices from the flat range implied by
// sizes. The drawing mode follows the forms of k and sizes, never their values:
//   - scalar k, scalar sizes: k items from [0, sizes)
//   - scalar k, per-group sizes: k items from [0, sum(sizes))
//   - per-group k, per-group sizes of equal length: k[g] items from each
//     group g's contiguous sub-range
//
// Any other combination, or a draw larger than its range, is logged and
// yields an empty result alongside the error; callers may ignore the error and
// carry on with no draws.
func StratifiedSample(rng *rand.Rand, k, sizes GroupCounts) ([]int, error) {
	out, err := stratifiedSample(rng, k, sizes)
	if err != nil {
		logrus.Warnf("stratified sample k=%v sizes=%v: %v", k, sizes, err)
		return []int{}, err
	}
	return out, nil
}

func stratifiedSample(rng *rand.Rand, k, sizes GroupCounts) ([]int, error) {
	switch {
	case !k.IsPerGroup() && k.Len() == 1 && !sizes.IsPerGroup() && sizes.Len() == 1:
		return SampleWithoutReplacement(rng, k.At(0), sizes.At(0))
	case !k.IsPerGroup() && k.Len() == 1 && sizes.IsPerGroup():
		return SampleWithoutReplacement(rng, k.At(0), sizes.Total())
	case k.IsPerGroup() && sizes.IsPerGroup() && k.Len() == sizes.Len():
		out := make([]int, 0, k.Total())
		offset := 0
		for g := 0; g < sizes.Len(); g++ {
			draw, err := SampleWithoutReplacement(rng, k.At(g), sizes.At(g))
			if err != nil {
				return nil, fmt.Errorf("group %d: %w", g, err)
			}
			for _, j := range draw {
				out = append(out, offset+j)
			}
			offset += sizes.At(g)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("k=%v sizes=%v: %w", k, sizes, ErrShapeMismatch)
	}
}
