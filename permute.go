package bilm

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Permutation is a reading direction over a sentence. Every permutation is a
// deterministic bijection on token positions and owns a pair of boundary
// markers.
type Permutation uint8

const (
	Identity Permutation = iota
	Reverse
	Inward
	Outward
	Skip2Forward
	Skip2Backward
	Skip3Forward
	Skip3Backward
	numPermutations
)

var permutationNames = [numPermutations]string{
	"forward",
	"reverse",
	"inward",
	"outward",
	"skip2forward",
	"skip2backward",
	"skip3forward",
	"skip3backward",
}

func (p Permutation) String() string {
	if p.Valid() {
		return permutationNames[p]
	}
	return "Permutation(" + strconv.Itoa(int(p)) + ")"
}

func (p Permutation) Valid() bool {
	return p < numPermutations
}

// ParsePermutation maps a direction name to its Permutation. "identity" is
// accepted as an alias of "forward". An empty name is rejected.
func ParsePermutation(name string) (Permutation, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "identity" {
		return Identity, nil
	}
	for idx, candidate := range permutationNames {
		if candidate == lowered {
			return Permutation(idx), nil
		}
	}
	return Identity, errors.Wrapf(ErrUnknownPermutation, "%q", name)
}

// Indices returns, for each output position, the input position it reads.
func Indices(n int, p Permutation) ([]int, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "negative length %d", n)
	}
	indices := make([]int, 0, n)
	switch p {
	case Identity:
		for k := 0; k < n; k++ {
			indices = append(indices, k)
		}
	case Reverse:
		for k := n - 1; k >= 0; k-- {
			indices = append(indices, k)
		}
	case Inward:
		i, j := 0, n-1
		for k := 0; k < n; k++ {
			if k%2 == 0 {
				indices = append(indices, i)
				i++
			} else {
				indices = append(indices, j)
				j--
			}
		}
	case Outward:
		j := n / 2
		i := n/2 - 1
		for k := 0; k < n; k++ {
			if k%2 == 0 {
				indices = append(indices, j)
				j++
			} else {
				indices = append(indices, i)
				i--
			}
		}
	case Skip2Forward:
		indices = appendStrided(indices, n, 2, false)
	case Skip2Backward:
		indices = appendStrided(indices, n, 2, true)
	case Skip3Forward:
		indices = appendStrided(indices, n, 3, false)
	case Skip3Backward:
		indices = appendStrided(indices, n, 3, true)
	default:
		return nil, errors.Wrapf(ErrUnknownPermutation, "%d", uint8(p))
	}
	return indices, nil
}

// appendStrided emits one residue class after another. Forward classes start
// at 0, 1, ...; backward classes start at n-1, n-2, ... and walk down.
func appendStrided(indices []int, n, stride int, backward bool) []int {
	for class := 0; class < stride; class++ {
		if backward {
			for k := n - 1 - class; k >= 0; k -= stride {
				indices = append(indices, k)
			}
		} else {
			for k := class; k < n; k += stride {
				indices = append(indices, k)
			}
		}
	}
	return indices
}

// InverseIndices returns the map from input position to output position,
// so that Permute(out, ...) can be undone.
func InverseIndices(n int, p Permutation) ([]int, error) {
	indices, err := Indices(n, p)
	if err != nil {
		return nil, err
	}
	inverse := make([]int, n)
	for out, in := range indices {
		inverse[in] = out
	}
	return inverse, nil
}

// Permute returns a reordered copy of seq.
func Permute[T any](seq []T, p Permutation) ([]T, error) {
	indices, err := Indices(len(seq), p)
	if err != nil {
		return nil, err
	}
	permuted := make([]T, len(seq))
	for out, in := range indices {
		permuted[out] = seq[in]
	}
	return permuted, nil
}
