package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrIndexOutOfRange indicates an entry that was never added.
	ErrIndexOutOfRange = errors.New("selector index out of range")
	// ErrEmptySelector indicates a draw from a selector whose total weight is zero.
	ErrEmptySelector = errors.New("selector has no weight to sample")
	// ErrNegativeWeight indicates a weight below zero.
	ErrNegativeWeight = errors.New("selector weight must be non-negative")
)

// WeightedSelector draws indices with probability proportional to their
// integer weight. Entries are append-only; weights are kept in a binary
// indexed tree so updates and draws are O(log n), and the sums are exact.
//
// A WeightedSelector is not safe for concurrent use.
type WeightedSelector struct {
	tree  []int64 // 1-based; tree[0] is unused
	total int64
}

// NewWeightedSelector returns an empty selector.
func NewWeightedSelector() *WeightedSelector {
	return &WeightedSelector{tree: []int64{0}}
}

// Len is the number of entries added so far.
func (s *WeightedSelector) Len() int {
	if len(s.tree) == 0 {
		return 0
	}
	return len(s.tree) - 1
}

// Total is the sum of all weights.
func (s *WeightedSelector) Total() int64 { return s.total }

// AddWeight appends an entry with weight w and returns its index.
func (s *WeightedSelector) AddWeight(w int64) (int, error) {
	if w < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeWeight, w)
	}
	if s.tree == nil {
		s.tree = []int64{0}
	}
	i := len(s.tree)
	// tree[i] covers entries (i-lowbit(i), i].
	s.tree = append(s.tree, w+s.prefix(i-1)-s.prefix(i-(i&-i)))
	s.total += w
	return i - 1, nil
}

// UpdateWeight adds delta to the weight of entry i.
func (s *WeightedSelector) UpdateWeight(i int, delta int64) error {
	cur, err := s.Weight(i)
	if err != nil {
		return err
	}
	if next := cur + delta; next < 0 {
		return fmt.Errorf("%w: entry %d would become %d", ErrNegativeWeight, i, next)
	}
	for k := i + 1; k < len(s.tree); k += k & -k {
		s.tree[k] += delta
	}
	s.total += delta
	return nil
}

// Weight returns the current weight of entry i.
func (s *WeightedSelector) Weight(i int) (int64, error) {
	if i < 0 || i >= s.Len() {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, s.Len())
	}
	return s.prefix(i+1) - s.prefix(i), nil
}

// Weights returns every entry's weight in insertion order.
func (s *WeightedSelector) Weights() []int64 {
	out := make([]int64, s.Len())
	var prev int64
	for i := range out {
		cur := s.prefix(i + 1)
		out[i] = cur - prev
		prev = cur
	}
	return out
}

// Sample draws an index with probability proportional to its weight.
// Entries of weight zero are never drawn.
func (s *WeightedSelector) Sample(r *rand.Rand) (int, error) {
	n := s.Len()
	if n == 0 || s.total <= 0 {
		return 0, ErrEmptySelector
	}
	// Find the first entry whose prefix sum exceeds target. target < total,
	// so the descent always stops inside the tree.
	target := r.Int63n(s.total)
	pos := 0
	for step := highBit(n); step > 0; step >>= 1 {
		if next := pos + step; next <= n && s.tree[next] <= target {
			pos = next
			target -= s.tree[next]
		}
	}
	return pos, nil
}

// prefix sums the first k entries.
func (s *WeightedSelector) prefix(k int) int64 {
	var sum int64
	for ; k > 0; k -= k & -k {
		sum += s.tree[k]
	}
	return sum
}

func highBit(n int) int {
	b := 1
	for b<<1 <= n {
		b <<= 1
	}
	return b
}
