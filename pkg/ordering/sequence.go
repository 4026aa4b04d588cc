// Package ordering keeps the order_index of a workflow's steps dense.
//
// A Sequence is the array of step ids of one workflow in order; the step at
// position i has order_index i+1. Repositories load the stored ordering, apply
// one operation and write back only the ids reported by Diff.
package ordering

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnknownStep indicates the step is not part of the sequence.
	ErrUnknownStep = errors.New("step is not part of the workflow ordering")

	// ErrIndexOutOfRange indicates a requested order_index outside 1..N.
	ErrIndexOutOfRange = errors.New("order index out of range")

	// ErrNotDense indicates a set of indices that is not exactly 1..N.
	ErrNotDense = errors.New("order indices are not dense")
)

// Changes maps step ids to their new order_index.
type Changes map[string]int

// Sequence is the ordered list of step ids of one workflow.
type Sequence struct {
	ids []string
}

// FromStored builds a sequence from stored order_index values. Ties and gaps
// are resolved by sorting on (order_index, id), so a damaged ordering becomes
// dense again once the result of Diff is written back.
func FromStored(stored map[string]int) *Sequence {
	ids := make([]string, 0, len(stored))
	for id := range stored {
		ids = append(ids, id)
	}

	slices.SortFunc(ids, func(a, b string) int {
		if stored[a] != stored[b] {
			return stored[a] - stored[b]
		}

		return strings.Compare(a, b)
	})

	return &Sequence{ids: ids}
}

// Len returns the number of steps.
func (s *Sequence) Len() int {
	return len(s.ids)
}

// IndexOf returns the order_index of id, or 0 when absent.
func (s *Sequence) IndexOf(id string) int {
	return slices.Index(s.ids, id) + 1
}

// Append adds id at the end and returns its order_index (max + 1).
func (s *Sequence) Append(id string) int {
	s.ids = append(s.ids, id)

	return len(s.ids)
}

// Remove drops id; every following step moves up by one.
func (s *Sequence) Remove(id string) error {
	pos := slices.Index(s.ids, id)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}

	s.ids = slices.Delete(s.ids, pos, pos+1)

	return nil
}

// Move re-sequences the workflow so that id lands on order_index to.
// Steps between the old and the new position shift by one.
func (s *Sequence) Move(id string, to int) error {
	pos := slices.Index(s.ids, id)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}

	if to < 1 || to > len(s.ids) {
		return fmt.Errorf("%w: %d not in 1..%d", ErrIndexOutOfRange, to, len(s.ids))
	}

	s.ids = slices.Delete(s.ids, pos, pos+1)
	s.ids = slices.Insert(s.ids, to-1, id)

	return nil
}

// Diff returns the steps whose order_index differs from stored.
// Steps missing from stored are always reported.
func (s *Sequence) Diff(stored map[string]int) Changes {
	changes := make(Changes)

	for i, id := range s.ids {
		if current, ok := stored[id]; !ok || current != i+1 {
			changes[id] = i + 1
		}
	}

	return changes
}

// Verify reports ErrNotDense unless indices is exactly {1..len(indices)}.
func Verify(indices []int) error {
	seen := make([]bool, len(indices)+1)

	for _, index := range indices {
		if index < 1 || index > len(indices) {
			return fmt.Errorf("%w: %d not in 1..%d", ErrNotDense, index, len(indices))
		}

		if seen[index] {
			return fmt.Errorf("%w: duplicate %d", ErrNotDense, index)
		}

		seen[index] = true
	}

	return nil
}
