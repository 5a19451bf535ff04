// Package params defines the parameter containers shared by flows,
// conditioners and structural equations.
//
// A Blob is the opaque parameter payload owned by one primitive: an ordered
// list of dense tensors whose layout only its producer interprets. A Set (θ)
// maps parameter-group keys ("V1", "V1->X", "U_X->X", ...) to blobs.
//
// Blobs are treated as immutable once produced; Clone exists for training
// code that wants to mutate a private copy.
package params

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jimimvp/CausalProb/matrix"
)

var (
	// ErrUnknownGroup indicates a lookup of a key not present in the Set.
	ErrUnknownGroup = errors.New("params: unknown parameter group")

	// ErrBadLayout indicates a blob whose tensor count or shapes do not match
	// what its owner expects.
	ErrBadLayout = errors.New("params: unexpected blob layout")
)

// Blob is an ordered list of tensors owned by a single primitive.
type Blob []*matrix.Dense

// Clone deep-copies every tensor of b.
func (b Blob) Clone() Blob {
	if b == nil {
		return nil
	}
	out := make(Blob, len(b))
	for i, t := range b {
		if t != nil {
			out[i] = t.Clone()
		}
	}

	return out
}

// Len returns the total number of scalar parameters in b.
func (b Blob) Len() int {
	n := 0
	for _, t := range b {
		if t != nil {
			n += t.Rows() * t.Cols()
		}
	}

	return n
}

// Expect checks that b holds exactly n tensors.
func (b Blob) Expect(n int) error {
	if len(b) != n {
		return fmt.Errorf("%w: have %d tensors, want %d", ErrBadLayout, len(b), n)
	}
	for i, t := range b {
		if t == nil {
			return fmt.Errorf("%w: tensor %d is nil", ErrBadLayout, i)
		}
	}

	return nil
}

// Set is θ: parameter-group key → Blob.
type Set map[string]Blob

// Get returns the blob stored under key or ErrUnknownGroup.
func (s Set) Get(key string) (Blob, error) {
	b, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, key)
	}

	return b, nil
}

// Keys returns the group keys in lexical order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Clone deep-copies every blob of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, b := range s {
		out[k] = b.Clone()
	}

	return out
}
