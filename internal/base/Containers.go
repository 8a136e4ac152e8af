package base

import (
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
)

/***************************************
 * Container helpers
 ***************************************/

func CopySlice[T any](in ...T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func Map[OUT, IN any](transform func(IN) OUT, in ...IN) (out []OUT) {
	out = make([]OUT, len(in))
	for i, x := range in {
		out[i] = transform(x)
	}
	return
}

func IndexOf[T comparable](match T, values ...T) (int, bool) {
	for i, x := range values {
		if x == match {
			return i, true
		}
	}
	return -1, false
}

func IndexIf[T any](pred func(T) bool, values ...T) (int, bool) {
	for i, x := range values {
		if pred(x) {
			return i, true
		}
	}
	return -1, false
}

func Contains[T comparable](arr []T, values ...T) bool {
	for _, x := range values {
		if _, ok := IndexOf(x, arr...); !ok {
			return false
		}
	}
	return true
}

// AppendUniq keeps the first occurrence of each element, in order.
func AppendUniq[T comparable](src []T, elts ...T) (result []T) {
	result = src
	for _, x := range elts {
		if _, ok := IndexOf(x, result...); !ok {
			result = append(result, x)
		}
	}
	return result
}

func RemoveUnless[T any](pred func(T) bool, src ...T) (result []T) {
	off := 0
	result = make([]T, len(src))
	for i, x := range src {
		if pred(x) {
			result[off] = src[i]
			off++
		}
	}
	return result[:off]
}

func SortedKeys[K constraints.Ordered, V any](in map[K]V) []K {
	result := make([]K, 0, len(in))
	for key := range in {
		result = append(result, key)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})
	return result
}

/***************************************
 * Ordered set
 ***************************************/

// SetT is an insertion ordered set, backed by a slice and an index for larger sets.
type SetT[T comparable] struct {
	items []T
	index map[T]struct{}
}

func NewSet[T comparable](x ...T) (result SetT[T]) {
	result.AppendUniq(x...)
	return
}

func (set *SetT[T]) Len() int { return len(set.items) }
func (set *SetT[T]) Slice() []T {
	return CopySlice(set.items...)
}
func (set *SetT[T]) Contains(it T) bool {
	if set.index == nil {
		return false
	}
	_, ok := set.index[it]
	return ok
}
func (set *SetT[T]) AppendUniq(it ...T) (modified bool) {
	if set.index == nil {
		set.index = make(map[T]struct{}, len(it))
	}
	for _, x := range it {
		if _, ok := set.index[x]; !ok {
			set.index[x] = struct{}{}
			set.items = append(set.items, x)
			modified = true
		}
	}
	return
}

/***************************************
 * String set
 ***************************************/

type StringSet []string

func NewStringSet(x ...string) (result StringSet) {
	result = make(StringSet, len(x))
	copy(result, x)
	return
}

func (set StringSet) Len() int { return len(set) }
func (set StringSet) Slice() []string {
	return []string(set)
}
func (set StringSet) Contains(it ...string) bool {
	return Contains(set, it...)
}
func (set *StringSet) Append(it ...string) *StringSet {
	*set = append(*set, it...)
	return set
}
func (set *StringSet) AppendUniq(it ...string) *StringSet {
	*set = AppendUniq(*set, it...)
	return set
}
func (set StringSet) Equals(other StringSet) bool {
	if len(set) != len(other) {
		return false
	}
	for i, x := range set {
		if other[i] != x {
			return false
		}
	}
	return true
}
func (set StringSet) Join(sep string) string {
	return strings.Join(set, sep)
}
func (set StringSet) String() string {
	return set.Join(",")
}
func (set *StringSet) Set(in string) error {
	*set = (*set)[:0]
	for _, x := range strings.Split(in, ",") {
		if x = strings.TrimSpace(x); len(x) > 0 {
			set.Append(x)
		}
	}
	return nil
}
