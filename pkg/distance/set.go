package distance

// Set is an unordered collection of comparable identifiers.
type Set[T comparable] map[T]struct{}

// NewSet builds a set from the given items. Duplicates collapse.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Has reports whether item is in the set.
func (s Set[T]) Has(item T) bool {
	_, ok := s[item]
	return ok
}

// Intersection returns the number of items present in both sets.
func (s Set[T]) Intersection(other Set[T]) int {
	// Iterate over the smaller set for efficiency
	small, big := s, other
	if len(small) > len(big) {
		small, big = big, small
	}
	n := 0
	for item := range small {
		if big.Has(item) {
			n++
		}
	}
	return n
}

// JaccardIndex returns |A∩B| / |A∪B|. Two empty sets are considered
// identical and score 1.
func JaccardIndex[T comparable](a, b Set[T]) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := a.Intersection(b)
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Jaccard returns the Jaccard distance 1 - |A∩B| / |A∪B|: 0 for identical
// sets, 1 for disjoint ones.
func Jaccard[T comparable](a, b Set[T]) float64 {
	return 1.0 - JaccardIndex(a, b)
}

// JaccardSlices is Jaccard over two slices, each converted to a set first.
func JaccardSlices[T comparable](a, b []T) float64 {
	return Jaccard(NewSet(a...), NewSet(b...))
}
