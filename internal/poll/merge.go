package poll

import "sort"

// Merge folds fresh into existing keyed by key. A fresh copy replaces an
// existing one with the same key, duplicates inside fresh collapse to the
// last occurrence, and the result is stably sorted with less.
func Merge[K comparable, T any](existing, fresh []T, key func(T) K, less func(a, b T) bool) []T {
	index := make(map[K]int, len(existing)+len(fresh))
	merged := make([]T, 0, len(existing)+len(fresh))

	add := func(item T) {
		k := key(item)
		if i, ok := index[k]; ok {
			merged[i] = item
			return
		}
		index[k] = len(merged)
		merged = append(merged, item)
	}
	for _, item := range existing {
		add(item)
	}
	for _, item := range fresh {
		add(item)
	}

	if less != nil {
		sort.SliceStable(merged, func(i, j int) bool { return less(merged[i], merged[j]) })
	}
	return merged
}

// Keys returns the identity of every item, in order.
func Keys[K comparable, T any](items []T, key func(T) K) []K {
	keys := make([]K, 0, len(items))
	for _, item := range items {
		keys = append(keys, key(item))
	}
	return keys
}
