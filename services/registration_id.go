package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseRegistrationNumbers extracts the numeric suffixes from existing
// registration identifiers. Identifiers with a foreign prefix or a
// non-numeric suffix are ignored rather than treated as an error.
func ParseRegistrationNumbers(prefix string, ids []string) []int {
	numbers := make([]int, 0, len(ids))
	for _, id := range ids {
		suffix, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n <= 0 {
			continue
		}
		numbers = append(numbers, n)
	}
	return numbers
}

// NextRegistrationNumber returns the smallest positive integer not present in
// used. Gaps left by deleted teams are reclaimed before the sequence grows.
func NextRegistrationNumber(used []int) int {
	sorted := make([]int, len(used))
	copy(sorted, used)
	sort.Ints(sorted)

	next := 1
	for _, n := range sorted {
		if n == next {
			next++
		} else if n > next {
			break
		}
	}
	return next
}

// FormatRegistrationID renders a registration identifier, e.g. 1 becomes
// MVLUHACK01. The suffix is zero-padded to two digits as a fixed-width
// convention; numbers past 99 render with their natural width.
func FormatRegistrationID(prefix string, n int) string {
	return fmt.Sprintf("%s%02d", prefix, n)
}
