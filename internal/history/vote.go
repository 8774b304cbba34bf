package history

// MostCommon returns the most frequent value. When several values share the
// highest count, the one that first appears in values wins. ok is false for
// empty input.
func MostCommon(values []int) (v int, ok bool) {
	if len(values) == 0 {
		return 0, false
	}

	counts := make(map[int]int, len(values))
	order := make([]int, 0, len(values))
	for _, x := range values {
		if counts[x] == 0 {
			order = append(order, x)
		}
		counts[x]++
	}

	best := order[0]
	for _, x := range order[1:] {
		if counts[x] > counts[best] {
			best = x
		}
	}
	return best, true
}
