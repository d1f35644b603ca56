// Package similarity implements the deterministic agreement measure
// used to compare two canonical reply serializations.
package similarity

// Distance returns the Levenshtein edit distance between a and b: the
// minimum number of single-rune insertions, deletions and
// substitutions that transform one into the other. Classic dynamic
// programming over two rolling rows: O(len(a)*len(b)) time,
// O(min(len(a),len(b))) space, exact for inputs of any size the
// process can hold.
func Distance(a, b string) int {
	longer, shorter := []rune(a), []rune(b)
	if len(longer) < len(shorter) {
		longer, shorter = shorter, longer
	}
	if len(shorter) == 0 {
		return len(longer)
	}

	previous := make([]int, len(shorter)+1)
	current := make([]int, len(shorter)+1)
	for j := range previous {
		previous[j] = j
	}

	for i := 1; i <= len(longer); i++ {
		current[0] = i
		for j := 1; j <= len(shorter); j++ {
			cost := 1
			if longer[i-1] == shorter[j-1] {
				cost = 0
			}
			current[j] = min(previous[j]+1, current[j-1]+1, previous[j-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(shorter)]
}

// Percent normalizes the edit distance between a and b into an
// agreement percentage: 100*(1 - distance/max(len(a),len(b))), clamped
// to [0,100]. Two empty strings are vacuously identical and score 100.
// The measure is symmetric and inversely monotonic in edit distance:
// for fixed lengths, more edits never yields a higher score. The
// penalty term rounds up, so only identical inputs score 100: a single
// edit anywhere costs at least one point no matter how long the
// inputs.
func Percent(a, b string) int {
	lenA, lenB := len([]rune(a)), len([]rune(b))
	longest := max(lenA, lenB)
	if longest == 0 {
		return 100
	}

	score := 100 - (Distance(a, b)*100+longest-1)/longest
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
