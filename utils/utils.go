package utils

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

// Truncate returns s cut down to at most max elements. Used to cap
// unbounded report lists before they leave the process.
func Truncate[T any](s []T, max int) []T {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// DedupStrings returns the unique values of s in first-seen order
func DedupStrings(s []string) []string {
	seen := make(map[string]bool, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
