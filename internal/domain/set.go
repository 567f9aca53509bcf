package domain

// UniqueStrings returns the distinct non-empty values of s in first-seen order.
// The result is never nil.
func UniqueStrings(s []string) []string {
	out := make([]string, 0, len(s))
	seen := make(map[string]struct{}, len(s))
	for _, v := range s {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CloneStrings returns a non-nil copy of s.
func CloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
