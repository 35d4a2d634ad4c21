// Package glob implements the small glob dialect used by the KEYS command.
package glob

// Match reports whether s matches pattern.
//
// The matcher is greedy with single-point backtracking: it remembers the
// position of the most recent '*' in pattern together with the input
// position it was tried against. On a mismatch it resumes right after that
// star with the input advanced by one byte. This keeps matching linear in
// practice and never recurses.
func Match(pattern, s string) bool {
	p, i := 0, 0
	star, mark := -1, 0

	for i < len(s) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = i
			p++
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == s[i]):
			p++
			i++
		case star >= 0:
			p = star + 1
			mark++
			i = mark
		default:
			return false
		}
	}

	// Trailing stars match the empty remainder.
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// MatchAll reports whether pattern matches every possible input, which lets
// callers skip per-key matching for "*".
func MatchAll(pattern string) bool {
	if pattern == "" {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '*' {
			return false
		}
	}
	return true
}
