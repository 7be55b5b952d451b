package sso

import "strings"

// MatchName reports whether candidate satisfies a name lookup pattern.
// A pattern containing '*' or '?' anywhere is matched with glob semantics:
// '*' matches any run of characters including the empty run, '?' matches
// exactly one character, everything else is literal. Any other non-empty
// pattern requires exact string equality. The empty pattern matches
// everything.
func MatchName(pattern, candidate string) bool {
	if pattern == "" {
		return true
	}
	if !strings.ContainsAny(pattern, "*?") {
		return pattern == candidate
	}
	return matchGlob([]rune(pattern), []rune(candidate))
}

// FilterByName applies MatchName over a listing, keeping input order.
// name extracts the candidate string from an item.
func FilterByName[T any](items []T, pattern string, name func(T) string) []T {
	if pattern == "" {
		return items
	}
	var matched []T
	for _, item := range items {
		if MatchName(pattern, name(item)) {
			matched = append(matched, item)
		}
	}
	return matched
}

// matchGlob is an iterative glob matcher with single-star backtracking.
// Runs in O(len(pattern) * len(name)) worst case, no recursion.
func matchGlob(pattern, name []rune) bool {
	p, n := 0, 0
	star, mark := -1, 0

	for n < len(name) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == name[n]):
			p++
			n++
		case p < len(pattern) && pattern[p] == '*':
			star, mark = p, n
			p++
		case star >= 0:
			// Backtrack: let the last '*' consume one more character.
			p = star + 1
			mark++
			n = mark
		default:
			return false
		}
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
