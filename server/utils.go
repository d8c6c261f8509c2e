/******************************************************************************
 *
 *  Description :
 *
 *    Misc. utility functions: username and group name validation.
 *
 *****************************************************************************/

package main

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

const (
	minNameLength = 2
	maxNameLength = 32
)

// normalizeName brings a user-supplied name to canonical form: trimmed
// and NFC-normalized. Comparisons are case-sensitive.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// graphemeLen counts user-perceived characters as opposed to runes or bytes.
func graphemeLen(s string) int {
	count := 0
	for state, remaining := -1, s; len(remaining) > 0; {
		_, remaining, _, state = uniseg.StepString(remaining, state)
		count++
	}
	return count
}

// validName checks length limits and rejects control characters. The name
// must have been normalized first.
func validName(name string) bool {
	if strings.ContainsFunc(name, unicode.IsControl) {
		return false
	}
	length := graphemeLen(name)
	return length >= minNameLength && length <= maxNameLength
}

// stringDedupe removes duplicates from a slice preserving the order of
// first occurrence.
func stringDedupe(src []string) []string {
	seen := make(map[string]bool, len(src))
	var dst []string
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}
