package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct{ in, out string }{
		{"alice", "alice"},
		{"  alice\t", "alice"},
		{"Alice", "Alice"},
		// Decomposed e + combining acute collapses to the composed form.
		{"résumé", "résumé"},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := normalizeName(tc.in); got != tc.out {
			t.Errorf("normalizeName(%q): expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestGraphemeLen(t *testing.T) {
	cases := []struct {
		in  string
		len int
	}{
		{"", 0},
		{"abc", 3},
		{"résumé", 6},
		// Flag emoji is a pair of regional indicators, one grapheme.
		{"\U0001F1FA\U0001F1E6", 1},
		// Family emoji joined with ZWJs, one grapheme.
		{"\U0001F469‍\U0001F469‍\U0001F467", 1},
	}
	for _, tc := range cases {
		if got := graphemeLen(tc.in); got != tc.len {
			t.Errorf("graphemeLen(%q): expected %d, got %d", tc.in, tc.len, got)
		}
	}
}

func TestValidName(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"ab", true},
		{"alice", true},
		{"日本語", true},
		{strings.Repeat("a", 32), true},
		{"", false},
		{"a", false},
		{strings.Repeat("a", 33), false},
		{"ali\nce", false},
		{"ali\x00ce", false},
		// 33 graphemes of combined characters.
		{strings.Repeat("é", 33), false},
	}
	for _, tc := range cases {
		if got := validName(tc.in); got != tc.valid {
			t.Errorf("validName(%q): expected %v, got %v", tc.in, tc.valid, got)
		}
	}
}

func TestStringDedupe(t *testing.T) {
	cases := []struct {
		in, out []string
	}{
		{nil, nil},
		{[]string{"a"}, []string{"a"}},
		{[]string{"a", "b", "a", "c", "b"}, []string{"a", "b", "c"}},
		{[]string{"b", "a", "b"}, []string{"b", "a"}},
	}
	for _, tc := range cases {
		if got := stringDedupe(tc.in); !cmp.Equal(got, tc.out) {
			t.Errorf("stringDedupe(%v): expected %v, got %v", tc.in, tc.out, got)
		}
	}
}
