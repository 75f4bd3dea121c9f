// Package version implements dotted-numeric version comparison for plugin
// version strings. Semantics follow the common version_compare contract:
// segments split on ".", compared numerically when both sides are numeric and
// lexically otherwise, with missing trailing segments treated as zero.
package version

import (
	"strings"
)

// Result is the outcome of comparing two version strings.
type Result int

const (
	Less    Result = -1
	Equal   Result = 0
	Greater Result = 1
)

func (r Result) String() string {
	switch r {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// Compare orders two version strings. The empty string is the lowest possible
// version. Non-numeric segments (including commit hashes) compare lexically;
// callers that may hold hash-derived versions should gate on Comparable first,
// since hash-vs-hash ordering is meaningless.
func Compare(a, b string) Result {
	if a == b {
		return Equal
	}

	if a == "" {
		return Less
	}

	if b == "" {
		return Greater
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := range n {
		sa, sb := "0", "0"
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}

		if r := compareSegment(sa, sb); r != Equal {
			return r
		}
	}

	return Equal
}

// IsUpdateAvailable reports whether the remote version is strictly newer than
// the installed one. Equal versions never signal an update.
func IsUpdateAvailable(remote, installed string) bool {
	return Compare(remote, installed) == Greater
}

func compareSegment(a, b string) Result {
	na, aNum := parseNumeric(a)
	nb, bNum := parseNumeric(b)

	if aNum && bNum {
		switch {
		case na < nb:
			return Less
		case na > nb:
			return Greater
		default:
			return Equal
		}
	}

	switch c := strings.Compare(a, b); {
	case c < 0:
		return Less
	case c > 0:
		return Greater
	default:
		return Equal
	}
}

// parseNumeric parses a segment as an unsigned decimal. Manual loop instead of
// strconv so that overlong segments fall back to lexical comparison instead of
// erroring out.
func parseNumeric(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}

	var n uint64

	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}

		if n > (1<<63)/10 {
			// Absurdly long numeric segment; treat as non-numeric.
			return 0, false
		}

		n = n*10 + uint64(c-'0')
	}

	return n, true
}
