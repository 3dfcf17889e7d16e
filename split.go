package quickmatch

import (
	"unicode"
	"unicode/utf8"
)

// split is one case-insensitive occurrence of a target character inside a
// string: the text before the occurrence, the character with the casing it
// has in the string, and the text after it.
type split struct {
	before  string
	matched rune
	after   string
}

// splitOnChar returns every case-insensitive occurrence of target in s, in
// left-to-right order. Nil when target never occurs.
func splitOnChar(s string, target rune) []split {
	lower := unicode.ToLower(target)
	var splits []split
	for i, r := range s {
		if unicode.ToLower(r) == lower {
			splits = append(splits, split{
				before:  s[:i],
				matched: r,
				after:   s[i+utf8.RuneLen(r):],
			})
		}
	}
	return splits
}
