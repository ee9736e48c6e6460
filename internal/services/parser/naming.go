package parser

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// TableName returns the name of the relation table for target: the lower-cased target name
func TableName(target string) string {
	return lowerCaser.String(target)
}

// ExportedName returns name with its first letter upper-cased
func ExportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || r == '_' {
		return "X" + name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// namer hands out unique Go identifiers within one scope
type namer struct {
	used map[string]bool
}

func newNamer(reserved ...string) *namer {
	n := &namer{used: make(map[string]bool)}
	for _, name := range reserved {
		n.used[name] = true
	}
	return n
}

// name returns want, or want followed by the smallest free numeric suffix
func (n *namer) name(want string) string {
	if !n.used[want] {
		n.used[want] = true
		return want
	}
	for i := 2; ; i++ {
		candidate := want + strconv.Itoa(i)
		if !n.used[candidate] {
			n.used[candidate] = true
			return candidate
		}
	}
}
