// Package orderid parses order name arguments into individual order names.
//
// Order names are an optional non-digit prefix followed by digits ("#1001",
// "#A1001", "1001"). A token of the form "#1005-#1007" is a range and expands
// to every name between both endpoints, inclusive:
//
//	names, err := orderid.Expand([]string{"#1001 #1005-#1007"})
//	// names == []string{"#1001", "#1005", "#1006", "#1007"}
package orderid

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxRangeSize is the largest number of names a single range token may expand to.
const MaxRangeSize = 10000

// identifierPattern matches an optional non-digit prefix followed by digits.
var identifierPattern = regexp.MustCompile(`^(\D*)(\d+)$`)

// Identifier is a single order name split into its prefix and numeric part.
type Identifier struct {
	Prefix string
	Value  int
}

// String returns the canonical order name.
func (id Identifier) String() string {
	return id.Prefix + strconv.Itoa(id.Value)
}

// Compare orders identifiers by prefix, then by numeric value.
// It returns -1, 0 or +1.
func (id Identifier) Compare(other Identifier) int {
	if c := strings.Compare(id.Prefix, other.Prefix); c != 0 {
		return c
	}
	switch {
	case id.Value < other.Value:
		return -1
	case id.Value > other.Value:
		return 1
	default:
		return 0
	}
}

// ParseIdentifier parses a single order name such as "#1001".
func ParseIdentifier(s string) (Identifier, error) {
	match := identifierPattern.FindStringSubmatch(s)
	if match == nil {
		return Identifier{}, &FormatError{Input: s, Reason: "expected an optional prefix followed by digits"}
	}

	value, err := strconv.Atoi(match[2])
	if err != nil {
		return Identifier{}, &FormatError{Input: s, Reason: "number out of range"}
	}

	return Identifier{Prefix: match[1], Value: value}, nil
}
