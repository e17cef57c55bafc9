package orderid

import (
	"fmt"
	"strings"
)

// Kind tells a single order name token apart from a range token.
type Kind int

const (
	// KindSingle is one order name, e.g. "#1001".
	KindSingle Kind = iota

	// KindRange is an inclusive range of order names sharing a prefix, e.g. "#1005-#1007".
	KindRange
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindRange:
		return "range"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is one parsed whitespace-delimited argument.
// For KindSingle only From is meaningful.
type Token struct {
	Kind   Kind
	Prefix string
	From   int
	To     int
}

// Names returns the order names the token stands for, in ascending order.
func (t Token) Names() []string {
	switch t.Kind {
	case KindSingle:
		return []string{Identifier{Prefix: t.Prefix, Value: t.From}.String()}
	case KindRange:
		if t.To < t.From {
			return nil
		}
		names := make([]string, 0, t.To-t.From+1)
		for v := t.From; v <= t.To; v++ {
			names = append(names, Identifier{Prefix: t.Prefix, Value: v}.String())
		}
		return names
	default:
		panic(fmt.Sprintf("orderid: unknown token kind %d", int(t.Kind)))
	}
}

// ParseToken parses a single token. Surrounding whitespace is ignored.
func ParseToken(input string) (Token, error) {
	input = strings.TrimSpace(input)

	left, right, isRange := strings.Cut(input, "-")
	if !isRange {
		id, err := ParseIdentifier(input)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: KindSingle, Prefix: id.Prefix, From: id.Value, To: id.Value}, nil
	}

	from, err := ParseIdentifier(left)
	if err != nil {
		return Token{}, &FormatError{Input: input, Reason: fmt.Sprintf("bad range start %q", left)}
	}
	to, err := ParseIdentifier(right)
	if err != nil {
		return Token{}, &FormatError{Input: input, Reason: fmt.Sprintf("bad range end %q", right)}
	}

	if from.Prefix != to.Prefix {
		return Token{}, &FormatError{Input: input, Reason: "inconsistent prefixes"}
	}
	if from.Compare(to) > 0 {
		return Token{}, &FormatError{Input: input, Reason: "descending range"}
	}
	if to.Value-from.Value >= MaxRangeSize {
		return Token{}, &FormatError{Input: input, Reason: fmt.Sprintf("range larger than %d orders", MaxRangeSize)}
	}

	return Token{Kind: KindRange, Prefix: from.Prefix, From: from.Value, To: to.Value}, nil
}

// Parse splits every argument on whitespace and parses each token.
// A quoted argument may carry several tokens.
func Parse(args []string) ([]Token, error) {
	var tokens []Token
	for _, arg := range args {
		for _, field := range strings.Fields(arg) {
			token, err := ParseToken(field)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// Expand parses args and returns every order name they stand for.
// Token order is preserved and duplicates are kept.
func Expand(args []string) ([]string, error) {
	tokens, err := Parse(args)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, token := range tokens {
		names = append(names, token.Names()...)
	}
	return names, nil
}
