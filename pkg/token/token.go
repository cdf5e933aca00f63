// Package token implements the option micro-language used by export jobs.
//
// An export job carries an ordered list of free-form string tokens such as
// "2x", "100:200", "pad", "50%" or a CSS block. Consumers extract typed options
// from the list with regular expressions, one token at a time:
//
//	m, rest, ok := tokens.TakeFirst(qualityPattern)
//	if ok {
//	    quality, _ = strconv.Atoi(m.Group(1))
//	}
//	tokens = rest
//
// [List] is immutable. TakeFirst and TakeLast never modify their receiver; they
// return the list without the consumed token, and callers thread that value
// into the next step. A token is therefore consumed at most once, and a list
// can be shared freely between goroutines.
//
// Matching precedence across different patterns is decided by the caller's
// call order, not by token order. Token order only breaks ties between several
// tokens matching the same pattern: TakeFirst prefers the leftmost one,
// TakeLast the rightmost one ("later flags win").
package token

import (
	"regexp"
	"strings"
)

// List is an immutable ordered sequence of tokens.
// The zero value is an empty list.
type List struct {
	tokens []string
}

// New returns a list holding a copy of tokens.
func New(tokens ...string) List {
	if len(tokens) == 0 {
		return List{}
	}
	return List{tokens: append([]string(nil), tokens...)}
}

// Len returns the number of tokens left in the list.
func (l List) Len() int { return len(l.tokens) }

// Tokens returns a copy of the remaining tokens.
func (l List) Tokens() []string {
	return append([]string(nil), l.tokens...)
}

// Concat returns a new list with other appended after l.
func (l List) Concat(other List) List {
	out := make([]string, 0, len(l.tokens)+len(other.tokens))
	out = append(out, l.tokens...)
	out = append(out, other.tokens...)
	return List{tokens: out}
}

// String joins the tokens with single spaces.
func (l List) String() string { return strings.Join(l.tokens, " ") }

// Match holds the submatches of a consumed token.
// Match[0] is the whole token and Match[i] the i-th capture group.
type Match []string

// Group returns capture group i, or "" when the group did not participate
// in the match or does not exist.
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m) {
		return ""
	}
	return m[i]
}

// TakeFirst consumes the leftmost token matching re.
// It returns the submatches, the list without that token and true. When no
// token matches it returns nil, the unchanged list and false.
func (l List) TakeFirst(re *regexp.Regexp) (Match, List, bool) {
	for i, tok := range l.tokens {
		if m := re.FindStringSubmatch(tok); m != nil {
			return Match(m), l.without(i), true
		}
	}
	return nil, l, false
}

// TakeLast consumes the rightmost token matching re. Its results follow
// [List.TakeFirst].
func (l List) TakeLast(re *regexp.Regexp) (Match, List, bool) {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		if m := re.FindStringSubmatch(l.tokens[i]); m != nil {
			return Match(m), l.without(i), true
		}
	}
	return nil, l, false
}

// First is the callback form of [List.TakeFirst]: onMatch receives the
// submatches of the consumed token, onNoMatch (may be nil) runs when nothing
// matched. It returns the remaining list and whether a token was consumed.
func (l List) First(re *regexp.Regexp, onMatch func(Match), onNoMatch func()) (List, bool) {
	return l.take(l.TakeFirst, re, onMatch, onNoMatch)
}

// Last is the callback form of [List.TakeLast].
func (l List) Last(re *regexp.Regexp, onMatch func(Match), onNoMatch func()) (List, bool) {
	return l.take(l.TakeLast, re, onMatch, onNoMatch)
}

func (l List) take(fn func(*regexp.Regexp) (Match, List, bool), re *regexp.Regexp, onMatch func(Match), onNoMatch func()) (List, bool) {
	m, rest, ok := fn(re)
	if !ok {
		if onNoMatch != nil {
			onNoMatch()
		}
		return l, false
	}
	if onMatch != nil {
		onMatch(m)
	}
	return rest, true
}

// without returns a copy of the list with the token at index i removed.
func (l List) without(i int) List {
	out := make([]string, 0, len(l.tokens)-1)
	out = append(out, l.tokens[:i]...)
	out = append(out, l.tokens[i+1:]...)
	return List{tokens: out}
}
