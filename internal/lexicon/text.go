package lexicon

import (
	"strings"
	"unicode"
)

// Text is an utterance split into lowercase word tokens.
type Text struct {
	tokens []string
	padded string
}

// Parse lowercases s, folds typographic apostrophes and splits it on every rune
// that is not a letter, digit or an apostrophe inside a word.
func Parse(s string) Text {
	s = strings.ToLower(s)
	s = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(s)

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}

	return Text{
		tokens: tokens,
		padded: " " + strings.Join(tokens, " ") + " ",
	}
}

// Normalize returns the canonical form of a phrase as stored in a Lexicon.
func Normalize(phrase string) string {
	return strings.Join(Parse(phrase).tokens, " ")
}

func (t Text) Tokens() []string { return t.tokens }

func (t Text) Len() int { return len(t.tokens) }

// Has reports whether the normalized phrase occurs on word boundaries.
func (t Text) Has(phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(t.padded, " "+phrase+" ")
}

// Matches returns the phrases found in t, in list order.
func (t Text) Matches(phrases []string) []string {
	var out []string
	for _, p := range phrases {
		if t.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// HasAny reports whether any of the phrases occurs in t.
func (t Text) HasAny(phrases []string) bool {
	for _, p := range phrases {
		if t.Has(p) {
			return true
		}
	}
	return false
}
