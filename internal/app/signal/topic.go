package signal

import (
	"slices"
	"strings"

	"github.com/PabloGalante/farum-probe/internal/lexicon"
)

// TopicTokens is how many meaningful tokens a topic fingerprint keeps.
const TopicTokens = 5

// Topic returns the topic fingerprint of input: its first TopicTokens tokens
// that are longer than two runes and not stop words, space separated.
func (d *Detector) Topic(input string) string {
	var kept []string
	for _, tok := range lexicon.Parse(input).Tokens() {
		tok, ok := d.meaningful(tok)
		if !ok {
			continue
		}
		kept = append(kept, tok)
		if len(kept) == TopicTokens {
			break
		}
	}
	return strings.Join(kept, " ")
}

// meaningful strips apostrophes from tok and reports whether what is left
// is long enough and not a stop word.
func (d *Detector) meaningful(tok string) (string, bool) {
	if slices.Contains(d.lex.StopWords, tok) {
		return "", false
	}
	tok = strings.ReplaceAll(tok, "'", "")
	if len([]rune(tok)) < minTokenRunes || slices.Contains(d.lex.StopWords, tok) {
		return "", false
	}
	return tok, true
}

// contentTokens is the token set used for topic comparison. Both sides go
// through the same filter as Topic.
func (d *Detector) contentTokens(t lexicon.Text) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range t.Tokens() {
		if tok, ok := d.meaningful(tok); ok {
			set[tok] = struct{}{}
		}
	}
	return set
}
