// Package lexicon holds the word lists and question pools used by the probe
// engine. Both are parsed once from embedded YAML, optionally overridden by a
// file, and treated as read-only afterwards.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

// TriggerOrder is the priority in which persona triggers are checked.
var TriggerOrder = []domain.Voice{
	domain.VoiceStrategist,
	domain.VoiceScientist,
	domain.VoiceOracle,
	domain.VoiceMirror,
}

// Lexicon groups the phrase lists for signal, overwhelm and voice detection.
// All phrases are normalized (see Normalize) when loaded.
type Lexicon struct {
	Hedges      []string                  `yaml:"hedges"`
	Temporal    []string                  `yaml:"temporal"`
	Spatial     []string                  `yaml:"spatial"`
	NumberWords []string                  `yaml:"number_words"`
	Verbs       []string                  `yaml:"verbs"`
	Determiners []string                  `yaml:"determiners"`
	StopWords   []string                  `yaml:"stop_words"`
	Overwhelm   OverwhelmLexicon          `yaml:"overwhelm"`
	Thematic    []string                  `yaml:"thematic"`
	Triggers    map[domain.Voice][]string `yaml:"triggers"`
}

type OverwhelmLexicon struct {
	Strong     []string `yaml:"strong"`
	Absolutist []string `yaml:"absolutist"`
}

// Default parses the embedded lexicon.
func Default() (*Lexicon, error) {
	return Load("")
}

// MustDefault is Default for the embedded data, which is known to be valid.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(fmt.Sprintf("load embedded lexicon: %v", err))
	}
	return lex
}

// Load parses the embedded lexicon and, when path is set, applies the YAML
// file on top of it. Lists in the file replace the embedded ones; trigger
// lists are replaced per voice.
func Load(path string) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(lexiconYAML, &lex); err != nil {
		return nil, fmt.Errorf("parse embedded lexicon: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read lexicon %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &lex); err != nil {
			return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
		}
	}

	lex.normalize()
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func (l *Lexicon) normalize() {
	l.Hedges = normalizeAll(l.Hedges)
	l.Temporal = normalizeAll(l.Temporal)
	l.Spatial = normalizeAll(l.Spatial)
	l.NumberWords = normalizeAll(l.NumberWords)
	l.Verbs = normalizeAll(l.Verbs)
	l.Determiners = normalizeAll(l.Determiners)
	l.StopWords = normalizeAll(l.StopWords)
	l.Overwhelm.Strong = normalizeAll(l.Overwhelm.Strong)
	l.Overwhelm.Absolutist = normalizeAll(l.Overwhelm.Absolutist)
	l.Thematic = normalizeAll(l.Thematic)
	for v, phrases := range l.Triggers {
		l.Triggers[v] = normalizeAll(phrases)
	}
}

// Validate checks that the lexicon can drive the detectors and that no
// trigger phrase is claimed by two personas.
func (l *Lexicon) Validate() error {
	if len(l.Hedges) == 0 {
		return fmt.Errorf("lexicon: hedges are empty")
	}
	if len(l.Overwhelm.Strong) == 0 {
		return fmt.Errorf("lexicon: overwhelm.strong is empty")
	}

	owner := make(map[string]domain.Voice)
	for v, phrases := range l.Triggers {
		if !v.Valid() {
			return fmt.Errorf("lexicon: unknown voice %q in triggers", v)
		}
		for _, p := range phrases {
			if prev, ok := owner[p]; ok && prev != v {
				return fmt.Errorf("lexicon: trigger %q used by both %s and %s", p, prev, v)
			}
			owner[p] = v
		}
	}
	return nil
}

func normalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		n := Normalize(p)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
