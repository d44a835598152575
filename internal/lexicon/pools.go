package lexicon

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

//go:embed questions.yaml
var questionsYAML []byte

// Tiers splits a persona pool by how directive the questions are.
type Tiers struct {
	Soft []string `yaml:"soft"`
	Firm []string `yaml:"firm"`
}

// Guardrail holds the single replacement question used per press band.
type Guardrail struct {
	Low  string `yaml:"low"`
	Mid  string `yaml:"mid"`
	High string `yaml:"high"`
}

// Pools are the canned questions and nudges the generator draws from.
type Pools struct {
	Primary       map[domain.Voice]Tiers    `yaml:"primary"`
	Generic       map[domain.Voice][]string `yaml:"generic"`
	Contradiction []string                  `yaml:"contradiction"`
	Micro         map[domain.Voice][]string `yaml:"micro"`
	Bland         []string                  `yaml:"bland"`
	Guardrail     Guardrail                 `yaml:"guardrail"`
	Fallback      string                    `yaml:"fallback"`
}

// DefaultPools parses the embedded question pools.
func DefaultPools() (*Pools, error) {
	return LoadPools("")
}

// MustDefaultPools is DefaultPools for the embedded data.
func MustDefaultPools() *Pools {
	p, err := DefaultPools()
	if err != nil {
		panic(fmt.Sprintf("load embedded question pools: %v", err))
	}
	return p
}

// LoadPools parses the embedded pools and applies the YAML file at path on top,
// when set.
func LoadPools(path string) (*Pools, error) {
	var p Pools
	if err := yaml.Unmarshal(questionsYAML, &p); err != nil {
		return nil, fmt.Errorf("parse embedded question pools: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read question pools %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse question pools %s: %w", path, err)
		}
	}

	p.Bland = normalizeAll(p.Bland)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every fixed template is present and that the
// default persona has pools to fall back on.
func (p *Pools) Validate() error {
	if p.Guardrail.Low == "" || p.Guardrail.Mid == "" || p.Guardrail.High == "" {
		return fmt.Errorf("question pools: guardrail templates must all be set")
	}
	if p.Fallback == "" {
		return fmt.Errorf("question pools: fallback question is empty")
	}
	if len(p.Micro[domain.VoiceDefault]) == 0 {
		return fmt.Errorf("question pools: micro.default is empty")
	}
	if len(p.Generic[domain.VoiceDefault]) == 0 {
		return fmt.Errorf("question pools: generic.default is empty")
	}
	for v := range p.Primary {
		if !v.Valid() {
			return fmt.Errorf("question pools: unknown voice %q in primary", v)
		}
	}
	for v := range p.Generic {
		if !v.Valid() {
			return fmt.Errorf("question pools: unknown voice %q in generic", v)
		}
	}
	for v := range p.Micro {
		if !v.Valid() {
			return fmt.Errorf("question pools: unknown voice %q in micro", v)
		}
	}
	return nil
}

// IsBland reports whether the question contains one of the bland patterns.
func (p *Pools) IsBland(question string) bool {
	return Parse(question).HasAny(p.Bland)
}
