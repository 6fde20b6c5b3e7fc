package reasoning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

type promptSpec struct {
	Temperature *float64 `yaml:"temperature"`
	System      string   `yaml:"system"`
	User        string   `yaml:"user"`
}

type prompt struct {
	temperature *float64
	system      *template.Template
	user        *template.Template
}

// Rendered is a prompt ready to send.
type Rendered struct {
	System      string
	User        string
	Temperature *float64
}

// Catalog holds one compiled prompt per kind.
type Catalog struct {
	prompts map[PromptKind]*prompt
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "    ", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	},
}

// DefaultCatalog compiles the embedded prompt set.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultPromptsYAML)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var specs map[PromptKind]promptSpec
	if err := yaml.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	c := &Catalog{prompts: map[PromptKind]*prompt{}}
	for _, kind := range []PromptKind{KindConceptExtraction, KindSemanticComparison, KindRubricScoring, KindChainOfThought} {
		spec, ok := specs[kind]
		if !ok {
			return nil, fmt.Errorf("prompt catalog: missing %s", kind)
		}
		sys, err := template.New(string(kind) + ".system").Funcs(funcs).Option("missingkey=error").Parse(spec.System)
		if err != nil {
			return nil, fmt.Errorf("prompt %s system: %w", kind, err)
		}
		usr, err := template.New(string(kind) + ".user").Funcs(funcs).Option("missingkey=error").Parse(spec.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %s user: %w", kind, err)
		}
		c.prompts[kind] = &prompt{temperature: spec.Temperature, system: sys, user: usr}
	}
	return c, nil
}

// SetTemperature overrides the catalog temperature for kind.
func (c *Catalog) SetTemperature(kind PromptKind, t float64) {
	if p, ok := c.prompts[kind]; ok {
		p.temperature = &t
	}
}

func (c *Catalog) Render(kind PromptKind, data any) (Rendered, error) {
	p, ok := c.prompts[kind]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown prompt kind %q", kind)
	}
	var sys, usr bytes.Buffer
	if err := p.system.Execute(&sys, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s system: %w", kind, err)
	}
	if err := p.user.Execute(&usr, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s user: %w", kind, err)
	}
	return Rendered{
		System:      strings.TrimSpace(sys.String()),
		User:        strings.TrimSpace(usr.String()),
		Temperature: p.temperature,
	}, nil
}
