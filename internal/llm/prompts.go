package llm

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`

	userTmpl *template.Template
}

type promptSet struct {
	GenerateLayout    promptPair `yaml:"generate_layout"`
	SummarizeFeedback promptPair `yaml:"summarize_feedback"`
}

var prompts = mustLoadPrompts(promptsYAML)

func mustLoadPrompts(raw []byte) promptSet {
	ps, err := loadPrompts(raw)
	if err != nil {
		panic(err)
	}
	return ps
}

func loadPrompts(raw []byte) (promptSet, error) {
	var ps promptSet
	if err := yaml.Unmarshal(raw, &ps); err != nil {
		return promptSet{}, fmt.Errorf("prompts: %w", err)
	}
	for name, p := range map[string]*promptPair{
		"generate_layout":    &ps.GenerateLayout,
		"summarize_feedback": &ps.SummarizeFeedback,
	} {
		if strings.TrimSpace(p.System) == "" || strings.TrimSpace(p.User) == "" {
			return promptSet{}, fmt.Errorf("prompts: %s is incomplete", name)
		}
		t, err := template.New(name).Parse(p.User)
		if err != nil {
			return promptSet{}, fmt.Errorf("prompts: %s: %w", name, err)
		}
		p.userTmpl = t
	}
	return ps, nil
}

func (p promptPair) render(data any) (string, error) {
	var b strings.Builder
	if err := p.userTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
