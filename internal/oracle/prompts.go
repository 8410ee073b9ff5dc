package oracle

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.tmpl
var embeddedFS embed.FS

// TemplateMeta holds the frontmatter metadata of a prompt template
type TemplateMeta struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// promptCache parses and caches embedded prompt templates
type promptCache struct {
	cache map[string]*template.Template
	mu    sync.Mutex
}

var prompts = &promptCache{cache: make(map[string]*template.Template)}

// renderPrompt renders the named embedded template with the given data
func renderPrompt(name string, data any) (string, error) {
	tmpl, err := prompts.load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

func (p *promptCache) load(name string) (*template.Template, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if tmpl, ok := p.cache[name]; ok {
		return tmpl, nil
	}

	content, err := fs.ReadFile(embeddedFS, "templates/"+name+".tmpl")
	if err != nil {
		return nil, fmt.Errorf("loading prompt %s: %w", name, err)
	}

	_, body, err := parseFrontmatter(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing prompt %s: %w", name, err)
	}

	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt %s: %w", name, err)
	}
	p.cache[name] = tmpl
	return tmpl, nil
}

// parseFrontmatter splits an optional YAML frontmatter block from the body
func parseFrontmatter(content string) (*TemplateMeta, string, error) {
	if !strings.HasPrefix(content, "---\n") {
		return nil, content, nil
	}

	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return nil, "", fmt.Errorf("unterminated frontmatter")
	}

	var meta TemplateMeta
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return nil, "", err
	}
	return &meta, rest[end+len("\n---\n"):], nil
}
