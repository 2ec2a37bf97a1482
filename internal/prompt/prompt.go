// Package prompt renders the prompt template for every structured LLM
// call the core makes (spec.md 4.4). Every template is a named-slot
// text/template document; rendering refuses to proceed if the caller
// has left any slot the template references unbound, rather than
// silently emitting "<no value>" into a prompt an agent will then act
// on.
package prompt

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/discernus/discernus-core/internal/logutil"
)

// TemplateData is the slot map passed to a template. Keys match the
// template's {{.key}} references; BuildPrompt fails closed if the
// template references a key absent from Slots.
type TemplateData struct {
	Slots map[string]string
}

// NewTemplateData returns an empty, ready-to-populate slot set.
func NewTemplateData() *TemplateData {
	return &TemplateData{Slots: make(map[string]string)}
}

// Set assigns a slot value and returns the receiver for chaining.
func (d *TemplateData) Set(key, value string) *TemplateData {
	d.Slots[key] = value
	return d
}

// EncodeDocument base64-encodes a corpus document's bytes for embedding
// in a prompt slot, so a non-UTF-8 source document can never corrupt the
// surrounding prompt structure.
func EncodeDocument(content []byte) string {
	return base64.StdEncoding.EncodeToString(content)
}

// ConfigManagerInterface is the minimal surface the config-aware
// constructor needs from internal/config.Manager: resolving a template
// name to a filesystem path through the user/system precedence chain.
type ConfigManagerInterface interface {
	GetTemplatePath(name string) (string, error)
}

// ManagerInterface defines the interface for prompt template management.
type ManagerInterface interface {
	LoadTemplate(templatePath string) error
	BuildPrompt(templateName string, data *TemplateData) (string, error)
	ListTemplates() ([]string, error)
}

// Manager handles loading and processing prompt templates.
type Manager struct {
	logger         logutil.LoggerInterface
	configManager  ConfigManagerInterface
	templatePath   string
	templates      map[string]*template.Template
	defaultTmplDir string
}

// NewManager creates a prompt manager with no config-driven template
// overrides: every template name resolves to its embedded default.
func NewManager(logger logutil.LoggerInterface) *Manager {
	return &Manager{
		logger:         logger,
		templates:      make(map[string]*template.Template),
		defaultTmplDir: filepath.Join("internal", "prompt", "templates"),
	}
}

// NewManagerWithConfig creates a prompt manager that consults
// configManager for a user- or system-configured override before
// falling back to the embedded default templates.
func NewManagerWithConfig(logger logutil.LoggerInterface, configManager ConfigManagerInterface) *Manager {
	m := NewManager(logger)
	m.configManager = configManager
	return m
}

// LoadTemplate loads a prompt template by name or path. Resolution
// order: an explicit filesystem path, then the config manager's
// override (if one is configured and knows the name), then the
// embedded default.
func (m *Manager) LoadTemplate(templatePath string) error {
	if templatePath == "" {
		templatePath = "default.tmpl"
	}

	name := filepath.Base(templatePath)

	if strings.ContainsRune(templatePath, os.PathSeparator) {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("template file not found: %w", err)
		}
		return m.parseAndStore(name, string(content))
	}

	if m.configManager != nil {
		if resolved, err := m.configManager.GetTemplatePath(name); err == nil {
			content, err := os.ReadFile(resolved)
			if err != nil {
				return fmt.Errorf("failed to read configured template %s: %w", resolved, err)
			}
			return m.parseAndStore(name, string(content))
		}
	}

	content, err := fs.ReadFile(EmbeddedTemplates, "templates/"+name)
	if err != nil {
		return fmt.Errorf("template file not found: %s", name)
	}
	return m.parseAndStore(name, string(content))
}

func (m *Manager) parseAndStore(name, content string) error {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	m.templates[name] = tmpl
	return nil
}

// BuildPrompt renders a template against data.Slots, refusing (rather
// than emitting "<no value>") if the template references a slot data
// does not supply.
func (m *Manager) BuildPrompt(templateName string, data *TemplateData) (string, error) {
	if _, exists := m.templates[templateName]; !exists {
		name := filepath.Base(templateName)
		if err := m.LoadTemplate(templateName); err != nil {
			if templateName == name {
				return "", fmt.Errorf("template not found: %s", templateName)
			}
			return "", fmt.Errorf("failed to load template %s: %w", templateName, err)
		}
		templateName = name
	}

	tmpl, exists := m.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	slots := data.Slots
	if slots == nil {
		slots = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, slots); err != nil {
		return "", fmt.Errorf("failed to execute template (unbound slot?): %w", err)
	}

	return buf.String(), nil
}

// ListTemplates returns every embedded template name.
func (m *Manager) ListTemplates() ([]string, error) {
	var names []string
	entries, err := fs.ReadDir(EmbeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded templates: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tmpl") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

var templateSlotRe = regexp.MustCompile(`\{\{\s*\.\w+\s*\}\}`)

// IsTemplate reports whether content contains at least one {{.slot}}
// reference, distinguishing a literal prompt string from one that still
// needs rendering.
func IsTemplate(content string) bool {
	return templateSlotRe.MatchString(content)
}
