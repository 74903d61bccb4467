package actions

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Theme is the presentation of one category: an icon and a color.
type Theme struct {
	Icon  string `yaml:"icon" json:"icon"`
	Color string `yaml:"color" json:"color"`
}

// FallbackTheme is used for any theme missing from the configuration.
var FallbackTheme = Theme{Icon: "📋", Color: "#607d8b"}

var builtinThemes = map[string]Theme{
	"Santé":            {Icon: "🏥", Color: "#e91e63"},
	"Urbanisme":        {Icon: "🏘️", Color: "#34495e"},
	"Environnement":    {Icon: "🌿", Color: "#27ae60"},
	"Culture":          {Icon: "🎭", Color: "#9b59b6"},
	"Patrimoine":       {Icon: "🏛️", Color: "#8e44ad"},
	"Enfance":          {Icon: "👶", Color: "#3498db"},
	"Solidarité":       {Icon: "🤝", Color: "#e74c3c"},
	"Sport":            {Icon: "⚽", Color: "#2ecc71"},
	"Économie":         {Icon: "💼", Color: "#f39c12"},
	"Mobilités":        {Icon: "🚴", Color: "#1abc9c"},
	"Sécurité":         {Icon: "🛡️", Color: "#2c3e50"},
	"Travaux":          {Icon: "🏗️", Color: "#e67e22"},
	"Intercommunalité": {Icon: "🤝", Color: "#607d8b"},
	"Finance":          {Icon: "💰", Color: "#795548"},
	"Personnel":        {Icon: "👥", Color: "#9e9e9e"},
}

// Themes is an immutable theme lookup table. The zero value resolves
// every theme to FallbackTheme.
type Themes struct {
	byName map[string]Theme
}

// NewThemes copies m into a new table.
func NewThemes(m map[string]Theme) *Themes {
	t := &Themes{byName: make(map[string]Theme, len(m))}
	for k, v := range m {
		t.byName[k] = v
	}
	return t
}

// DefaultThemes returns the built-in configuration.
func DefaultThemes() *Themes { return NewThemes(builtinThemes) }

// LoadThemes reads a YAML mapping of theme name to {icon, color}.
// Entries missing an icon or color inherit the fallback values.
func LoadThemes(path string) (*Themes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read themes file: %w", err)
	}
	var m map[string]Theme
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse themes file %s: %w", path, err)
	}
	for name, th := range m {
		if th.Icon == "" {
			th.Icon = FallbackTheme.Icon
		}
		if th.Color == "" {
			th.Color = FallbackTheme.Color
		}
		m[name] = th
	}
	return NewThemes(m), nil
}

// Lookup returns the theme presentation, or the fallback when unknown.
func (t *Themes) Lookup(name string) Theme {
	if t != nil {
		if th, ok := t.byName[name]; ok {
			return th
		}
	}
	return FallbackTheme
}

// Known reports whether name has an explicit configuration.
func (t *Themes) Known(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byName[name]
	return ok
}

// Names returns the configured theme names, sorted.
func (t *Themes) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.byName))
	for k := range t.byName {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
