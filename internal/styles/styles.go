// Package styles holds the fixed catalog of generation presets. The key set
// is part of the client/backend contract: clients submit one of these keys
// and the backend resolves it to a prompt template.
package styles

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yml
var defaultPrompts []byte

const placeholder = "{user_prompt}"

// Keys enumerates the recognized style keys in display order.
var Keys = []string{
	"none",
	"photo_portrait_bokeh",
	"photo_highkey_beauty",
	"photo_street_candid",
	"photo_golden_hour",
	"photo_night_long_exposure",
	"photo_macro_detail",
	"photo_product_flatlay",
	"photo_studio_fashion",
	"photo_bw_film_noir",
	"photo_landscape_epic",
}

// Style is a single generation preset.
type Style struct {
	Key      string
	Label    string
	Template string
}

// Catalog resolves style keys to presets.
type Catalog struct {
	styles map[string]Style
}

type catalogFile struct {
	Styles map[string]struct {
		Label    string `yaml:"label"`
		Template string `yaml:"template"`
	} `yaml:"styles"`
}

// Load reads a catalog from the YAML file at path. An empty path loads the
// embedded default catalog.
func Load(path string) (*Catalog, error) {
	data := defaultPrompts
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("styles: read %s: %w", path, err)
		}
		data = b
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("styles: parse catalog: %w", err)
	}
	if len(file.Styles) == 0 {
		return nil, errors.New("styles: catalog has no styles")
	}
	catalog := &Catalog{styles: make(map[string]Style, len(file.Styles))}
	for key, entry := range file.Styles {
		label := strings.TrimSpace(entry.Label)
		if label == "" {
			label = fallbackLabel(key)
		}
		catalog.styles[key] = Style{
			Key:      key,
			Label:    label,
			Template: strings.TrimSpace(entry.Template),
		}
	}
	return catalog, nil
}

// Valid reports whether key belongs to the recognized enumeration.
func Valid(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Get looks up a preset by key.
func (c *Catalog) Get(key string) (Style, bool) {
	st, ok := c.styles[strings.TrimSpace(key)]
	return st, ok
}

// Resolve returns the preset for key, or a bare preset echoing the key when
// it is unknown to the catalog.
func (c *Catalog) Resolve(key string) Style {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "none"
	}
	if st, ok := c.styles[key]; ok {
		return st
	}
	return Style{Key: key, Label: key}
}

// List returns the known presets in enumeration order.
func (c *Catalog) List() []Style {
	out := make([]Style, 0, len(Keys))
	for _, key := range Keys {
		if st, ok := c.styles[key]; ok {
			out = append(out, st)
		}
	}
	return out
}

// BuildPrompt merges the user prompt into the selected style template. An
// unknown key or an empty template returns the trimmed prompt unchanged; a
// template without the placeholder has the prompt appended instead.
func (c *Catalog) BuildPrompt(key, userPrompt string) string {
	prompt := strings.TrimSpace(userPrompt)
	st, ok := c.styles[strings.TrimSpace(key)]
	if !ok || st.Template == "" {
		return prompt
	}
	if strings.Contains(st.Template, placeholder) {
		return strings.ReplaceAll(st.Template, placeholder, prompt)
	}
	return strings.TrimSpace(st.Template + "\n\n" + prompt)
}

func fallbackLabel(key string) string {
	label := strings.ReplaceAll(strings.TrimSpace(key), "_", " ")
	return cases.Title(language.English).String(label)
}
