// Package i18n serves the storefront's UI strings in English, Hindi and
// Tamil and formats numbers, money and dates for those languages.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const DefaultLanguage = "en"

var ErrUnsupportedLanguage = errors.New("unsupported language")

//go:embed locales/*.yaml
var localeFS embed.FS

// Bundle holds the loaded translation tables, one per language.
type Bundle struct {
	tables map[string]map[string]any
}

// Default loads the tables compiled into the binary.
func Default() (*Bundle, error) {
	sub, err := fs.Sub(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load reads every <lang>.yaml file at the root of fsys.
func Load(fsys fs.FS) (*Bundle, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	b := &Bundle{tables: make(map[string]map[string]any, len(files))}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		table := map[string]any{}
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		b.tables[strings.TrimSuffix(path.Base(f), ".yaml")] = table
	}
	if _, ok := b.tables[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("missing %s table", DefaultLanguage)
	}
	return b, nil
}

func (b *Bundle) Languages() []string {
	out := make([]string, 0, len(b.tables))
	for l := range b.tables {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (b *Bundle) Supports(lang string) bool {
	_, ok := b.tables[lang]
	return ok
}

// Table returns the raw nested table for lang.
func (b *Bundle) Table(lang string) (map[string]any, error) {
	t, ok := b.tables[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return t, nil
}

// Lookup resolves a dotted key in lang. Any missing segment or a
// non-string leaf returns the key itself. There is no fallback to another
// language.
func (b *Bundle) Lookup(lang, key string) string {
	var node any = b.tables[lang]
	for _, seg := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return key
		}
		if node, ok = m[seg]; !ok {
			return key
		}
	}
	if s, ok := node.(string); ok {
		return s
	}
	return key
}

// Flatten returns the dotted keys of lang's table with their values.
func (b *Bundle) Flatten(lang string) map[string]string {
	out := map[string]string{}
	flatten("", b.tables[lang], out)
	return out
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Missing lists, sorted, the keys present in the default language but
// absent from lang.
func (b *Bundle) Missing(lang string) ([]string, error) {
	if !b.Supports(lang) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	have := b.Flatten(lang)
	var missing []string
	for k := range b.Flatten(DefaultLanguage) {
		if _, ok := have[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// Translator tracks the active language for one consumer.
type Translator struct {
	bundle *Bundle
	mu     sync.RWMutex
	lang   string
}

func (b *Bundle) Translator(lang string) (*Translator, error) {
	t := &Translator{bundle: b, lang: DefaultLanguage}
	if err := t.SetLanguage(lang); err != nil {
		return nil, err
	}
	return t, nil
}

// SetLanguage replaces the active language. An unknown language leaves the
// current one in place.
func (t *Translator) SetLanguage(lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !t.bundle.Supports(lang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	t.mu.Lock()
	t.lang = lang
	t.mu.Unlock()
	return nil
}

func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

func (t *Translator) T(key string) string {
	return t.bundle.Lookup(t.Language(), key)
}
