// Package i18n looks up user-visible strings by key. Translations live in
// embedded JSON files named after their language tag; missing translations
// fall back to English, and missing keys are printed as-is.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

//go:embed locales/*.json
var locales embed.FS

var loadBuilder = sync.OnceValues(buildCatalog)

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded catalog: %v", err))
	}
	return c
})

// Catalog prints messages for a single language.
type Catalog struct {
	tag language.Tag

	mu      sync.Mutex
	printer *message.Printer
}

// Default returns the English catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// Load returns the catalog that best matches locale (for example "da" or
// "da-DK"). An empty locale selects English; an unsupported one falls back to it.
func Load(locale string) (*Catalog, error) {
	b, err := loadBuilder()
	if err != nil {
		return nil, err
	}

	requested := language.English
	if locale != "" {
		requested, err = language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
	}

	tag := language.English
	if langs := b.Languages(); len(langs) > 0 {
		_, idx, confidence := language.NewMatcher(langs).Match(requested)
		if confidence != language.No {
			tag = langs[idx]
		}
	}

	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
	}, nil
}

// Language reports the language this catalog prints in.
func (c *Catalog) Language() language.Tag {
	return c.tag
}

// T formats the message stored under key with args.
func (c *Catalog) T(key string, args ...any) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.printer.Sprintf(key, args...)
}

func buildCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		tag, err := language.Parse(strings.TrimSuffix(name, path.Ext(name)))
		if err != nil {
			return nil, fmt.Errorf("locale file %s: %w", name, err)
		}

		data, err := locales.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("read locale file %s: %w", name, err)
		}

		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("decode locale file %s: %w", name, err)
		}

		for key, msg := range messages {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("locale %s key %s: %w", name, key, err)
			}
		}
	}

	return b, nil
}
