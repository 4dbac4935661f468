package i18n

import "strings"

// DefaultLanguage is the fallback table consulted before giving up and
// returning the raw key.
const DefaultLanguage = "en"

// Lookup resolves a user-facing string for the given language, falling
// back to the default-language table and then to the key itself.
// Replacements substitute {{name}}-style tokens in the resolved string.
func Lookup(lang, key string, replacements map[string]string) string {
	s, ok := tables[lang][key]
	if !ok {
		s, ok = tables[DefaultLanguage][key]
	}
	if !ok {
		s = key
	}
	for name, value := range replacements {
		s = strings.ReplaceAll(s, "{{"+name+"}}", value)
	}
	return s
}

// Supported reports whether a language has its own table.
func Supported(lang string) bool {
	_, ok := tables[lang]
	return ok
}
