package slug

import (
	"strings"
	"unicode"
)

// Fallback is returned by GenerateOr callers that need a non-empty slug.
const Fallback = "category"

var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Generate creates a URL-friendly slug from the given name. Russian letters
// are transliterated to ASCII; spaces, hyphens and underscores become single
// hyphens; other punctuation is dropped.
//
// Examples:
//   - "Черная" → "chernaya"
//   - "Цветная металлургия" → "tsvetnaya-metallurgiya"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if t, ok := cyrillic[r]; ok {
			b.WriteString(t)
			continue
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			b.WriteByte('-')
		}
	}

	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// GenerateOr is Generate with a fallback for names that produce no slug.
func GenerateOr(name, fallback string) string {
	if s := Generate(name); s != "" {
		return s
	}
	return fallback
}
