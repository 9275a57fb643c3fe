package selector

import (
	"errors"
	"strings"
)

// ErrEmpty is returned when a command carries no selector or partial id.
var ErrEmpty = errors.New("selector is empty")

// Exact returns a CSS selector unchanged. The caller is responsible for CSS
// syntax: ids prefixed with #, classes with ., attributes in brackets.
func Exact(css string) (string, error) {
	if strings.TrimSpace(css) == "" {
		return "", ErrEmpty
	}
	return css, nil
}

// Partial builds an attribute-substring selector matching the first element
// whose id contains fragment.
func Partial(fragment string) (string, error) {
	if fragment == "" {
		return "", ErrEmpty
	}
	return `[id*="` + escapeString(fragment) + `"]`, nil
}

// escapeString escapes a value for use inside a double-quoted CSS string.
func escapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\a `)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AttributeEquals builds a selector like [value="x"] with the value escaped.
func AttributeEquals(attr, value string) string {
	return "[" + attr + `="` + escapeString(value) + `"]`
}
