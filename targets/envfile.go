package targets

import (
	"fmt"
	"os"
	"strings"
)

// EnvValues is the contents of a credential .env file.
type EnvValues map[string]string

// Get returns the first non-empty value among the named keys, trimmed.
func (v EnvValues) Get(names ...string) string {
	for _, n := range names {
		if s := strings.TrimSpace(v[n]); s != "" {
			return s
		}
	}
	return ""
}

// LoadEnvFile reads a .env credential file. Blank lines and # comments are
// skipped; values may be single- or double-quoted, quoted values may span
// multiple lines (PEM private keys), and literal \n escape sequences are
// converted to real newlines.
func LoadEnvFile(path string) (EnvValues, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	values := EnvValues{}
	lines := strings.Split(string(content), "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])

		if quote, open := openQuote(value); open {
			// Multi-line quoted value: collect until the closing quote.
			parts := []string{value}
			for i+1 < len(lines) {
				i++
				parts = append(parts, lines[i])
				if strings.HasSuffix(strings.TrimSpace(lines[i]), quote) {
					break
				}
			}
			value = strings.Join(parts, "\n")
		}

		value = strings.Trim(strings.TrimSpace(value), `"'`)
		value = strings.ReplaceAll(value, `\n`, "\n")
		values[key] = value
	}
	return values, nil
}

// openQuote reports whether the value starts a quoted string that is not
// closed on the same line.
func openQuote(value string) (string, bool) {
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(value, q) && (len(value) == 1 || !strings.HasSuffix(value, q)) {
			return q, true
		}
	}
	return "", false
}
