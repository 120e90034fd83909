package oaz

import (
	"fmt"
	"regexp"
	"strings"
)

// pathPattern is a compiled path template with one capture per placeholder.
type pathPattern struct {
	template string
	regex    *regexp.Regexp
	names    []string
}

// isExactPath reports whether a template contains no placeholders.
func isExactPath(template string) bool {
	return !strings.Contains(template, "{")
}

// compilePattern converts a template like "/users/{id}/posts/{postID}" into
// a matcher. Each placeholder matches one path segment.
func compilePattern(template string) (*pathPattern, error) {
	var buf strings.Builder
	buf.WriteString("^")

	var names []string
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			end := strings.Index(template[i:], "}")
			if end == -1 {
				return nil, fmt.Errorf("unclosed placeholder at position %d in template %q", i, template)
			}
			name := template[i+1 : i+end]
			if name == "" {
				return nil, fmt.Errorf("empty placeholder at position %d in template %q", i, template)
			}
			for _, existing := range names {
				if existing == name {
					return nil, fmt.Errorf("duplicate placeholder %q in template %q", name, template)
				}
			}
			names = append(names, name)
			buf.WriteString("([^/]+)")
			i += end + 1
			continue
		}
		if strings.ContainsRune(`\.+*?()|[]{}^$`, rune(template[i])) {
			buf.WriteByte('\\')
		}
		buf.WriteByte(template[i])
		i++
	}
	buf.WriteString("$")

	regex, err := regexp.Compile(buf.String())
	if err != nil {
		return nil, fmt.Errorf("compiling pattern for template %q: %w", template, err)
	}
	return &pathPattern{template: template, regex: regex, names: names}, nil
}

// match extracts placeholder values from a request path. The second return
// is false when the path does not match.
func (p *pathPattern) match(path string) (map[string]string, bool) {
	groups := p.regex.FindStringSubmatch(path)
	if groups == nil {
		return nil, false
	}
	captures := make(map[string]string, len(p.names))
	for i, name := range p.names {
		captures[name] = groups[i+1]
	}
	return captures, true
}
