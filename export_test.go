package oaz

// Exported for tests.
var (
	CompilePattern = compilePattern
	IsExactPath    = isExactPath
	RenderPath     = renderPath
)

// Match exposes pattern matching for tests.
func (p *pathPattern) Match(path string) (map[string]string, bool) {
	return p.match(path)
}
