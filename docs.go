package oaz

import (
	"html/template"
	"net/http"
)

// WithDocsPath serves an interactive documentation UI at the given path,
// rendering Stoplight Elements pointed at the router's document path.
func WithDocsPath(path string) RouterOption {
	return func(rt *Router) {
		rt.docsPath = path
	}
}

var docsTemplate = template.Must(template.New("docs").Parse(docsHTML))

func (rt *Router) serveDocs(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	//nolint:errcheck,gosec // best-effort template render
	docsTemplate.Execute(w, struct {
		Title   string
		SpecURL string
	}{
		Title:   rt.docCfg.Info.Title,
		SpecURL: rt.docPath,
	})
}

const docsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
  <script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
</head>
<body>
  <elements-api
    apiDescriptionUrl="{{.SpecURL}}"
    router="hash"
    layout="sidebar"
  />
</body>
</html>`
