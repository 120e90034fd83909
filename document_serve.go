package oaz

import (
	"encoding/json"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"
)

type documentFormat int

const (
	documentJSON documentFormat = iota
	documentYAML
)

// Document returns the generated document, computing it at most once for
// the lifetime of the router. Concurrent first callers share a single
// generation; a failed generation is not cached, so later callers retry.
func (rt *Router) Document() (*Document, error) {
	if d := rt.doc.Load(); d != nil {
		return d, nil
	}
	v, err, _ := rt.flight.Do("document", func() (any, error) {
		if d := rt.doc.Load(); d != nil {
			return d, nil
		}
		d, err := Generate(rt.registry, rt.docCfg)
		if err != nil {
			return nil, err
		}
		rt.doc.Store(d)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

func (rt *Router) serveDocument(w http.ResponseWriter, format documentFormat) {
	doc, err := rt.Document()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "document generation failed: " + err.Error(),
		})
		return
	}
	switch format {
	case documentJSON:
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort after WriteHeader
		json.NewEncoder(w).Encode(doc)
	case documentYAML:
		w.Header().Set("Content-Type", "application/yaml")
		//nolint:errcheck,gosec // best-effort after WriteHeader
		writeDocumentYAML(w, doc)
	}
}

// WriteDocument writes the generated document as indented JSON to w.
func (rt *Router) WriteDocument(w io.Writer) error {
	doc, err := rt.Document()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteDocumentYAML writes the generated document as YAML to w.
func (rt *Router) WriteDocumentYAML(w io.Writer) error {
	doc, err := rt.Document()
	if err != nil {
		return err
	}
	return writeDocumentYAML(w, doc)
}

// writeDocumentYAML round-trips through JSON so the custom marshallers
// (merged components, passthrough fields) shape the YAML output too.
func writeDocumentYAML(w io.Writer, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	return yaml.NewEncoder(w).Encode(generic)
}
