package interfaces

import (
	"embed"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"money": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return ""
		}
		return d.Decimal.StringFixed(2)
	},
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"fieldError": func(fields map[string]string, name string) string {
		return fields[name]
	},
}

// loadTemplates parses the embedded page templates. Each file defines a
// template named after the file; layout.html holds the shared chrome.
func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}
