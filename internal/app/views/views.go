// Package views holds the page components. Page bodies are html/template files
// embedded in the binary and exposed as templ components so handlers and the
// layout compose them like any other component.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"strconv"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const baseButton = "inline-flex items-center justify-center rounded-md px-4 py-2 text-sm font-medium text-white bg-blue-600 hover:bg-blue-700 disabled:opacity-50 disabled:cursor-not-allowed"

var titleCase = cases.Title(language.English)

var templates = template.Must(template.New("views").Funcs(template.FuncMap{
	"label":     AccountLabel,
	"btn":       ButtonClass,
	"when":      formatTimestamp,
	"intOr":     intOr,
	"floatOr":   floatOr,
	"isActive":  func(status string) bool { return status == models.PatientStatusActive },
	"userTypes": func() []models.UserType { return models.UserTypes },
}).ParseFS(templateFS, "templates/*.html"))

// AccountLabel is the display label for an account type, e.g. "caretaker" -> "Caretaker".
func AccountLabel(t models.UserType) string {
	if t == models.UserTypeHospital {
		return "Hospital Staff"
	}
	return titleCase.String(string(t))
}

// ButtonClass merges extra Tailwind classes over the base button style; later classes win.
func ButtonClass(extra ...string) string {
	return twmerge.Merge(append([]string{baseButton}, extra...)...)
}

func formatTimestamp(raw string) string {
	if t, ok := models.ParseTimestamp(raw); ok {
		return t.Format("Jan 2, 2006 15:04")
	}
	return raw
}

func intOr(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func floatOr(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

// page renders one named template with data.
func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}
