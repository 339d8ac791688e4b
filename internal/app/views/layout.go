package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

type layoutData struct {
	models.LayoutTempl
	Label string
}

// LayoutPage wraps content in the document shell. The header is flushed before the
// content renders, so a failing body still leaves a valid prefix in the response.
func LayoutPage(l models.LayoutTempl) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		data := layoutData{LayoutTempl: l}
		if l.User != nil {
			data.Label = AccountLabel(l.User.UserType)
		}
		if err := templates.ExecuteTemplate(w, "layout_open", data); err != nil {
			return err
		}
		if l.Content != nil {
			if err := l.Content.Render(ctx, w); err != nil {
				return err
			}
		}
		return templates.ExecuteTemplate(w, "layout_close", data)
	})
}
