package toolbar

import (
	"bytes"

	"github.com/alecthomas/template"
)

var summaryTemplate = template.Must(template.New("summary").Parse(
	`[{{.StoreID}}] {{.Request.Method}} {{.Request.URL.Path}} {{.Response.StatusCode}} {{.Response.Size}}b{{with .TraceID}} trace={{.}}{{end}}{{range .Panels}}
  {{.Title}}: {{.NavSubtitle}}{{end}}`))

type summaryPanel struct {
	Title       string
	NavSubtitle string
}

type summaryView struct {
	*Toolbar
	Panels []summaryPanel
}

// Summary renders a short plain text description of the toolbar, suitable
// for logging.
func Summary(tb *Toolbar) (string, error) {
	view := summaryView{Toolbar: tb}
	for _, p := range tb.Panels {
		view.Panels = append(view.Panels, summaryPanel{navTitle(p), navSubtitle(p)})
	}

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
