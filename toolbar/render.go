package toolbar

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/text/language"
)

var pformatConfig = spew.ConfigState{
	Indent:                  "    ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// pformat formats a stats value for display. Strings are shown as-is,
// string slices as a quoted list, everything else through spew.
func pformat(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case []string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "None"
	}
	return pformatConfig.Sprintf("%v", v)
}

const pairsTemplate = `{{define "pairs"}}<table>
<thead><tr><th>{{t "Variable"}}</th><th>{{t "Value"}}</th></tr></thead>
<tbody>{{range .}}
<tr><td><code>{{.Key}}</code></td><td><code>{{pformat .Value}}</code></td></tr>{{end}}
</tbody>
</table>{{end}}`

const requestTemplate = `<h4>{{t "View information"}}</h4>
<table>
<thead><tr><th>{{t "View function"}}</th><th>{{t "Arguments"}}</th><th>{{t "Keyword arguments"}}</th><th>{{t "URL name"}}</th></tr></thead>
<tbody><tr>
<td><code>{{pformat .view_func}}</code></td>
<td><code>{{pformat .view_args}}</code></td>
<td><code>{{pformat .view_kwargs}}</code></td>
<td><code>{{pformat .view_urlname}}</code></td>
</tr></tbody>
</table>
{{if .cookies}}<h4>{{t "Cookies"}}</h4>{{template "pairs" .cookies}}{{else}}<h4>{{t "No cookies"}}</h4>{{end}}
{{if .session}}<h4>{{t "Session data"}}</h4>{{template "pairs" .session}}{{else}}<h4>{{t "No session data"}}</h4>{{end}}
{{if .get}}<h4>{{t "GET data"}}</h4>{{template "pairs" .get}}{{else}}<h4>{{t "No GET data"}}</h4>{{end}}
{{if .post}}<h4>{{t "POST data"}}</h4>{{template "pairs" .post}}{{else}}<h4>{{t "No POST data"}}</h4>{{end}}
`

const toolbarTemplate = `<div id="dtb" data-store-id="{{.StoreID}}" data-render-panel-url="{{.RenderPanelURL}}"{{with .TraceID}} data-trace-id="{{.}}"{{end}}>
<div id="dtb-toolbar">
<a id="dtb-hide" href="#" title="{{t "Hide toolbar"}}">{{t "Hide toolbar"}}</a>
<ul id="dtb-panel-list">{{range .Panels}}
<li id="dtb-{{.ID}}"><a href="#" class="{{.ID}}" title="{{.Title}}">{{.NavTitle}}{{with .NavSubtitle}}<br><small>{{.}}</small>{{end}}</a></li>{{end}}
</ul>
</div>
{{range .Panels}}<div id="{{.ID}}" class="dtb-panel-content">
<h3>{{.Title}}</h3>
<div class="dtb-scroll">{{.Content}}</div>
</div>
{{end}}</div>
`

// templateFuncs are the functions every toolbar template may call. "t" is
// rebound per language before execution.
func templateFuncs(lang language.Tag) template.FuncMap {
	return template.FuncMap{
		"t":       func(msg string) string { return T(lang, msg) },
		"pformat": pformat,
	}
}

var (
	templateMu  sync.RWMutex
	panelSource = map[string]string{
		"request": requestTemplate,
	}
)

// RegisterTemplate makes a panel content template available under name.
// The "pairs" template, rendering a []Pair as a table, is always defined.
// Registering an existing name replaces it.
func RegisterTemplate(name, src string) error {
	// parse once to report errors at registration
	if _, err := parsePanelTemplate(language.English, name, src); err != nil {
		return err
	}
	templateMu.Lock()
	panelSource[name] = src
	templateMu.Unlock()
	return nil
}

func parsePanelTemplate(lang language.Tag, name, src string) (*template.Template, error) {
	t, err := template.New(name).Funcs(templateFuncs(lang)).Parse(pairsTemplate)
	if err != nil {
		return nil, err
	}
	return t.Parse(src)
}

// renderPanel renders the content of one panel in the given language.
func renderPanel(lang language.Tag, p Panel) (template.HTML, error) {
	templateMu.RLock()
	src, ok := panelSource[p.Template()]
	templateMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no template named %q for panel %s", p.Template(), p.ID())
	}

	t, err := parsePanelTemplate(lang, p.Template(), src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, map[string]interface{}(p.Stats())); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

type panelView struct {
	ID          string
	Title       string
	NavTitle    string
	NavSubtitle string
	Content     template.HTML
}

type toolbarView struct {
	StoreID        string
	RenderPanelURL string
	TraceID        string
	Panels         []panelView
}

// Render renders the toolbar HTML inserted into pages. renderPanelURL is
// where the client can refetch a single panel.
func (tb *Toolbar) Render(renderPanelURL string) ([]byte, error) {
	view := toolbarView{
		StoreID:        tb.StoreID,
		RenderPanelURL: renderPanelURL,
		TraceID:        tb.TraceID,
	}
	for _, p := range tb.Panels {
		content, err := renderPanel(tb.Lang, p)
		if err != nil {
			return nil, err
		}
		view.Panels = append(view.Panels, panelView{
			ID:          p.ID(),
			Title:       T(tb.Lang, p.Title()),
			NavTitle:    T(tb.Lang, navTitle(p)),
			NavSubtitle: navSubtitle(p),
			Content:     content,
		})
	}

	t, err := template.New("toolbar").Funcs(templateFuncs(tb.Lang)).Parse(toolbarTemplate)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TemplateNames lists the registered panel templates, sorted.
func TemplateNames() []string {
	templateMu.RLock()
	defer templateMu.RUnlock()
	names := make([]string, 0, len(panelSource))
	for name := range panelSource {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
