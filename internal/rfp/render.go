package rfp

import (
	"html/template"
	"io"
	"strings"
)

// html/template escapes every interpolated value for its context, so record
// text and the echoed query can never inject markup.
var resultsTemplate = template.Must(template.New("results").Parse(`
{{- if .Rows -}}
<table class="results">
    <thead>
        <tr>
            <th>RFP</th>
            <th>Organization</th>
            <th>Category</th>
            <th>Status</th>
            <th>Deadline</th>
            <th>Budget</th>
            <th>Description</th>
        </tr>
    </thead>
    <tbody>
    {{- range .Rows}}
        <tr data-rfp-id="{{.ID}}">
            <td>{{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Title}}</a>{{else}}{{.Title}}{{end}}</td>
            <td>{{.Organization}}</td>
            <td>{{.Category}}</td>
            <td><span class="status status-{{.Status}}">{{.Status}}</span></td>
            <td>{{.Deadline}}</td>
            <td>{{.Budget}}</td>
            <td>{{.Description}}</td>
        </tr>
    {{- end}}
    </tbody>
</table>
{{- else if .Query -}}
<div class="no-results">No results found for "{{.Query}}"</div>
{{- else -}}
<div class="no-results">Start typing to search...</div>
{{- end}}
`))

var errorTemplate = template.Must(template.New("error").Parse(
	`<div class="search-error">{{.}}</div>`,
))

type resultsView struct {
	Query string
	Rows  []rowView
}

type rowView struct {
	ID           int
	Title        string
	URL          string
	Organization string
	Category     string
	Status       string
	Deadline     string
	Budget       string
	Description  string
}

// RenderResults writes the HTML fragment for a search. Zero records render a
// "no results" message (a typing prompt when the query is blank), never an
// empty table.
func RenderResults(w io.Writer, query string, records []RFP) error {
	view := resultsView{
		Query: strings.TrimSpace(query),
		Rows:  make([]rowView, 0, len(records)),
	}
	for _, r := range records {
		view.Rows = append(view.Rows, rowView{
			ID:           r.ID,
			Title:        r.Title,
			URL:          deref(r.URL),
			Organization: r.Organization,
			Category:     r.Category,
			Status:       r.Status,
			Deadline:     deref(r.Deadline),
			Budget:       deref(r.Budget),
			Description:  r.Description,
		})
	}
	return resultsTemplate.Execute(w, view)
}

// RenderError writes a user-facing error fragment.
func RenderError(w io.Writer, message string) error {
	return errorTemplate.Execute(w, message)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
