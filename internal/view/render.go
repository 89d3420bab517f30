package view

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

var resultTemplate = template.Must(template.New("result").Parse(`<div class="prediction-box">
  <span class="label">Predicted digit</span>
  <span class="value">{{.Label}}</span>
</div>
{{if .Pending}}<p class="pending">Predicting…</p>{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<h3>Probabilities</h3>
<ul class="probabilities">
{{range .Bars}}  <li>
    <span>{{.Index}}</span>
    <div class="bar"><div class="bar-fill" style="width: {{.Percent}}"></div></div>
    <span class="percent">{{.Percent}}</span>
  </li>
{{end}}</ul>
`))

// Render writes the result panel for s as an HTML fragment.
func Render(w io.Writer, s State) error {
	return resultTemplate.Execute(w, s)
}

// Text renders s for terminals and the desktop panel.
func Text(s State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Predicted digit: %s\n", s.Label())
	if s.Pending {
		b.WriteString("Predicting...\n")
	}
	if s.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", s.Error)
	}
	for _, bar := range s.Bars() {
		fmt.Fprintf(&b, "%d %6s\n", bar.Index, bar.Percent)
	}
	return b.String()
}
