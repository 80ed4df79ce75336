// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"html/template"
	"os"
)

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>scdiff report: {{.Project}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 0.25em 0.75em; }
th { background: #eee; }
img { max-width: 480px; }
</style>
</head>
<body>
<h1>Project {{.Project}}</h1>
<p>{{.Date}}</p>

<h2>Datasets</h2>
<table>
<tr><th>dataset</th><th>path</th></tr>
{{range .Sets}}<tr><td>{{.Set}}</td><td>{{.Path}}</td></tr>
{{end}}</table>

{{with .Counts}}
<h2>Count matrix</h2>
<p>File: {{.File}}</p>
<p>{{.Genes}} genes, {{.Cells}} cells, {{.Total}} reads.</p>
<p>Library size: {{printf "%.0f" .Min}} to {{printf "%.0f" .Max}} (median {{printf "%.0f" .Median}}).</p>
{{end}}

{{with .Groups}}
<h2>Cell groups</h2>
<p>File: {{.File}}</p>
<table>
<tr><th>group</th><th>cells</th></tr>
{{range .Groups}}<tr><td>{{.Name}}</td><td>{{.Cells}}</td></tr>
{{end}}</table>
{{end}}

{{if .Models}}
<h2>Error models</h2>
<table>
<tr><th>models</th><th>file</th><th>cells</th><th>valid</th><th>size factors</th></tr>
{{range .Models}}<tr><td>{{.Label}}</td><td>{{.File}}</td><td>{{.Cells}}</td><td>{{.Valid}}</td><td>{{printf "%.3f" .Min}} to {{printf "%.3f" .Max}}</td></tr>
{{end}}</table>
{{end}}

{{with .Factors}}
<h2>Size factors</h2>
<p>File: {{.File}}</p>
<p>{{.Cells}} cells; methods: {{.Methods}}.</p>
<table>
<tr><th>methods</th><th>correlation</th></tr>
{{range .Corr}}<tr><td>{{.Methods}}</td><td>{{printf "%.6f" .R}}</td></tr>
{{end}}</table>
{{range .Plots}}<p><img src="{{.}}" alt="size factors"></p>
{{end}}
{{end}}

{{with .Express}}
<h2>Expression magnitudes</h2>
<p>File: {{.File}}</p>
<p>{{.Genes}} genes, {{.Cells}} cells.</p>
{{end}}

{{if .Totals}}
<h2>Per-cell totals</h2>
<p><img src="{{.Totals}}" alt="per-cell totals"></p>
{{end}}

{{range .Diff}}
<h2>Differential expression ({{.Label}})</h2>
<p>File: {{.File}}</p>
<p>{{.Genes}} genes; {{.Significant}} significant, {{.Down}} down-regulated
({{printf "%.3f" .DownProp}} of significant); maximum score
{{printf "%.6g" .MaxScore}}.</p>
<table>
<tr><th>gene</th><th>difference</th><th>score</th><th>corrected</th><th>p-adjusted</th></tr>
{{range .Top}}<tr><td>{{.Gene}}</td><td>{{printf "%.6f" .Diff}}</td><td>{{printf "%.6f" .Z}}</td><td>{{printf "%.6f" .CZ}}</td><td>{{printf "%.6g" .AdjP}}</td></tr>
{{end}}</table>
{{end}}

</body>
</html>
`))

func writeReport(name string, rd *reportData) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := reportTmpl.Execute(f, rd); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}
