package sidemenu

import "html/template"

var pageTemplate = template.Must(template.New("sidemenu").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Sans-Serif; }
.matrix { position: relative; border-spacing: 10px 0; }
.matrix:before, .matrix:after {
  content: ""; position: absolute; top: 0; width: 6px; height: 100%;
  border: 1px solid #000;
}
.matrix:before { left: -6px; border-right: 0px; }
.matrix:after { right: -6px; border-left: 0px; }
td.num { text-align: right; font-family: monospace; }
</style>
<script type="text/x-mathjax-config">
MathJax.Hub.Config({
  displayAlign: "left",
  showProcessingMessages: false,
  messageStyle: "none",
  inlineMath: [["\\(","\\)"]],
  displayMath: [["$$","$$"]],
  tex2jax: { preview: "none" },
  "HTML-CSS": { scale: 95 }
});
</script>
<script type="text/javascript" src="{{.MathJax}}"></script>
</head>
<body>
<h2>{{.Title}}</h2>

<h4>Parameters</h4>
<p>
{{- range .Parameters}}
{{.Name}}: {{.Value}}<br>
{{- end}}
</p>

<h4>{{.SymbolsHeading}}</h4>
<p>{{range $i, $s := .Symbols}}{{if $i}}, {{end}}{{$s}}{{end}}{{with .Variable}}<br>{{.}}{{end}}</p>

<h4>Wavelengths</h4>
<p>{{.Domain}}</p>

{{- with .Normalization}}
<h4>Normalization</h4>
<p>{{.}}</p>
{{- end}}

{{- with .Coefficients}}
<h4>Normalization coefficients</h4>
<table>
{{- range .}}
<tr><td>{{.Name}}</td><td class="num">{{.Value}}</td></tr>
{{- end}}
</table>
{{- end}}

{{- with .Matrix}}
<h4>{{.Heading}}</h4>
<table class="matrix">
{{- range .Rows}}
<tr>{{range .}}<td class="num">{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}

<h4>Precision of tabulated values</h4>
<p>{{.Precision}}</p>

{{- with .White}}
<h4>Chromaticity point of illuminant E</h4>
<p>{{range $i, $c := .}}{{if $i}}, {{end}}{{$c}}{{end}}</p>
{{- end}}

{{- with .Tangents}}
<h4>Tangent points of the purple line</h4>
<table>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr>{{range .}}<td class="num">{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))
