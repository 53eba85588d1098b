package collector

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"plotURL": func(loc string) string { return "/plot/" + url.PathEscape(loc) },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Home climate</title></head>
<body>
<h1>Locations</h1>
<ul>
{{- range .}}
<li><a href="{{plotURL (print .Location)}}">{{.Location}}</a>
{{- if .LastModified}} last reading {{.LastModified.Format "01/02/2006 03:04:05 PM"}}{{else}} no reading since start{{end}}
{{- if .MIA}} <strong>MIA</strong>{{end}}</li>
{{- else}}
<li>No locations yet.</li>
{{- end}}
</ul>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, s.Status()); err != nil {
		log.Errorf("index: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
