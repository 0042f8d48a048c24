package web

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mdobak/go-xerrors"

	app "wall-inspector/internal/application"
	"wall-inspector/internal/domain/entity"
)

type pageData struct {
	Text   entity.UIText
	Locale string
	Result *app.RenderModel
	Error  string
	Accept string
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"dataURI": func(mime string, data []byte) template.URL {
		return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
	},
	"conf": app.FormatConfidence,
}).Parse(pageHTML))

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	data.Text = s.profile.Text
	data.Locale = s.profile.Locale
	data.Accept = ".jpg,.jpeg,.png,image/jpeg,image/png"

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render page", slog.Any("error", xerrors.New(err)))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

const pageHTML = `<!DOCTYPE html>
<html lang="{{.Locale}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Text.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; color: #222; }
form { margin-bottom: 1.5rem; }
.images { display: flex; gap: 1rem; flex-wrap: wrap; }
.images figure { flex: 1 1 420px; margin: 0; }
.images img { max-width: 100%; border: 1px solid #ccc; }
.message { padding: .6rem .8rem; border-radius: 4px; margin: .4rem 0; }
.success { background: #e7f6ea; }
.info { background: #e8f1fb; }
.warning { background: #fff4d6; }
.error { background: #fde4e4; }
table { border-collapse: collapse; margin: .5rem 0 1rem; }
th, td { border: 1px solid #ddd; padding: .3rem .7rem; text-align: left; }
.chart { display: flex; align-items: flex-end; gap: .8rem; height: 180px; border-bottom: 1px solid #999; padding-top: 1rem; }
.bar { display: flex; flex-direction: column; align-items: center; justify-content: flex-end; height: 100%; min-width: 60px; }
.bar .fill { width: 40px; background: #d9534f; }
.bar span { font-size: .8rem; }
.download { display: inline-block; margin-top: 1rem; padding: .5rem 1rem; background: #2d6cdf; color: #fff; text-decoration: none; border-radius: 4px; }
</style>
</head>
<body>
<h1>{{.Text.Title}}</h1>
<form method="post" action="/inspect" enctype="multipart/form-data">
  <label>{{.Text.UploadPrompt}} <input type="file" name="image" accept="{{.Accept}}" required></label>
  <button type="submit">{{.Text.UploadButton}}</button>
</form>
{{with .Error}}<div class="message error">{{.}}</div>{{end}}
{{with .Result}}
<div class="images">
  <figure>
    <img src="{{dataURI .Input.MIMEType .Input.Data}}" alt="{{$.Text.InputCaption}}">
    <figcaption>{{$.Text.InputCaption}}</figcaption>
  </figure>
  {{if .HasDownload}}
  <figure>
    <img src="{{dataURI .Download.MIMEType .Annotated}}" alt="{{$.Text.ResultCaption}}">
    <figcaption>{{$.Text.ResultCaption}}</figcaption>
  </figure>
  {{end}}
</div>
{{if .HasDownload}}
{{range .Findings}}
<div class="message success">{{.Line}}</div>
{{with .Advisory}}<div class="message {{.Severity}}">{{.Text}}</div>{{end}}
{{end}}
<h2>{{$.Text.TableTitle}}</h2>
<table>
  <tr><th>{{$.Text.LabelColumn}}</th><th>{{$.Text.ConfColumn}}</th></tr>
  {{range .Table}}<tr><td>{{.Label}}</td><td>{{conf .Confidence}}</td></tr>{{end}}
</table>
<h2>{{$.Text.SummaryTitle}}</h2>
<table>
  <tr><th>{{$.Text.LabelColumn}}</th><th>{{$.Text.CountColumn}}</th></tr>
  {{range .Summary}}<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>{{end}}
</table>
<h2>{{$.Text.ChartTitle}}</h2>
<div class="chart">
  {{range .Chart}}<div class="bar"><span>{{.Count}}</span><div class="fill" style="height: {{.Percent}}%"></div><span>{{.Label}}</span></div>{{end}}
</div>
<a class="download" href="{{dataURI .Download.MIMEType .Annotated}}" download="{{.Download.Filename}}">{{$.Text.DownloadButton}}</a>
{{else}}
<div class="message success">{{.Message}}</div>
{{end}}
{{end}}
</body>
</html>
`
