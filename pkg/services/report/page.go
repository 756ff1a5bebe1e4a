package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

const TimestampLayout = "2006-01-02 15:04:05 MST"

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
<title>{{.Title}}</title>
<style>
body {
  background-color: black;
  color: gold;
  font-family: Arial, sans-serif;
  display: flex;
  flex-direction: column;
  align-items: center;
  justify-content: center;
  min-height: 100vh;
  margin: 0;
}
table {
  margin-top: 20px;
  border-collapse: collapse;
  width: 80%;
}
th, td {
  border: 1px solid gold;
  padding: 8px;
  text-align: center;
}
th {
  background-color: rgba(255, 215, 0, 0.2);
}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<img src="{{.ChartFile}}" alt="Benford's Law Chart">
<p>Does the data pass Benford's analysis? <strong>{{.Verdict}}</strong></p>
<p>Last Analysis: <strong>{{.Timestamp.Format "` + TimestampLayout + `"}}</strong></p>
<p>Records with a leading digit: {{.SampleSize}} (tolerance {{printf "%.1f" .Tolerance}} percentage points per digit)</p>
<details>
<summary>Digit breakdown</summary>
<table>
<tr><th>Digit</th><th>Count</th><th>Observed %</th><th>Expected %</th><th>Deviation</th></tr>
{{- range .Rows}}
<tr><td>{{.Digit}}</td><td>{{.Count}}</td><td>{{printf "%.1f" .Observed}}</td><td>{{printf "%.1f" .Expected}}</td><td>{{printf "%+.1f" .Deviation}}</td></tr>
{{- end}}
</table>
</details>
</body>
</html>
`

var page = template.Must(template.New("page").Parse(pageTemplate))

// RenderPage executes the summary page template.
func RenderPage(spec domain.PageSpec) ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, spec); err != nil {
		return nil, fmt.Errorf("failed to execute page template: %w", err)
	}
	return buf.Bytes(), nil
}
