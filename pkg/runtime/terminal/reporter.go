package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

// Reporter outputs reports to the console in a formatted text form
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(report *domain.Report) error {
	tmpl := `
{{.Title}}
Last Analysis: {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}
Sample Size: {{.SampleSize}} (tolerance {{printf "%.1f" .Tolerance}} points per digit)
Does the data pass Benford's analysis? {{.Verdict}}
{{range .Rows}}
{{.Digit}}: {{printf "%6.2f" .Observed}}% (expected {{printf "%.1f" .Expected}}%)
{{- end}}
`
	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report.Page)
}
