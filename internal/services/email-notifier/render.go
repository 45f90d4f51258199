package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/NordCoder/apiwatch/internal/domain/notification"
)

const alertTimeLayout = "2006-01-02 15:04:05 MST"

var alertBody = template.Must(template.New("alert").Parse(`<h2>API Monitor Alert</h2>
<p>Your API monitor "{{.MonitorName}}" detected an issue:</p>

<ul>
  <li><strong>Status Code:</strong> {{.Status}}</li>
  <li><strong>Response Time:</strong> {{.ResponseTime}}ms (threshold: {{.Threshold}}ms)</li>
  <li><strong>URL:</strong> {{.URL}}</li>
  <li><strong>Method:</strong> {{.Method}}</li>
  <li><strong>Time:</strong> {{.Time}}</li>
</ul>

<p>Please check your API and resolve any issues.</p>
`))

// Subject is the alert email subject line.
func Subject(a notification.Alert) string {
	return fmt.Sprintf("⚠️ API Monitor Alert: %s", a.MonitorName)
}

// RenderHTML renders the alert email body. Values are HTML-escaped.
func RenderHTML(a notification.Alert) (string, error) {
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	var buf bytes.Buffer
	err := alertBody.Execute(&buf, struct {
		notification.Alert
		Time string
	}{a, at.UTC().Format(alertTimeLayout)})
	if err != nil {
		return "", fmt.Errorf("render alert: %w", err)
	}
	return buf.String(), nil
}
