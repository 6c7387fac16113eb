package render

import (
	"bytes"
	"text/template"

	"steward/internal/config"
	"steward/internal/project"

	"github.com/Masterminds/sprig/v3"
)

// Rotation policy knobs shared by both stanzas: daily rotation, fourteen
// retained generations, compression delayed one generation so the most
// recent rotated file stays greppable.
const logrotateRetention = 14

type logrotateData struct {
	Name      string
	LogDir    string
	Retention int
	NginxLogs bool
	AppLogs   bool
}

var logrotateTemplate = template.Must(template.New("logrotate").Funcs(sprig.TxtFuncMap()).Parse(
	`# Managed by steward for project {{ .Name }}. Do not edit by hand.
{{- if .NginxLogs }}
/var/log/nginx/{{ .Name }}.access.log /var/log/nginx/{{ .Name }}.error.log {
    daily
    rotate {{ .Retention | default 14 }}
    missingok
    notifempty
    compress
    delaycompress
    sharedscripts
    postrotate
        systemctl reload nginx > /dev/null 2>&1 || true
    endscript
}
{{- end }}
{{- if .AppLogs }}

{{ .LogDir }}/*.log {
    daily
    rotate {{ .Retention | default 14 }}
    missingok
    notifempty
    compress
    delaycompress
    copytruncate
}
{{- end }}
`))

// Logrotate renders the per-project rotation policy. The application-log
// stanza is emitted only when file logging is configured; with journal
// logging there are no app log files to rotate.
func Logrotate(desc *project.Descriptor, cfg config.Config) ([]byte, error) {
	data := logrotateData{
		Name:      desc.Name,
		LogDir:    project.DerivePaths(desc.Name, cfg.Paths).LogDir,
		Retention: logrotateRetention,
		NginxLogs: desc.HasDomain(),
		AppLogs:   cfg.AppLogMode == config.AppLogModeFile,
	}

	var buf bytes.Buffer
	if err := logrotateTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
