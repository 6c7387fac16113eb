package render

import (
	"bytes"
	"fmt"
	"text/template"

	"steward/internal/config"
	"steward/internal/project"

	"github.com/Masterminds/sprig/v3"
)

// SiteVariant selects which rendering of a project's reverse-proxy site to
// produce. Normal and maintenance are both rendered on every apply so mode
// switches never wait on rendering; the provisioning variant exists only to
// serve the certificate authority challenge before a certificate exists.
type SiteVariant string

const (
	SiteNormal       SiteVariant = "normal"
	SiteMaintenance  SiteVariant = "maintenance"
	SiteProvisioning SiteVariant = "provisioning"
)

// tlsPolicy is the rendered form of a config.TLSProfile.
type tlsPolicy struct {
	Protocols []string
	Ciphers   string
}

// intermediateCiphers is the fixed allowlist for the intermediate profile.
const intermediateCiphers = "ECDHE-ECDSA-AES128-GCM-SHA256:ECDHE-RSA-AES128-GCM-SHA256:" +
	"ECDHE-ECDSA-AES256-GCM-SHA384:ECDHE-RSA-AES256-GCM-SHA384:" +
	"ECDHE-ECDSA-CHACHA20-POLY1305:ECDHE-RSA-CHACHA20-POLY1305"

func policyFor(profile config.TLSProfile) tlsPolicy {
	switch profile {
	case config.TLSProfileModern:
		return tlsPolicy{Protocols: []string{"TLSv1.3"}}
	default:
		return tlsPolicy{
			Protocols: []string{"TLSv1.2", "TLSv1.3"},
			Ciphers:   intermediateCiphers,
		}
	}
}

// siteData is the template context for all three site variants.
type siteData struct {
	Name        string
	Domain      string
	Port        int
	Webroot     string
	CertFile    string
	CertKeyFile string
	TLS         tlsPolicy
}

const siteHeader = `# Managed by steward for project {{ .Name }}. Do not edit by hand;
# changes are overwritten on the next apply.
`

// The plaintext stanza answers only the certificate authority challenge path
// and redirects everything else to HTTPS.
const httpStanza = `server {
    listen 80;
    listen [::]:80;
    server_name {{ .Domain }};

    location ^~ /.well-known/acme-challenge/ {
        root {{ .Webroot }};
        default_type "text/plain";
    }

    location / {
        return 301 https://$host$request_uri;
    }
}
`

const tlsStanzaOpen = `server {
    listen 443 ssl;
    listen [::]:443 ssl;
    http2 on;
    server_name {{ .Domain }};

    ssl_certificate {{ .CertFile }};
    ssl_certificate_key {{ .CertKeyFile }};
    ssl_protocols {{ join " " .TLS.Protocols }};
{{- if .TLS.Ciphers }}
    ssl_ciphers {{ .TLS.Ciphers }};
{{- end }}
    ssl_prefer_server_ciphers off;

    add_header Strict-Transport-Security "max-age=63072000" always;

    access_log /var/log/nginx/{{ .Name }}.access.log;
    error_log /var/log/nginx/{{ .Name }}.error.log;
`

var normalTemplate = siteHeader + httpStanza + "\n" + tlsStanzaOpen + `
    location / {
        proxy_pass http://127.0.0.1:{{ .Port }};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
`

var maintenanceTemplate = siteHeader + httpStanza + "\n" + tlsStanzaOpen + `
    root {{ .Webroot }};
    error_page 503 /maintenance.html;

    location = /maintenance.html {
        internal;
    }

    location / {
        return 503;
    }
}
`

// The provisioning variant is plaintext-only: before a certificate exists
// there is nothing to terminate TLS with.
var provisioningTemplate = siteHeader + `server {
    listen 80;
    listen [::]:80;
    server_name {{ .Domain }};

    location ^~ /.well-known/acme-challenge/ {
        root {{ .Webroot }};
        default_type "text/plain";
    }

    location / {
        return 404;
    }
}
`

var siteTemplates = template.Must(
	template.New("sites").Funcs(sprig.TxtFuncMap()).Parse(
		`{{ define "normal" }}` + normalTemplate + `{{ end }}` +
			`{{ define "maintenance" }}` + maintenanceTemplate + `{{ end }}` +
			`{{ define "provisioning" }}` + provisioningTemplate + `{{ end }}`))

// Site renders one site variant for a project. Callers must not ask for a
// site on a project without a domain; a domainless project has no
// reverse-proxy surface at all.
func Site(desc *project.Descriptor, cfg config.Config, variant SiteVariant) ([]byte, error) {
	if !desc.HasDomain() {
		return nil, fmt.Errorf("project %s has no domain, no site to render", desc.Name)
	}

	data := siteData{
		Name:        desc.Name,
		Domain:      desc.Domain,
		Port:        desc.Port,
		Webroot:     cfg.Paths.ACMEWebroot,
		CertFile:    project.CertFile(desc.Domain, cfg.Paths),
		CertKeyFile: project.CertKeyFile(desc.Domain, cfg.Paths),
		TLS:         policyFor(cfg.TLSProfile),
	}

	var buf bytes.Buffer
	if err := siteTemplates.ExecuteTemplate(&buf, string(variant), data); err != nil {
		return nil, fmt.Errorf("rendering %s site for project %s: %w", variant, desc.Name, err)
	}
	return buf.Bytes(), nil
}
