package render

import (
	"testing"
	"time"

	"steward/internal/config"
	"steward/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptor() *project.Descriptor {
	return &project.Descriptor{
		Name:    "myapp",
		Enabled: true,
		Domain:  "myapp.example.com",
		Port:    18080,
		User:    "svc-myapp",
		Exec:    "/srv/apps/myapp/current/run",
		Health: &project.HealthCheck{
			Path:     "/healthz",
			Interval: 60 * time.Second,
			Timeout:  5 * time.Second,
			Retries:  3,
		},
	}
}

func TestUnit_IdentityAndSandbox(t *testing.T) {
	out, err := Unit(testDescriptor(), config.GetDefaultConfig())
	require.NoError(t, err)
	body := string(out)

	assert.Contains(t, body, "User=svc-myapp")
	assert.Contains(t, body, "WorkingDirectory=/srv/apps/myapp/current")
	assert.Contains(t, body, "EnvironmentFile=-/srv/apps/myapp/shared/env")
	assert.Contains(t, body, "ExecStart=/srv/apps/myapp/current/run")
	assert.Contains(t, body, "Restart=always")
	assert.Contains(t, body, "NoNewPrivileges=yes")
	assert.Contains(t, body, "PrivateTmp=yes")
	assert.Contains(t, body, "ProtectSystem=strict")
	assert.Contains(t, body, "ReadWritePaths=/srv/apps/myapp /var/log/apps/myapp")
	assert.Contains(t, body, "CapabilityBoundingSet=")
	assert.Contains(t, body, "WantedBy=multi-user.target")
}

func TestProbeTimer_IntervalAndJitter(t *testing.T) {
	desc := testDescriptor()
	desc.Health.Interval = 5 * time.Minute

	out, err := ProbeTimer(desc, config.GetDefaultConfig())
	require.NoError(t, err)
	body := string(out)

	assert.Contains(t, body, "OnUnitActiveSec=300s")
	// Jitter is interval/6 clamped to 30s.
	assert.Contains(t, body, "RandomizedDelaySec=30s")
	assert.Contains(t, body, "Persistent=false")
}

func TestProbeService_InvokesStewardProbe(t *testing.T) {
	out, err := ProbeService(testDescriptor(), config.GetDefaultConfig())
	require.NoError(t, err)
	body := string(out)

	assert.Contains(t, body, "Type=oneshot")
	assert.Contains(t, body, "ExecStart=/usr/local/bin/steward probe myapp")
}

func TestSite_NormalVariant(t *testing.T) {
	cfg := config.GetDefaultConfig()
	out, err := Site(testDescriptor(), cfg, SiteNormal)
	require.NoError(t, err)
	body := string(out)

	// Plaintext stanza: challenge path plus redirect.
	assert.Contains(t, body, "listen 80;")
	assert.Contains(t, body, "/.well-known/acme-challenge/")
	assert.Contains(t, body, "root /var/www/letsencrypt;")
	assert.Contains(t, body, "return 301 https://$host$request_uri;")

	// TLS stanza: certificate, proxy, forwarded headers, HSTS.
	assert.Contains(t, body, "listen 443 ssl;")
	assert.Contains(t, body, "server_name myapp.example.com;")
	assert.Contains(t, body, "ssl_certificate /etc/letsencrypt/live/myapp.example.com/fullchain.pem;")
	assert.Contains(t, body, "ssl_certificate_key /etc/letsencrypt/live/myapp.example.com/privkey.pem;")
	assert.Contains(t, body, "proxy_pass http://127.0.0.1:18080;")
	assert.Contains(t, body, "proxy_set_header Host $host;")
	assert.Contains(t, body, "proxy_set_header X-Real-IP $remote_addr;")
	assert.Contains(t, body, "proxy_set_header X-Forwarded-Proto $scheme;")
	assert.Contains(t, body, "Strict-Transport-Security")
}

func TestSite_TLSProfiles(t *testing.T) {
	cfg := config.GetDefaultConfig()

	cfg.TLSProfile = config.TLSProfileModern
	out, err := Site(testDescriptor(), cfg, SiteNormal)
	require.NoError(t, err)
	assert.Contains(t, string(out), "ssl_protocols TLSv1.3;")
	assert.NotContains(t, string(out), "ssl_ciphers")

	cfg.TLSProfile = config.TLSProfileIntermediate
	out, err = Site(testDescriptor(), cfg, SiteNormal)
	require.NoError(t, err)
	assert.Contains(t, string(out), "ssl_protocols TLSv1.2 TLSv1.3;")
	assert.Contains(t, string(out), "ssl_ciphers ECDHE-ECDSA-AES128-GCM-SHA256:")
}

func TestSite_MaintenanceVariant(t *testing.T) {
	out, err := Site(testDescriptor(), config.GetDefaultConfig(), SiteMaintenance)
	require.NoError(t, err)
	body := string(out)

	assert.Contains(t, body, "return 503;")
	assert.Contains(t, body, "error_page 503 /maintenance.html;")
	// The challenge path stays reachable in maintenance mode.
	assert.Contains(t, body, "/.well-known/acme-challenge/")
	assert.NotContains(t, body, "proxy_pass")
}

func TestSite_ProvisioningVariant(t *testing.T) {
	out, err := Site(testDescriptor(), config.GetDefaultConfig(), SiteProvisioning)
	require.NoError(t, err)
	body := string(out)

	assert.Contains(t, body, "listen 80;")
	assert.Contains(t, body, "/.well-known/acme-challenge/")
	assert.Contains(t, body, "return 404;")
	// Plaintext only: no TLS before a certificate exists.
	assert.NotContains(t, body, "443")
	assert.NotContains(t, body, "ssl_certificate")
}

func TestSite_NoDomainRejected(t *testing.T) {
	desc := testDescriptor()
	desc.Domain = ""

	_, err := Site(desc, config.GetDefaultConfig(), SiteNormal)
	assert.Error(t, err)
}

func TestLogrotate_JournalMode(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.AppLogMode = config.AppLogModeJournal

	out, err := Logrotate(testDescriptor(), cfg)
	require.NoError(t, err)
	body := string(out)

	assert.Contains(t, body, "/var/log/nginx/myapp.access.log")
	assert.Contains(t, body, "rotate 14")
	assert.Contains(t, body, "delaycompress")
	assert.Contains(t, body, "systemctl reload nginx")
	assert.NotContains(t, body, "/var/log/apps/myapp")
}

func TestLogrotate_FileMode(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.AppLogMode = config.AppLogModeFile

	out, err := Logrotate(testDescriptor(), cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "/var/log/apps/myapp/*.log")
	assert.Contains(t, string(out), "copytruncate")
}

func TestAll_Deterministic(t *testing.T) {
	desc := testDescriptor()
	cfg := config.GetDefaultConfig()

	first, err := All(desc, cfg)
	require.NoError(t, err)
	second, err := All(desc, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAll_OmitsUnconfiguredArtifacts(t *testing.T) {
	desc := testDescriptor()
	desc.Domain = ""
	desc.Health = nil

	artifacts, err := All(desc, config.GetDefaultConfig())
	require.NoError(t, err)

	assert.NotEmpty(t, artifacts.Unit)
	assert.Nil(t, artifacts.SiteNormal)
	assert.Nil(t, artifacts.SiteMaintenance)
	assert.Nil(t, artifacts.SiteProvisioning)
	assert.Nil(t, artifacts.Logrotate)
	assert.Nil(t, artifacts.ProbeService)
	assert.Nil(t, artifacts.ProbeTimer)
}
