package config

import "time"

// TLSProfile selects the TLS protocol/cipher policy applied to every
// project's HTTPS site.
type TLSProfile string

const (
	// TLSProfileModern serves TLS 1.3 only.
	TLSProfileModern TLSProfile = "modern"
	// TLSProfileIntermediate serves TLS 1.2 and 1.3 with a fixed cipher allowlist.
	TLSProfileIntermediate TLSProfile = "intermediate"
)

// AppLogMode selects where application processes write their logs.
type AppLogMode string

const (
	// AppLogModeJournal leaves application logging to the system journal.
	AppLogModeJournal AppLogMode = "journal"
	// AppLogModeFile expects the application to write files under its log
	// directory, which then get their own rotation policy.
	AppLogModeFile AppLogMode = "file"
)

// Config is the top-level global configuration for steward. It is loaded
// once at startup and passed explicitly into the reconciler and scheduler;
// nothing reads it from ambient process state.
type Config struct {
	// TLSProfile is applied identically to every project's site.
	TLSProfile TLSProfile `yaml:"tlsProfile,omitempty"`

	// AppLogMode controls whether a per-project application log rotation
	// policy is installed.
	AppLogMode AppLogMode `yaml:"appLogMode,omitempty"`

	// Email is the contact address handed to the certificate authority
	// client on issuance requests.
	Email string `yaml:"email,omitempty"`

	Paths    Paths    `yaml:"paths,omitempty"`
	Timeouts Timeouts `yaml:"timeouts,omitempty"`
}

// Paths holds the host directory roots every derived artifact path hangs off.
type Paths struct {
	// ProjectsDir holds one descriptor file per project.
	ProjectsDir string `yaml:"projectsDir,omitempty"`

	// AppsDir is the root under which each project gets its home
	// (current/, releases/, shared/).
	AppsDir string `yaml:"appsDir,omitempty"`

	// LogsDir is the root for per-project application log directories.
	LogsDir string `yaml:"logsDir,omitempty"`

	// SitesAvailable and SitesEnabled are the reverse proxy's rendered and
	// active site directories.
	SitesAvailable string `yaml:"sitesAvailable,omitempty"`
	SitesEnabled   string `yaml:"sitesEnabled,omitempty"`

	// UnitDir is where supervised-process unit files are installed.
	UnitDir string `yaml:"unitDir,omitempty"`

	// LogrotateDir is where rotation policies are installed.
	LogrotateDir string `yaml:"logrotateDir,omitempty"`

	// ACMEWebroot is the shared webroot serving the certificate authority
	// challenge path.
	ACMEWebroot string `yaml:"acmeWebroot,omitempty"`

	// CertLiveDir is the certificate authority client's live directory;
	// <CertLiveDir>/<domain>/fullchain.pem existing means a certificate
	// has been issued for that domain.
	CertLiveDir string `yaml:"certLiveDir,omitempty"`

	// StateDir holds steward's own state: per-project locks and degraded
	// status records.
	StateDir string `yaml:"stateDir,omitempty"`

	// BinPath is the installed steward binary, referenced by rendered
	// health probe units.
	BinPath string `yaml:"binPath,omitempty"`
}

// Timeouts bounds the two operations with external network latency.
type Timeouts struct {
	// Issuance bounds a single certificate request.
	Issuance time.Duration `yaml:"issuance,omitempty"`

	// Reload bounds reverse proxy validation plus reload.
	Reload time.Duration `yaml:"reload,omitempty"`
}
