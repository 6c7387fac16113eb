package project

import (
	"path/filepath"

	"steward/internal/config"
)

// ResourcePaths holds every host path derived from a project name. The name
// uniquely determines each of these; CheckName rejects the reserved
// "-maintenance" and "-health" suffixes so no two valid names can derive
// the same file.
type ResourcePaths struct {
	// DescriptorFile is the declarative source of truth.
	DescriptorFile string

	// Home is the project's application root (current/, releases/, shared/).
	Home        string
	CurrentDir  string
	ReleasesDir string
	SharedDir   string

	// EnvFile is the optional per-project secrets file sourced by the unit.
	EnvFile string

	// LogDir holds application log files when file logging is configured.
	LogDir string

	// UnitName / UnitFile are the supervised-process unit.
	UnitName string
	UnitFile string

	// Probe service and timer implement the recurring health watchdog.
	ProbeServiceName string
	ProbeServiceFile string
	ProbeTimerName   string
	ProbeTimerFile   string

	// SiteNormal holds the normal (or, before issuance, the HTTP-only
	// provisioning) site variant; SiteMaintenance the maintenance variant.
	// SiteActive is the enabled-set link selecting one of them.
	SiteNormal      string
	SiteMaintenance string
	SiteActive      string

	// LogrotateFile is the installed rotation policy.
	LogrotateFile string
}

// DerivePaths computes every managed artifact path for a project name.
func DerivePaths(name string, paths config.Paths) ResourcePaths {
	home := filepath.Join(paths.AppsDir, name)
	return ResourcePaths{
		DescriptorFile: filepath.Join(paths.ProjectsDir, name+".conf"),

		Home:        home,
		CurrentDir:  filepath.Join(home, "current"),
		ReleasesDir: filepath.Join(home, "releases"),
		SharedDir:   filepath.Join(home, "shared"),
		EnvFile:     filepath.Join(home, "shared", "env"),

		LogDir: filepath.Join(paths.LogsDir, name),

		UnitName: name + ".service",
		UnitFile: filepath.Join(paths.UnitDir, name+".service"),

		ProbeServiceName: name + "-health.service",
		ProbeServiceFile: filepath.Join(paths.UnitDir, name+"-health.service"),
		ProbeTimerName:   name + "-health.timer",
		ProbeTimerFile:   filepath.Join(paths.UnitDir, name+"-health.timer"),

		SiteNormal:      filepath.Join(paths.SitesAvailable, name+".conf"),
		SiteMaintenance: filepath.Join(paths.SitesAvailable, name+"-maintenance.conf"),
		SiteActive:      filepath.Join(paths.SitesEnabled, name+".conf"),

		LogrotateFile: filepath.Join(paths.LogrotateDir, "steward-"+name),
	}
}

// CertDir returns the certificate authority client's live directory for a
// domain; its presence is how issuance state is derived.
func CertDir(domain string, paths config.Paths) string {
	return filepath.Join(paths.CertLiveDir, domain)
}

// CertFile and CertKeyFile are the paths the HTTPS site stanza references.
func CertFile(domain string, paths config.Paths) string {
	return filepath.Join(paths.CertLiveDir, domain, "fullchain.pem")
}

// CertKeyFile returns the private key path for a domain's certificate.
func CertKeyFile(domain string, paths config.Paths) string {
	return filepath.Join(paths.CertLiveDir, domain, "privkey.pem")
}
