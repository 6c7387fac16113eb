package config

import "time"

// GetDefaultConfig returns the default global configuration. Loading overlays
// the config file on top of these values, so an absent or partial file always
// yields a fully populated Config.
func GetDefaultConfig() Config {
	return Config{
		TLSProfile: TLSProfileIntermediate,
		AppLogMode: AppLogModeJournal,
		Paths: Paths{
			ProjectsDir:    "/etc/steward/projects.d",
			AppsDir:        "/srv/apps",
			LogsDir:        "/var/log/apps",
			SitesAvailable: "/etc/nginx/sites-available",
			SitesEnabled:   "/etc/nginx/sites-enabled",
			UnitDir:        "/etc/systemd/system",
			LogrotateDir:   "/etc/logrotate.d",
			ACMEWebroot:    "/var/www/letsencrypt",
			CertLiveDir:    "/etc/letsencrypt/live",
			StateDir:       "/var/lib/steward",
			BinPath:        "/usr/local/bin/steward",
		},
		Timeouts: Timeouts{
			Issuance: 2 * time.Minute,
			Reload:   30 * time.Second,
		},
	}
}
