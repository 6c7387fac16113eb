// Package render holds the resource writers: pure functions from a project
// descriptor (plus global configuration) to the desired content of each
// managed artifact. Writers perform no host I/O and never fail on valid
// descriptors; malformed input is rejected upstream by the descriptor store.
package render

import (
	"steward/internal/config"
	"steward/internal/project"
)

// Artifacts is the complete desired artifact set for one project. Site and
// certificate fields are empty for projects without a domain; probe fields
// are empty for projects without a health-check spec.
type Artifacts struct {
	Identity Identity

	// Unit is the supervised-process unit body.
	Unit []byte

	// SiteNormal, SiteMaintenance and SiteProvisioning are the three site
	// variants. Normal and maintenance are always rendered together so both
	// are ready for instant mode switches.
	SiteNormal       []byte
	SiteMaintenance  []byte
	SiteProvisioning []byte

	// Logrotate is the per-project rotation policy.
	Logrotate []byte

	// ProbeService and ProbeTimer implement the recurring health watchdog.
	ProbeService []byte
	ProbeTimer   []byte
}

// All renders every artifact for a descriptor. Rendering is deterministic:
// the same descriptor and configuration always produce byte-identical
// output, which is what makes apply idempotent.
func All(desc *project.Descriptor, cfg config.Config) (Artifacts, error) {
	var artifacts Artifacts
	var err error

	artifacts.Identity = IdentityFor(desc, cfg)

	if artifacts.Unit, err = Unit(desc, cfg); err != nil {
		return Artifacts{}, err
	}

	if desc.HasDomain() {
		if artifacts.SiteNormal, err = Site(desc, cfg, SiteNormal); err != nil {
			return Artifacts{}, err
		}
		if artifacts.SiteMaintenance, err = Site(desc, cfg, SiteMaintenance); err != nil {
			return Artifacts{}, err
		}
		if artifacts.SiteProvisioning, err = Site(desc, cfg, SiteProvisioning); err != nil {
			return Artifacts{}, err
		}
	}

	if desc.HasDomain() || cfg.AppLogMode == config.AppLogModeFile {
		if artifacts.Logrotate, err = Logrotate(desc, cfg); err != nil {
			return Artifacts{}, err
		}
	}

	if desc.Health != nil {
		if artifacts.ProbeService, err = ProbeService(desc, cfg); err != nil {
			return Artifacts{}, err
		}
		if artifacts.ProbeTimer, err = ProbeTimer(desc, cfg); err != nil {
			return Artifacts{}, err
		}
	}

	return artifacts, nil
}
