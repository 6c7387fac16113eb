package site

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"steward/internal/config"
	"steward/internal/project"
	"steward/pkg/logging"
)

// Variant selects which rendered site file the active link points at. The
// provisioning rendering shares the normal slot, so only two variants can
// ever be activated.
type Variant string

const (
	// VariantNormal activates <sites-available>/<name>.conf. Depending on
	// certificate presence that slot holds either the TLS rendering or the
	// HTTP-only provisioning rendering.
	VariantNormal Variant = "normal"
	// VariantMaintenance activates <sites-available>/<name>-maintenance.conf.
	VariantMaintenance Variant = "maintenance"
)

// Manager detects and transitions the per-project site mode by operating on
// the sites-enabled symlink. The link always points at exactly one of the
// two available site files, which is what guarantees mutual exclusivity.
type Manager struct {
	paths config.Paths
}

// NewManager creates a site manager over the configured proxy directories.
func NewManager(cfg config.Config) *Manager {
	return &Manager{paths: cfg.Paths}
}

// DetectMode derives the current site mode for a project from the
// filesystem: which file the active link points at, and whether a
// certificate exists for the domain.
func (m *Manager) DetectMode(name, domain string) Mode {
	rp := project.DerivePaths(name, m.paths)

	target, err := os.Readlink(rp.SiteActive)
	if err != nil {
		return Uninitialized
	}

	if filepath.Base(target) == filepath.Base(rp.SiteMaintenance) {
		return Maintenance
	}

	// Normal slot active: with a certificate it serves TLS, without one it
	// can only be the provisioning rendering.
	if domain != "" && m.CertificateExists(domain) {
		return Normal
	}
	return ProvisioningHTTP
}

// CertificateExists reports whether the certificate authority client has a
// live certificate for the domain.
func (m *Manager) CertificateExists(domain string) bool {
	_, err := os.Stat(project.CertFile(domain, m.paths))
	return err == nil
}

// Activate points the project's active link at the requested variant. The
// swap is atomic (temp link plus rename), so there is no window where the
// proxy sees no site or two sites for one project.
func (m *Manager) Activate(name string, variant Variant) error {
	rp := project.DerivePaths(name, m.paths)

	target := rp.SiteNormal
	if variant == VariantMaintenance {
		target = rp.SiteMaintenance
	}
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("cannot activate %s site for project %s: %w", variant, name, err)
	}

	if err := os.MkdirAll(filepath.Dir(rp.SiteActive), 0o755); err != nil {
		return fmt.Errorf("creating sites-enabled directory: %w", err)
	}

	tmp := rp.SiteActive + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing stale activation link: %w", err)
	}
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("linking %s site for project %s: %w", variant, name, err)
	}
	if err := os.Rename(tmp, rp.SiteActive); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("activating %s site for project %s: %w", variant, name, err)
	}

	logging.Debug("SiteManager", "Project %s: active site now %s", name, variant)
	return nil
}

// ActiveTarget returns the file the active link currently points at.
// The second return is false when no site is active.
func (m *Manager) ActiveTarget(name string) (string, bool) {
	rp := project.DerivePaths(name, m.paths)
	target, err := os.Readlink(rp.SiteActive)
	if err != nil {
		return "", false
	}
	return target, true
}

// RestoreTarget points the active link back at an arbitrary previously
// observed target. Used to roll back after a failed proxy reload.
func (m *Manager) RestoreTarget(name, target string) error {
	rp := project.DerivePaths(name, m.paths)

	tmp := rp.SiteActive + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing stale activation link: %w", err)
	}
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("restoring site for project %s: %w", name, err)
	}
	if err := os.Rename(tmp, rp.SiteActive); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("restoring site for project %s: %w", name, err)
	}
	return nil
}

// Deactivate unlinks the project from the active set. Already-absent links
// are not an error.
func (m *Manager) Deactivate(name string) error {
	rp := project.DerivePaths(name, m.paths)
	if err := os.Remove(rp.SiteActive); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deactivating site for project %s: %w", name, err)
	}
	return nil
}
