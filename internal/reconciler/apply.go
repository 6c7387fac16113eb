package reconciler

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"steward/internal/project"
	"steward/internal/render"
	"steward/internal/site"
	"steward/internal/status"
	"steward/pkg/logging"
)

// maintenancePage is the default page served while a project is paused.
// It is written only once; operators may replace it with their own.
const maintenancePage = `<!DOCTYPE html>
<html>
<head><title>Maintenance</title></head>
<body>
<h1>Down for maintenance</h1>
<p>This service is temporarily unavailable. Please try again shortly.</p>
</body>
</html>
`

// applyLocked performs one full reconciliation pass for a project. The
// caller holds the project lock and is responsible for the final batched
// proxy reload when the returned flag is true; only the first-issuance
// handshake reloads inline, because the challenge must be reachable before
// issuance can run.
//
// A failed issuance does not abort the pass. The supervised process is
// still brought to its desired state and the error is returned at the end
// as an IssuanceError, with the HTTP-only provisioning site left active.
func (r *Reconciler) applyLocked(ctx context.Context, desc *project.Descriptor) (bool, error) {
	name := desc.Name

	if err := project.Validate(desc); err != nil {
		return false, err
	}
	artifacts, err := render.All(desc, r.cfg)
	if err != nil {
		return false, err
	}
	rp := project.DerivePaths(name, r.cfg.Paths)

	if err := r.ensureIdentity(ctx, name, artifacts.Identity, rp); err != nil {
		return false, err
	}

	unitsChanged, err := r.installUnits(ctx, desc, artifacts, rp)
	if err != nil {
		return false, err
	}

	needsReload := false
	hasCert := false
	var issuanceErr error

	if desc.HasDomain() {
		if err := r.ensureWebroot(); err != nil {
			return needsReload, &HostOperationError{Project: name, Step: "preparing challenge webroot", Err: err}
		}

		changed, err := installFile(rp.SiteMaintenance, artifacts.SiteMaintenance, 0o644)
		if err != nil {
			return needsReload, &HostOperationError{Project: name, Step: "installing maintenance site", Err: err}
		}
		needsReload = needsReload || changed

		hasCert = r.c.Certs.HasCertificate(desc.Domain)
		if !hasCert {
			hasCert, issuanceErr = r.provisionCertificate(ctx, desc, artifacts, rp)
			if issuanceErr != nil && !errors.Is(issuanceErr, &IssuanceError{}) {
				return needsReload, issuanceErr
			}
		}

		if hasCert {
			changed, err := installFile(rp.SiteNormal, artifacts.SiteNormal, 0o644)
			if err != nil {
				return needsReload, &HostOperationError{Project: name, Step: "installing site", Err: err}
			}
			needsReload = needsReload || changed
		}
	} else {
		// Domainless projects have no reverse-proxy surface. Clean up any
		// leftovers from a descriptor that used to carry a domain.
		if err := r.sites.Deactivate(name); err != nil {
			return needsReload, &HostOperationError{Project: name, Step: "deactivating site", Err: err}
		}
		for _, path := range []string{rp.SiteNormal, rp.SiteMaintenance} {
			removed, err := removeFile(path)
			if err != nil {
				return needsReload, &HostOperationError{Project: name, Step: "removing site files", Err: err}
			}
			needsReload = needsReload || removed
		}
	}

	if artifacts.Logrotate != nil {
		if _, err := installFile(rp.LogrotateFile, artifacts.Logrotate, 0o644); err != nil {
			return needsReload, &HostOperationError{Project: name, Step: "installing log rotation policy", Err: err}
		}
	} else {
		if _, err := removeFile(rp.LogrotateFile); err != nil {
			return needsReload, &HostOperationError{Project: name, Step: "removing log rotation policy", Err: err}
		}
	}

	if err := r.converge(ctx, desc, rp, unitsChanged); err != nil {
		return needsReload, err
	}

	// The desired and current activation can disagree even when no file
	// changed, for example after a manual pause on an enabled project.
	changed, err := r.ensureActivation(desc, rp, hasCert, issuanceErr != nil)
	if err != nil {
		return needsReload, err
	}
	needsReload = needsReload || changed

	if desc.HasDomain() && hasCert {
		if err := r.status.ClearKind(name, status.KindIssuanceFailed); err != nil {
			logging.Warn("Reconciler", "Clearing issuance status for %s: %v", name, err)
		}
	}

	return needsReload, issuanceErr
}

// ensureIdentity creates the project's system account and directory tree
// and hands ownership of the writable paths to the account.
func (r *Reconciler) ensureIdentity(ctx context.Context, name string, id render.Identity, rp project.ResourcePaths) error {
	step := func(s string, err error) error {
		if err != nil {
			return &HostOperationError{Project: name, Step: s, Err: err}
		}
		return nil
	}

	if err := step("ensuring system identity", r.c.Users.EnsureUser(ctx, id.Username, id.Home)); err != nil {
		return err
	}
	for _, dir := range []string{rp.Home, rp.CurrentDir, rp.ReleasesDir, rp.SharedDir, rp.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return step("creating application directories", err)
		}
	}
	if err := step("owning application root", r.c.Users.Own(rp.Home, id.Username)); err != nil {
		return err
	}
	return step("owning log directory", r.c.Users.Own(rp.LogDir, id.Username))
}

// installUnits writes the supervised-process unit and, when a health check
// is configured, the probe service and timer. Removed probe units are
// stopped before their files disappear.
func (r *Reconciler) installUnits(ctx context.Context, desc *project.Descriptor, artifacts render.Artifacts, rp project.ResourcePaths) (bool, error) {
	changed, err := installFile(rp.UnitFile, artifacts.Unit, 0o644)
	if err != nil {
		return false, &HostOperationError{Project: desc.Name, Step: "installing unit", Err: err}
	}

	anyChanged := changed
	if desc.Health != nil {
		for _, u := range []struct {
			path    string
			content []byte
		}{
			{rp.ProbeServiceFile, artifacts.ProbeService},
			{rp.ProbeTimerFile, artifacts.ProbeTimer},
		} {
			c, err := installFile(u.path, u.content, 0o644)
			if err != nil {
				return false, &HostOperationError{Project: desc.Name, Step: "installing health probe units", Err: err}
			}
			anyChanged = anyChanged || c
		}
	} else {
		removedAny := false
		for _, path := range []string{rp.ProbeTimerFile, rp.ProbeServiceFile} {
			if _, err := os.Stat(path); err == nil && !removedAny {
				r.stopQuietly(ctx, rp.ProbeTimerName)
				r.disableQuietly(ctx, rp.ProbeTimerName)
				removedAny = true
			}
			removed, err := removeFile(path)
			if err != nil {
				return false, &HostOperationError{Project: desc.Name, Step: "removing health probe units", Err: err}
			}
			anyChanged = anyChanged || removed
		}
	}

	if anyChanged {
		if err := r.c.Services.DaemonReload(ctx); err != nil {
			return false, &HostOperationError{Project: desc.Name, Step: "reloading supervisor", Err: err}
		}
	}
	return changed, nil
}

// ensureWebroot prepares the challenge webroot and the default maintenance
// page. The page is only seeded, never overwritten.
func (r *Reconciler) ensureWebroot() error {
	webroot := r.cfg.Paths.ACMEWebroot
	if err := os.MkdirAll(filepath.Join(webroot, ".well-known", "acme-challenge"), 0o755); err != nil {
		return err
	}

	page := filepath.Join(webroot, "maintenance.html")
	if _, err := os.Stat(page); errors.Is(err, os.ErrNotExist) {
		return os.WriteFile(page, []byte(maintenancePage), 0o644)
	}
	return nil
}

// provisionCertificate runs the first-issuance handshake: activate the
// HTTP-only provisioning rendering in the normal slot, reload the proxy so
// the challenge path answers, then request the certificate. On issuance
// failure the provisioning site stays active and an IssuanceError is
// returned; any other error is fatal.
func (r *Reconciler) provisionCertificate(ctx context.Context, desc *project.Descriptor, artifacts render.Artifacts, rp project.ResourcePaths) (bool, error) {
	name := desc.Name

	if _, err := installFile(rp.SiteNormal, artifacts.SiteProvisioning, 0o644); err != nil {
		return false, &HostOperationError{Project: name, Step: "installing provisioning site", Err: err}
	}

	preTarget, hadActive := r.sites.ActiveTarget(name)
	if err := r.sites.Activate(name, site.VariantNormal); err != nil {
		return false, &HostOperationError{Project: name, Step: "activating provisioning site", Err: err}
	}
	if err := r.reloadProxy(ctx); err != nil {
		r.restoreActive(name, preTarget, hadActive)
		return false, err
	}

	ictx, cancel := context.WithTimeout(ctx, r.cfg.Timeouts.Issuance)
	defer cancel()

	logging.Info("Reconciler", "Requesting certificate for %s (project %s)", desc.Domain, name)
	if err := r.c.Certs.Issue(ictx, desc.Domain, r.cfg.Paths.ACMEWebroot); err != nil {
		issErr := &IssuanceError{Project: name, Domain: desc.Domain, Err: err}
		logging.Warn("Reconciler", "%v; project stays in HTTP-only provisioning mode", issErr)
		if _, rerr := r.status.Record(name, status.KindIssuanceFailed, issErr.Error()); rerr != nil {
			logging.Warn("Reconciler", "Recording issuance failure for %s: %v", name, rerr)
		}
		return false, issErr
	}

	logging.Info("Reconciler", "Certificate issued for %s", desc.Domain)
	return true, nil
}

// converge brings the supervised process and the probe timer to the
// enabled/disabled state the descriptor declares.
func (r *Reconciler) converge(ctx context.Context, desc *project.Descriptor, rp project.ResourcePaths, unitChanged bool) error {
	name := desc.Name
	step := func(s string, err error) error {
		if err != nil {
			return &HostOperationError{Project: name, Step: s, Err: err}
		}
		return nil
	}

	if desc.Enabled {
		if err := step("enabling unit", r.c.Services.EnableUnit(ctx, rp.UnitName)); err != nil {
			return err
		}
		if unitChanged {
			if err := step("restarting unit", r.c.Services.RestartUnit(ctx, rp.UnitName)); err != nil {
				return err
			}
		} else if err := step("starting unit", r.c.Services.StartUnit(ctx, rp.UnitName)); err != nil {
			return err
		}
		if desc.Health != nil {
			if err := step("enabling health timer", r.c.Services.EnableUnit(ctx, rp.ProbeTimerName)); err != nil {
				return err
			}
			if err := step("starting health timer", r.c.Services.StartUnit(ctx, rp.ProbeTimerName)); err != nil {
				return err
			}
		}
		return nil
	}

	if desc.Health != nil {
		r.stopQuietly(ctx, rp.ProbeTimerName)
		r.disableQuietly(ctx, rp.ProbeTimerName)
	}
	if err := step("stopping unit", r.c.Services.StopUnit(ctx, rp.UnitName)); err != nil {
		return err
	}
	return step("disabling unit", r.c.Services.DisableUnit(ctx, rp.UnitName))
}

// ensureActivation points the active link at the slot the descriptor's
// state calls for. Enabled projects serve the normal slot. Disabled
// projects serve maintenance, except before first issuance: the
// maintenance rendering terminates TLS and cannot be served without a
// certificate, so the provisioning slot stays active until issuance
// succeeds.
func (r *Reconciler) ensureActivation(desc *project.Descriptor, rp project.ResourcePaths, hasCert, issuanceFailed bool) (bool, error) {
	if !desc.HasDomain() {
		return false, nil
	}

	want := site.VariantNormal
	if !desc.Enabled && hasCert && !issuanceFailed {
		want = site.VariantMaintenance
	}

	wantTarget := rp.SiteNormal
	if want == site.VariantMaintenance {
		wantTarget = rp.SiteMaintenance
	}
	if current, ok := r.sites.ActiveTarget(desc.Name); ok && current == wantTarget {
		return false, nil
	}

	if err := r.sites.Activate(desc.Name, want); err != nil {
		return false, &HostOperationError{Project: desc.Name, Step: "activating site", Err: err}
	}
	return true, nil
}
