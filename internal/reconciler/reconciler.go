// Package reconciler drives the live host from whatever state it is in to
// the state a project descriptor declares. Every apply re-derives and
// overwrites all managed artifacts except the certificate, which is
// requested once and renewed out-of-band.
package reconciler

import (
	"context"
	"fmt"
	"os"

	"steward/internal/config"
	"steward/internal/host"
	"steward/internal/project"
	"steward/internal/render"
	"steward/internal/site"
	"steward/internal/status"
	"steward/pkg/logging"
)

// Collaborators are the external host interfaces the reconciler emits
// declarations to and reads status back from.
type Collaborators struct {
	Services host.ServiceManager
	Users    host.UserManager
	Certs    host.CertIssuer
	Proxy    host.ProxyManager
}

// Reconciler orchestrates the resource writers and the site state machine
// against the live host. One instance processes projects sequentially; the
// per-project lock serializes concurrent invocations.
type Reconciler struct {
	cfg    config.Config
	store  *project.Store
	sites  *site.Manager
	status *status.Recorder
	c      Collaborators
}

// New creates a reconciler over the given configuration and collaborators.
func New(cfg config.Config, c Collaborators) *Reconciler {
	return &Reconciler{
		cfg:    cfg,
		store:  project.NewStore(cfg),
		sites:  site.NewManager(cfg),
		status: status.NewRecorder(cfg),
		c:      c,
	}
}

// Store exposes the descriptor store for operator commands.
func (r *Reconciler) Store() *project.Store { return r.store }

// Sites exposes the site state machine for read-only commands.
func (r *Reconciler) Sites() *site.Manager { return r.sites }

// Status exposes the degraded-status recorder.
func (r *Reconciler) Status() *status.Recorder { return r.status }

// Render returns the complete desired artifact set for a descriptor without
// touching the host. Used by the dry-run command.
func (r *Reconciler) Render(desc *project.Descriptor) (render.Artifacts, error) {
	if err := project.Validate(desc); err != nil {
		return render.Artifacts{}, err
	}
	return render.All(desc, r.cfg)
}

// Apply reconciles one project, reloading the reverse proxy if anything
// serving-relevant changed.
func (r *Reconciler) Apply(ctx context.Context, desc *project.Descriptor) error {
	lock, err := LockProject(r.cfg.Paths.StateDir, desc.Name)
	if err != nil {
		return err
	}
	defer lock.Release()

	preTarget, hadActive := r.sites.ActiveTarget(desc.Name)

	needsReload, err := r.applyLocked(ctx, desc)
	if err != nil {
		return err
	}
	if !needsReload {
		return nil
	}

	if err := r.reloadProxy(ctx); err != nil {
		r.restoreActive(desc.Name, preTarget, hadActive)
		return err
	}
	return nil
}

// ApplyAll reconciles every project in the store. Per-project failures are
// collected, never propagated across projects, and the proxy reload is
// batched into a single call at the end of the pass.
func (r *Reconciler) ApplyAll(ctx context.Context) error {
	names, err := r.store.Names()
	if err != nil {
		return err
	}

	failures := make(map[string]error)
	type preState struct {
		target string
		had    bool
	}
	changed := make(map[string]preState)

	for _, name := range names {
		desc, err := r.store.Load(name)
		if err != nil {
			logging.Error("Reconciler", err, "Skipping project %s", name)
			failures[name] = err
			continue
		}

		lock, err := LockProject(r.cfg.Paths.StateDir, name)
		if err != nil {
			failures[name] = err
			continue
		}

		preTarget, hadActive := r.sites.ActiveTarget(name)
		needsReload, err := r.applyLocked(ctx, desc)
		lock.Release()

		if err != nil {
			logging.Error("Reconciler", err, "Apply failed for project %s", name)
			failures[name] = err
			continue
		}
		if needsReload {
			changed[name] = preState{target: preTarget, had: hadActive}
		}
	}

	if len(changed) > 0 {
		if err := r.reloadProxy(ctx); err != nil {
			for name, pre := range changed {
				r.restoreActive(name, pre.target, pre.had)
			}
			return err
		}
	}

	if len(failures) > 0 {
		return &BatchError{Failures: failures}
	}
	return nil
}

// Remove tears down a project's managed artifacts. With purge it also
// deletes the application and log directories and the system identity.
// Sub-steps never fail on already-absent resources.
func (r *Reconciler) Remove(ctx context.Context, name string, purge bool) error {
	lock, err := LockProject(r.cfg.Paths.StateDir, name)
	if err != nil {
		return err
	}
	defer lock.Release()

	rp := project.DerivePaths(name, r.cfg.Paths)

	// Best effort: the descriptor may be gone or invalid, in which case the
	// username falls back to its derived default.
	username := "svc-" + name
	if desc, err := r.store.Load(name); err == nil {
		username = desc.User
	}

	// Stop and disable before deleting unit files so the supervisor never
	// holds a unit whose file has vanished.
	r.stopQuietly(ctx, rp.ProbeTimerName)
	r.disableQuietly(ctx, rp.ProbeTimerName)
	r.stopQuietly(ctx, rp.UnitName)
	r.disableQuietly(ctx, rp.UnitName)

	unitsRemoved := false
	for _, path := range []string{rp.ProbeTimerFile, rp.ProbeServiceFile, rp.UnitFile} {
		removed, err := removeFile(path)
		if err != nil {
			return &HostOperationError{Project: name, Step: "removing unit files", Err: err}
		}
		unitsRemoved = unitsRemoved || removed
	}
	if unitsRemoved {
		if err := r.c.Services.DaemonReload(ctx); err != nil {
			return &HostOperationError{Project: name, Step: "reloading supervisor", Err: err}
		}
	}

	sitesRemoved := false
	if err := r.sites.Deactivate(name); err != nil {
		return &HostOperationError{Project: name, Step: "deactivating site", Err: err}
	}
	for _, path := range []string{rp.SiteNormal, rp.SiteMaintenance} {
		removed, err := removeFile(path)
		if err != nil {
			return &HostOperationError{Project: name, Step: "removing site files", Err: err}
		}
		sitesRemoved = sitesRemoved || removed
	}
	if sitesRemoved {
		if err := r.reloadProxy(ctx); err != nil {
			return err
		}
	}

	if _, err := removeFile(rp.LogrotateFile); err != nil {
		return &HostOperationError{Project: name, Step: "removing log rotation policy", Err: err}
	}
	if err := r.store.Remove(name); err != nil {
		return &HostOperationError{Project: name, Step: "removing descriptor", Err: err}
	}
	if _, err := removeFile(rp.EnvFile); err != nil {
		return &HostOperationError{Project: name, Step: "removing environment file", Err: err}
	}
	if err := r.status.Clear(name); err != nil {
		return &HostOperationError{Project: name, Step: "clearing status", Err: err}
	}

	if purge {
		for _, dir := range []string{rp.Home, rp.LogDir} {
			if err := os.RemoveAll(dir); err != nil {
				return &HostOperationError{Project: name, Step: "purging data directories", Err: err}
			}
		}
		if err := r.c.Users.RemoveUser(ctx, username); err != nil {
			return &HostOperationError{Project: name, Step: "removing system identity", Err: err}
		}
	}

	logging.Info("Reconciler", "Removed project %s (purge=%t)", name, purge)
	return nil
}

// Pause activates the maintenance site. The certificate and the supervised
// process are untouched: the project stops serving real traffic but can be
// resumed instantly.
func (r *Reconciler) Pause(ctx context.Context, name string) error {
	return r.switchMode(ctx, name, site.VariantMaintenance)
}

// Resume activates the normal site again after a pause.
func (r *Reconciler) Resume(ctx context.Context, name string) error {
	return r.switchMode(ctx, name, site.VariantNormal)
}

func (r *Reconciler) switchMode(ctx context.Context, name string, variant site.Variant) error {
	lock, err := LockProject(r.cfg.Paths.StateDir, name)
	if err != nil {
		return err
	}
	defer lock.Release()

	preTarget, hadActive := r.sites.ActiveTarget(name)

	if err := r.sites.Activate(name, variant); err != nil {
		return &HostOperationError{Project: name, Step: fmt.Sprintf("activating %s site", variant), Err: err}
	}
	if err := r.reloadProxy(ctx); err != nil {
		r.restoreActive(name, preTarget, hadActive)
		return err
	}

	logging.Info("Reconciler", "Project %s switched to %s", name, variant)
	return nil
}

// reloadProxy validates the proxy configuration and reloads it, bounded by
// the configured timeout. Validation runs before every reload; reloading a
// configuration that does not validate would take every site down.
func (r *Reconciler) reloadProxy(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, r.cfg.Timeouts.Reload)
	defer cancel()

	if err := r.c.Proxy.Validate(rctx); err != nil {
		return &ReloadError{Err: err}
	}
	if err := r.c.Proxy.Reload(rctx); err != nil {
		return &ReloadError{Err: err}
	}
	return nil
}

// restoreActive puts a project's active link back to its pre-operation
// target after a failed reload, so the host keeps serving what it served
// before.
func (r *Reconciler) restoreActive(name, target string, hadActive bool) {
	var err error
	if hadActive {
		err = r.sites.RestoreTarget(name, target)
	} else {
		err = r.sites.Deactivate(name)
	}
	if err != nil {
		logging.Error("Reconciler", err, "Failed to restore pre-operation site for project %s", name)
	}
}

// stopQuietly stops a unit, logging instead of failing: teardown paths must
// tolerate units that were never installed.
func (r *Reconciler) stopQuietly(ctx context.Context, unit string) {
	if err := r.c.Services.StopUnit(ctx, unit); err != nil {
		logging.Debug("Reconciler", "Stopping %s: %v", unit, err)
	}
}

func (r *Reconciler) disableQuietly(ctx context.Context, unit string) {
	if err := r.c.Services.DisableUnit(ctx, unit); err != nil {
		logging.Debug("Reconciler", "Disabling %s: %v", unit, err)
	}
}
