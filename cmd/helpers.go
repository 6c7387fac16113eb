package cmd

import (
	"context"

	"steward/internal/config"
	"steward/internal/host"
	"steward/internal/reconciler"
)

// newReconciler wires the reconciler to the production host collaborators
// and returns the supervisor connection alongside it, for commands that
// drive units directly. Callers close the returned manager when done.
func newReconciler(ctx context.Context, cfg config.Config) (*reconciler.Reconciler, *host.SystemdManager, error) {
	services, err := host.NewSystemdManager(ctx)
	if err != nil {
		return nil, nil, err
	}

	rec := reconciler.New(cfg, reconciler.Collaborators{
		Services: services,
		Users:    host.NewSysUserManager(),
		Certs:    host.NewCertbotIssuer(cfg),
		Proxy:    host.NewNginxManager(services),
	})
	return rec, services, nil
}
