package host

import (
	"context"
	"fmt"

	"steward/pkg/logging"
)

// nginxUnit is the reverse proxy's supervisor unit.
const nginxUnit = "nginx.service"

// NginxManager is the production ProxyManager: configuration validation via
// the nginx binary, reload via the supervisor.
type NginxManager struct {
	services ServiceManager
}

// NewNginxManager creates a ProxyManager that reloads through the given
// ServiceManager.
func NewNginxManager(services ServiceManager) *NginxManager {
	return &NginxManager{services: services}
}

// Validate implements ProxyManager.
func (n *NginxManager) Validate(ctx context.Context) error {
	out, err := runCommand(ctx, "nginx", "-t")
	if err != nil {
		return fmt.Errorf("nginx configuration invalid: %w: %s", err, out)
	}
	return nil
}

// Reload implements ProxyManager. The configuration must validate before
// the reload is issued; nginx must never be reloaded blind.
func (n *NginxManager) Reload(ctx context.Context) error {
	if err := n.Validate(ctx); err != nil {
		return err
	}
	logging.Info("Nginx", "Reloading reverse proxy")
	return n.services.ReloadUnit(ctx, nginxUnit)
}
