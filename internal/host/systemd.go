package host

import (
	"context"
	"fmt"

	"steward/pkg/logging"

	"github.com/coreos/go-systemd/v22/dbus"
)

// SystemdManager is the production ServiceManager, talking to systemd over
// its D-Bus API.
type SystemdManager struct {
	conn *dbus.Conn
}

// NewSystemdManager connects to the system bus.
func NewSystemdManager(ctx context.Context) (*SystemdManager, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to systemd: %w", err)
	}
	return &SystemdManager{conn: conn}, nil
}

// Close releases the D-Bus connection.
func (s *SystemdManager) Close() {
	s.conn.Close()
}

// runJob issues a unit job and waits for its completion result.
func (s *SystemdManager) runJob(ctx context.Context, verb, name string,
	job func(context.Context, string, string, chan<- string) (int, error)) error {

	result := make(chan string, 1)
	if _, err := job(ctx, name, "replace", result); err != nil {
		return fmt.Errorf("%s %s: %w", verb, name, err)
	}

	select {
	case outcome := <-result:
		if outcome != "done" {
			return fmt.Errorf("%s %s: job finished with result %q", verb, name, outcome)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s %s: %w", verb, name, ctx.Err())
	}
}

// StartUnit implements ServiceManager.
func (s *SystemdManager) StartUnit(ctx context.Context, name string) error {
	logging.Debug("Systemd", "Starting unit %s", name)
	return s.runJob(ctx, "starting", name, s.conn.StartUnitContext)
}

// StopUnit implements ServiceManager.
func (s *SystemdManager) StopUnit(ctx context.Context, name string) error {
	logging.Debug("Systemd", "Stopping unit %s", name)
	return s.runJob(ctx, "stopping", name, s.conn.StopUnitContext)
}

// RestartUnit implements ServiceManager.
func (s *SystemdManager) RestartUnit(ctx context.Context, name string) error {
	logging.Debug("Systemd", "Restarting unit %s", name)
	return s.runJob(ctx, "restarting", name, s.conn.RestartUnitContext)
}

// ReloadUnit implements ServiceManager.
func (s *SystemdManager) ReloadUnit(ctx context.Context, name string) error {
	logging.Debug("Systemd", "Reloading unit %s", name)
	return s.runJob(ctx, "reloading", name, s.conn.ReloadUnitContext)
}

// EnableUnit implements ServiceManager.
func (s *SystemdManager) EnableUnit(ctx context.Context, name string) error {
	if _, _, err := s.conn.EnableUnitFilesContext(ctx, []string{name}, false, true); err != nil {
		return fmt.Errorf("enabling %s: %w", name, err)
	}
	return nil
}

// DisableUnit implements ServiceManager.
func (s *SystemdManager) DisableUnit(ctx context.Context, name string) error {
	if _, err := s.conn.DisableUnitFilesContext(ctx, []string{name}, false); err != nil {
		return fmt.Errorf("disabling %s: %w", name, err)
	}
	return nil
}

// DaemonReload implements ServiceManager.
func (s *SystemdManager) DaemonReload(ctx context.Context) error {
	if err := s.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}
	return nil
}

// IsActive implements ServiceManager.
func (s *SystemdManager) IsActive(ctx context.Context, name string) (bool, error) {
	statuses, err := s.conn.ListUnitsByNamesContext(ctx, []string{name})
	if err != nil {
		return false, fmt.Errorf("querying %s: %w", name, err)
	}
	for _, status := range statuses {
		if status.Name == name {
			return status.ActiveState == "active", nil
		}
	}
	return false, nil
}
