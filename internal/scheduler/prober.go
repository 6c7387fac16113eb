// Package scheduler implements the recurring health watchdog: per-project
// HTTP probes against the supervised process, with an automatic restart
// when a probe run exhausts its retries. It runs independently of apply;
// re-provisioning a project never interrupts an in-flight probe.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"steward/internal/config"
	"steward/internal/host"
	"steward/internal/project"
	"steward/internal/reconciler"
	"steward/internal/status"
	"steward/pkg/logging"
)

// ProbeFailure indicates a probe run exhausted its retries and the
// supervised process was restarted. Callers log it; it is never fatal.
type ProbeFailure struct {
	// Project names the probed project.
	Project string
	// Attempts is the number of failed attempts.
	Attempts int
	// LastErr is the final attempt's error.
	LastErr error
}

// Error implements the error interface.
func (e *ProbeFailure) Error() string {
	return fmt.Sprintf("project %s: health probe failed after %d attempt(s): %v",
		e.Project, e.Attempts, e.LastErr)
}

// Unwrap returns the final attempt's error.
func (e *ProbeFailure) Unwrap() error { return e.LastErr }

// Is allows errors.Is() to match any ProbeFailure.
func (e *ProbeFailure) Is(target error) bool {
	_, ok := target.(*ProbeFailure)
	return ok
}

// Prober performs one probe run: sequential attempts against the project's
// local health endpoint, then a restart when all attempts fail.
type Prober struct {
	cfg      config.Config
	services host.ServiceManager
	status   *status.Recorder
	client   *http.Client

	// delay between attempts. Fixed in production, shortened in tests.
	delay time.Duration
}

// NewProber creates a Prober over the given supervisor.
func NewProber(cfg config.Config, services host.ServiceManager) *Prober {
	return &Prober{
		cfg:      cfg,
		services: services,
		status:   status.NewRecorder(cfg),
		client:   &http.Client{},
		delay:    2 * time.Second,
	}
}

// Run executes one probe run for a project. Projects without a health spec
// are a no-op. A successful attempt clears any earlier probe-restart record;
// exhausted retries restart the unit, write a probe-restart record and
// return a *ProbeFailure.
//
// The restart path serializes with apply on the same per-project lock, so a
// watchdog restart never races a re-provisioning run.
func (p *Prober) Run(ctx context.Context, desc *project.Descriptor) error {
	if desc.Health == nil {
		return nil
	}

	url := fmt.Sprintf("http://127.0.0.1:%d%s", desc.Port, desc.Health.Path)

	var lastErr error
	for attempt := 1; attempt <= desc.Health.Retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay):
			}
		}

		lastErr = p.attempt(ctx, url, desc.Health.Timeout)
		if lastErr == nil {
			logging.Debug("Scheduler", "Project %s healthy (attempt %d)", desc.Name, attempt)
			if err := p.status.ClearKind(desc.Name, status.KindProbeRestart); err != nil {
				logging.Warn("Scheduler", "Clearing probe status for %s: %v", desc.Name, err)
			}
			return nil
		}
		logging.Debug("Scheduler", "Project %s probe attempt %d/%d failed: %v",
			desc.Name, attempt, desc.Health.Retries, lastErr)
	}

	failure := &ProbeFailure{Project: desc.Name, Attempts: desc.Health.Retries, LastErr: lastErr}
	if err := p.restart(ctx, desc, failure); err != nil {
		logging.Error("Scheduler", err, "Restarting project %s after failed probes", desc.Name)
	}
	return failure
}

// attempt performs one GET against the health endpoint. Any 2xx response is
// healthy; everything else, including transport errors, is a failure.
func (p *Prober) attempt(ctx context.Context, url string, timeout time.Duration) error {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// restart restarts the supervised process under the per-project lock and
// records the degraded condition.
func (p *Prober) restart(ctx context.Context, desc *project.Descriptor, failure *ProbeFailure) error {
	lock, err := reconciler.LockProject(p.cfg.Paths.StateDir, desc.Name)
	if err != nil {
		return err
	}
	defer lock.Release()

	rp := project.DerivePaths(desc.Name, p.cfg.Paths)
	logging.Warn("Scheduler", "%v; restarting %s", failure, rp.UnitName)

	if err := p.services.RestartUnit(ctx, rp.UnitName); err != nil {
		return err
	}
	if _, err := p.status.Record(desc.Name, status.KindProbeRestart, failure.Error()); err != nil {
		logging.Warn("Scheduler", "Recording probe restart for %s: %v", desc.Name, err)
	}
	return nil
}
