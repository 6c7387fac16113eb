package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"steward/internal/config"
	"steward/internal/host"
	"steward/internal/project"
	"steward/internal/reconciler"
	"steward/internal/scheduler"
	"steward/pkg/logging"

	"github.com/spf13/cobra"
)

// newWatchCmd creates the long-running mode: reconcile on descriptor
// changes and run the health scheduler in-process.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reconcile continuously and run the health watchdog",
		Long: `Watches the projects directory and reconciles every descriptor change.
The health scheduler runs in-process, restarted after each pass so new or
changed health specs take effect. Stops on SIGINT or SIGTERM.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rec, services, err := newReconciler(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	// Descriptors must exist before the watcher can be added to the
	// directory.
	if err := os.MkdirAll(cfg.Paths.ProjectsDir, 0o755); err != nil {
		return err
	}

	runner := &watchRunner{cfg: cfg, rec: rec, services: services}
	runner.pass(ctx)

	watcher := project.NewWatcher(cfg.Paths.ProjectsDir, func() {
		runner.pass(ctx)
	})
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	<-ctx.Done()
	runner.stopScheduler()
	logging.Info("CLI", "Watch mode stopped")
	return nil
}

// watchRunner serializes reconciliation passes and owns the scheduler
// lifecycle: each pass replaces the running scheduler so descriptor changes
// to health specs take effect.
type watchRunner struct {
	cfg      config.Config
	rec      *reconciler.Reconciler
	services *host.SystemdManager

	mu              sync.Mutex
	cancelScheduler context.CancelFunc
	schedulerDone   chan struct{}
}

// pass runs one reconciliation sweep and restarts the scheduler over the
// resulting descriptor set.
func (r *watchRunner) pass(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.rec.ApplyAll(ctx); err != nil {
		logging.Error("CLI", err, "Reconciliation pass failed")
	}
	r.restartSchedulerLocked(ctx)
}

func (r *watchRunner) restartSchedulerLocked(ctx context.Context) {
	if r.cancelScheduler != nil {
		r.cancelScheduler()
		<-r.schedulerDone
	}

	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancelScheduler = cancel
	r.schedulerDone = done

	sched := scheduler.NewScheduler(r.cfg, r.services)
	go func() {
		defer close(done)
		if err := sched.Run(sctx); err != nil {
			logging.Error("CLI", err, "Health scheduler failed")
		}
	}()
}

func (r *watchRunner) stopScheduler() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelScheduler != nil {
		r.cancelScheduler()
		<-r.schedulerDone
		r.cancelScheduler = nil
		r.schedulerDone = nil
	}
}
