package scheduler

import (
	"context"
	"sync"
	"time"

	"steward/internal/config"
	"steward/internal/host"
	"steward/internal/project"
	"steward/pkg/logging"

	"golang.org/x/sync/semaphore"
)

// Scheduler runs recurring probe runs for every enabled project carrying a
// health spec. Each project gets its own ticker at its configured interval;
// when a tick fires while the previous run is still in flight, the tick is
// skipped, never queued.
type Scheduler struct {
	cfg    config.Config
	store  *project.Store
	prober *Prober
}

// NewScheduler creates a scheduler over the descriptor store and supervisor.
func NewScheduler(cfg config.Config, services host.ServiceManager) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		store:  project.NewStore(cfg),
		prober: NewProber(cfg, services),
	}
}

// Run probes all eligible projects until the context is cancelled. The
// project set is read once at startup; callers restart the scheduler when
// descriptors change.
func (s *Scheduler) Run(ctx context.Context) error {
	descs, err := s.store.List()
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	started := 0
	for _, desc := range descs {
		if desc.Health == nil || !desc.Enabled {
			continue
		}
		started++
		wg.Add(1)
		go func(desc *project.Descriptor) {
			defer wg.Done()
			s.watch(ctx, desc)
		}(desc)
	}

	logging.Info("Scheduler", "Watching %d project(s)", started)
	wg.Wait()
	return nil
}

// watch runs the per-project probe loop until the context is cancelled.
func (s *Scheduler) watch(ctx context.Context, desc *project.Descriptor) {
	ticker := time.NewTicker(desc.Health.Interval)
	defer ticker.Stop()

	// Weight 1: at most one probe run in flight per project.
	inflight := semaphore.NewWeighted(1)
	var runs sync.WaitGroup
	defer runs.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !inflight.TryAcquire(1) {
				logging.Debug("Scheduler", "Project %s: previous probe run still in flight, skipping tick", desc.Name)
				continue
			}
			runs.Add(1)
			go func() {
				defer runs.Done()
				defer inflight.Release(1)
				if err := s.prober.Run(ctx, desc); err != nil && ctx.Err() == nil {
					logging.Warn("Scheduler", "%v", err)
				}
			}()
		}
	}
}
