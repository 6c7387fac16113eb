package cmd

import (
	"errors"

	"steward/internal/host"
	"steward/internal/project"
	"steward/internal/scheduler"
	"steward/pkg/logging"

	"github.com/spf13/cobra"
)

// newProbeCmd creates the command performing one health probe run. The
// rendered probe timer invokes this; operators can run it by hand to test
// a health endpoint.
func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <name>",
		Short: "Run one health probe for a project",
		Long: `Probes the project's health endpoint up to its configured retries and
restarts the supervised process when every attempt fails. A triggered
restart is recorded as a degraded condition but exits successfully; the
watchdog handled it.`,
		Args: cobra.ExactArgs(1),
		RunE: runProbe,
	}
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := project.NewStore(cfg)
	desc, err := store.Load(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	services, err := host.NewSystemdManager(ctx)
	if err != nil {
		return err
	}
	defer services.Close()

	prober := scheduler.NewProber(cfg, services)
	if err := prober.Run(ctx, desc); err != nil {
		// A handled watchdog restart is the probe doing its job, not a
		// command failure.
		if errors.Is(err, &scheduler.ProbeFailure{}) {
			logging.Warn("CLI", "%v", err)
			return nil
		}
		return err
	}
	return nil
}
