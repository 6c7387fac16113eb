package cmd

import (
	"fmt"
	"time"

	"steward/internal/project"

	"github.com/spf13/cobra"
)

var (
	addDomain         string
	addPort           int
	addUser           string
	addExec           string
	addDisabled       bool
	addHealthPath     string
	addHealthInterval time.Duration
	addHealthTimeout  time.Duration
	addHealthRetries  int
	addApply          bool
)

// newAddProjectCmd creates the command writing a new project descriptor.
func newAddProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-project <name>",
		Short: "Create a new project descriptor",
		Long: `Writes a new project descriptor file. Unset fields take their derived
defaults (user svc-<name>, exec <apps>/<name>/current/run). With --apply the
project is reconciled immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: runAddProject,
	}
	cmd.Flags().StringVar(&addDomain, "domain", "", "public hostname served by the reverse proxy")
	cmd.Flags().IntVar(&addPort, "port", 0, "local port the application listens on")
	cmd.Flags().StringVar(&addUser, "user", "", "system identity (default svc-<name>)")
	cmd.Flags().StringVar(&addExec, "exec", "", "absolute path of the executable (default <apps>/<name>/current/run)")
	cmd.Flags().BoolVar(&addDisabled, "disabled", false, "create the project disabled")
	cmd.Flags().StringVar(&addHealthPath, "health-path", "", "health endpoint path; enables the watchdog")
	cmd.Flags().DurationVar(&addHealthInterval, "health-interval", project.DefaultHealthInterval, "probe interval")
	cmd.Flags().DurationVar(&addHealthTimeout, "health-timeout", project.DefaultHealthTimeout, "per-attempt probe timeout")
	cmd.Flags().IntVar(&addHealthRetries, "health-retries", project.DefaultHealthRetries, "probe attempts before restarting")
	cmd.Flags().BoolVar(&addApply, "apply", false, "reconcile the project immediately after creating it")
	return cmd
}

func runAddProject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	desc := &project.Descriptor{
		Name:    args[0],
		Enabled: !addDisabled,
		Domain:  addDomain,
		Port:    addPort,
		User:    addUser,
		Exec:    addExec,
	}
	if addHealthPath != "" {
		desc.Health = &project.HealthCheck{
			Path:     addHealthPath,
			Interval: addHealthInterval,
			Timeout:  addHealthTimeout,
			Retries:  addHealthRetries,
		}
	}
	store := project.NewStore(cfg)
	store.ApplyDefaults(desc)
	if err := store.Save(desc, false); err != nil {
		return err
	}
	fmt.Printf("Project %s created.\n", desc.Name)

	if !addApply {
		return nil
	}

	ctx := cmd.Context()
	rec, services, err := newReconciler(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()
	return rec.Apply(ctx, desc)
}
