package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var applyQuiet bool

// newApplyCmd creates the command reconciling one project, or every project
// when no name is given.
func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [name]",
		Short: "Reconcile a project (or all projects) with its descriptor",
		Long: `Drives the host to the state the project descriptor declares: system
identity, supervised process, reverse-proxy site, certificate, log rotation
and health watchdog. Safe to re-run; unchanged projects produce no host
changes. Without a name, every project is reconciled and the reverse proxy
is reloaded once at the end of the pass.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runApply,
	}
	cmd.Flags().BoolVarP(&applyQuiet, "quiet", "q", false, "suppress progress output")
	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rec, services, err := newReconciler(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	if !applyQuiet {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Reconciling..."
		s.Start()
		defer s.Stop()
	}

	if len(args) == 1 {
		desc, err := rec.Store().Load(args[0])
		if err != nil {
			return err
		}
		if err := rec.Apply(ctx, desc); err != nil {
			return err
		}
		if !applyQuiet {
			fmt.Printf("\nProject %s reconciled.\n", desc.Name)
		}
		return nil
	}

	if err := rec.ApplyAll(ctx); err != nil {
		return err
	}
	if !applyQuiet {
		fmt.Println("\nAll projects reconciled.")
	}
	return nil
}
