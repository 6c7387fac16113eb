package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	removePurge bool
	removeYes   bool
)

// newRemoveProjectCmd creates the command tearing down a project.
func newRemoveProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-project <name>",
		Short: "Remove a project's managed artifacts",
		Long: `Stops the supervised process and removes the unit, site files, log
rotation policy, descriptor and environment file. Application data and the
system identity survive unless --purge is given. Already-absent artifacts
are skipped, so removal can be re-run safely.`,
		Args: cobra.ExactArgs(1),
		RunE: runRemoveProject,
	}
	cmd.Flags().BoolVar(&removePurge, "purge", false,
		"also delete the application and log directories and the system identity")
	cmd.Flags().BoolVar(&removeYes, "yes", false,
		"confirm destructive removal (required with --purge)")
	return cmd
}

func runRemoveProject(cmd *cobra.Command, args []string) error {
	name := args[0]

	if removePurge && !removeYes {
		return fmt.Errorf("--purge deletes application data and the system identity for %s; re-run with --yes to confirm", name)
	}

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

	if err := rec.Remove(ctx, name, removePurge); err != nil {
		return err
	}
	fmt.Printf("Project %s removed.\n", name)
	return nil
}
