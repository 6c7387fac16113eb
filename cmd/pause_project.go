package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPauseProjectCmd creates the command switching a project to its
// maintenance site.
func newPauseProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause-project <name>",
		Short: "Serve the maintenance page instead of the application",
		Long: `Points the reverse proxy at the project's maintenance site. The
supervised process and the certificate are untouched, so resume-project
restores normal serving instantly.`,
		Args: cobra.ExactArgs(1),
		RunE: runPauseProject,
	}
}

func runPauseProject(cmd *cobra.Command, args []string) error {
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

	if err := rec.Pause(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Project %s paused; maintenance page active.\n", args[0])
	return nil
}
