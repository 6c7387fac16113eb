package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newResumeProjectCmd creates the command restoring normal serving after a
// pause.
func newResumeProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume-project <name>",
		Short: "Restore normal serving after a pause",
		Args:  cobra.ExactArgs(1),
		RunE:  runResumeProject,
	}
}

func runResumeProject(cmd *cobra.Command, args []string) error {
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

	if err := rec.Resume(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Project %s resumed.\n", args[0])
	return nil
}
