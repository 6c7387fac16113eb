package cmd

import (
	"fmt"
	"io"

	"steward/internal/project"
	"steward/internal/reconciler"

	"github.com/spf13/cobra"
)

// newRenderCmd creates the dry-run command printing every artifact that
// apply would install, without touching the host.
func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <name>",
		Short: "Print the rendered artifacts for a project without applying them",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := project.NewStore(cfg)
	desc, err := store.Load(args[0])
	if err != nil {
		return err
	}

	// Rendering needs no host collaborators.
	rec := reconciler.New(cfg, reconciler.Collaborators{})
	artifacts, err := rec.Render(desc)
	if err != nil {
		return err
	}

	rp := project.DerivePaths(desc.Name, cfg.Paths)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "# identity: %s (home %s)\n\n", artifacts.Identity.Username, artifacts.Identity.Home)
	printArtifact(out, rp.UnitFile, artifacts.Unit)
	printArtifact(out, rp.SiteNormal, artifacts.SiteNormal)
	printArtifact(out, rp.SiteNormal+" (before issuance)", artifacts.SiteProvisioning)
	printArtifact(out, rp.SiteMaintenance, artifacts.SiteMaintenance)
	printArtifact(out, rp.LogrotateFile, artifacts.Logrotate)
	printArtifact(out, rp.ProbeServiceFile, artifacts.ProbeService)
	printArtifact(out, rp.ProbeTimerFile, artifacts.ProbeTimer)
	return nil
}

func printArtifact(out io.Writer, path string, content []byte) {
	if len(content) == 0 {
		return
	}
	fmt.Fprintf(out, "# --- %s ---\n%s\n", path, content)
}
