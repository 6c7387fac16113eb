package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"steward/internal/host"
	"steward/internal/project"

	"github.com/spf13/cobra"
)

// envSkeleton seeds a new environment file. KEY=VALUE lines, sourced into
// the supervised process by its unit.
const envSkeleton = `# Environment for project %s.
# KEY=VALUE lines; this file is read by the service unit at start.
# Readable only by the service identity and the operator.
`

// newCreateEnvCmd creates the command seeding a project's environment file.
func newCreateEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-env <name>",
		Short: "Create the per-project environment (secrets) file",
		Long: `Creates <apps>/<name>/shared/env with a comment header, mode 0640,
owned by the project's service identity. An existing file is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: runCreateEnv,
	}
}

func runCreateEnv(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := project.NewStore(cfg)
	desc, err := store.Load(args[0])
	if err != nil {
		return err
	}

	rp := project.DerivePaths(desc.Name, cfg.Paths)
	if _, err := os.Stat(rp.EnvFile); err == nil {
		fmt.Printf("Environment file %s already exists.\n", rp.EnvFile)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(rp.EnvFile), 0o755); err != nil {
		return err
	}
	content := fmt.Sprintf(envSkeleton, desc.Name)
	if err := os.WriteFile(rp.EnvFile, []byte(content), 0o640); err != nil {
		return err
	}

	users := host.NewSysUserManager()
	if err := users.Own(rp.EnvFile, desc.User); err != nil {
		return fmt.Errorf("owning %s: %w", rp.EnvFile, err)
	}

	fmt.Printf("Created %s (owned by %s, mode 0640).\n", rp.EnvFile, desc.User)
	return nil
}
