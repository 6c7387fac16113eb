package cmd

import (
	"fmt"

	"steward/internal/host"
	"steward/internal/project"

	"github.com/spf13/cobra"
)

var addUserHome string

// newAddUserCmd creates the command provisioning a service identity on its
// own, without a full apply. Useful when preparing an account before the
// first deployment lands.
func newAddUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-user <name>",
		Short: "Create the system identity for a project",
		Args:  cobra.ExactArgs(1),
		RunE:  runAddUser,
	}
	cmd.Flags().StringVar(&addUserHome, "home", "", "home directory (default <apps>/<name>)")
	return cmd
}

func runAddUser(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := args[0]
	if err := project.CheckName(name); err != nil {
		return err
	}

	home := addUserHome
	if home == "" {
		home = project.DerivePaths(name, cfg.Paths).Home
	}

	username := "svc-" + name
	users := host.NewSysUserManager()
	if err := users.EnsureUser(cmd.Context(), username, home); err != nil {
		return err
	}
	fmt.Printf("System identity %s ready (home %s).\n", username, home)
	return nil
}
