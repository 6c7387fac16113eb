package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the owner/repo whose releases the updater tracks.
const githubRepoSlug = "steward-sh/steward"

// newSelfUpdateCmd replaces the running binary with the newest GitHub
// release, if one exists.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update steward to the latest release",
		Long: `Compares the running binary against the latest GitHub release
and replaces it in place when a newer version is available.`,
		RunE: runSelfUpdate,
	}
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := rootCmd.Version
	// Development builds carry no comparable release version.
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development build")
	}

	fmt.Printf("Running version %s, checking for updates...\n", currentVersion)

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("creating updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(cmd.Context(), selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("detecting latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", githubRepoSlug)
	}

	if !latest.GreaterThan(currentVersion) {
		fmt.Println("Already on the latest version.")
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	fmt.Printf("Updating %s to %s (published %s)...\n", exe, latest.Version(), latest.PublishedAt)
	if err := updater.UpdateTo(cmd.Context(), latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Printf("Updated to version %s.\n", latest.Version())
	return nil
}
