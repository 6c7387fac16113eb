package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"

	"steward/pkg/logging"
)

// runCommand executes a host management command and returns its combined
// output. Package-level so tests can stub command execution.
var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// SysUserManager is the production UserManager, shelling out to the
// standard user database tools.
type SysUserManager struct{}

// NewSysUserManager creates a UserManager backed by useradd/userdel.
func NewSysUserManager() *SysUserManager {
	return &SysUserManager{}
}

// EnsureUser implements UserManager: create-if-absent, system account, no
// login shell. The home directory tree is managed by the reconciler, so
// useradd is told not to create it.
func (u *SysUserManager) EnsureUser(ctx context.Context, username, home string) error {
	if _, err := user.Lookup(username); err == nil {
		return nil
	}

	out, err := runCommand(ctx, "useradd",
		"--system",
		"--home-dir", home,
		"--no-create-home",
		"--shell", "/usr/sbin/nologin",
		username)
	if err != nil {
		return fmt.Errorf("creating user %s: %w: %s", username, err, out)
	}
	logging.Info("Users", "Created system user %s (home %s)", username, home)
	return nil
}

// RemoveUser implements UserManager. The account's data directories are the
// reconciler's responsibility; only the account itself is deleted here.
func (u *SysUserManager) RemoveUser(ctx context.Context, username string) error {
	if _, err := user.Lookup(username); err != nil {
		return nil
	}

	out, err := runCommand(ctx, "userdel", username)
	if err != nil {
		return fmt.Errorf("removing user %s: %w: %s", username, err, out)
	}
	logging.Info("Users", "Removed system user %s", username)
	return nil
}

// Own implements UserManager.
func (u *SysUserManager) Own(path, username string) error {
	account, err := user.Lookup(username)
	if err != nil {
		return fmt.Errorf("looking up user %s: %w", username, err)
	}
	uid, err := strconv.Atoi(account.Uid)
	if err != nil {
		return fmt.Errorf("parsing uid for %s: %w", username, err)
	}
	gid, err := strconv.Atoi(account.Gid)
	if err != nil {
		return fmt.Errorf("parsing gid for %s: %w", username, err)
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return fmt.Errorf("chowning %s to %s: %w", path, username, err)
	}
	return nil
}
