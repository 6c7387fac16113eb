package host

import (
	"context"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"steward/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCommands replaces the command runner for the duration of a test and
// records every invocation.
func stubCommands(t *testing.T, output []byte, err error) *[][]string {
	t.Helper()
	original := runCommand
	t.Cleanup(func() { runCommand = original })

	var calls [][]string
	runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return output, err
	}
	return &calls
}

func TestEnsureUser_SkipsExistingAccount(t *testing.T) {
	calls := stubCommands(t, nil, errors.New("should not be called"))

	current, err := user.Current()
	require.NoError(t, err)

	mgr := NewSysUserManager()
	require.NoError(t, mgr.EnsureUser(context.Background(), current.Username, "/srv/apps/x"))
	assert.Empty(t, *calls)
}

func TestEnsureUser_CreatesSystemAccount(t *testing.T) {
	calls := stubCommands(t, nil, nil)

	mgr := NewSysUserManager()
	require.NoError(t, mgr.EnsureUser(context.Background(), "svc-steward-test-nonexistent", "/srv/apps/myapp"))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "useradd", call[0])
	assert.Contains(t, call, "--system")
	assert.Contains(t, call, "--no-create-home")
	assert.Contains(t, call, "/srv/apps/myapp")
	assert.Equal(t, "svc-steward-test-nonexistent", call[len(call)-1])
}

func TestRemoveUser_AbsentIsNoError(t *testing.T) {
	calls := stubCommands(t, nil, errors.New("should not be called"))

	mgr := NewSysUserManager()
	require.NoError(t, mgr.RemoveUser(context.Background(), "svc-steward-test-nonexistent"))
	assert.Empty(t, *calls)
}

func TestCertbotIssue_Arguments(t *testing.T) {
	calls := stubCommands(t, nil, nil)

	cfg := config.GetDefaultConfig()
	cfg.Email = "ops@example.com"
	issuer := NewCertbotIssuer(cfg)

	require.NoError(t, issuer.Issue(context.Background(), "myapp.example.com", "/var/www/letsencrypt"))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "certbot", call[0])
	assert.Contains(t, call, "certonly")
	assert.Contains(t, call, "--webroot")
	assert.Contains(t, call, "/var/www/letsencrypt")
	assert.Contains(t, call, "myapp.example.com")
	assert.Contains(t, call, "--non-interactive")
	assert.Contains(t, call, "--email")
	assert.Contains(t, call, "ops@example.com")
}

func TestCertbotIssue_FailureWrapsOutput(t *testing.T) {
	stubCommands(t, []byte("some challenge failure"), errors.New("exit status 1"))

	issuer := NewCertbotIssuer(config.GetDefaultConfig())
	err := issuer.Issue(context.Background(), "myapp.example.com", "/var/www/letsencrypt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "myapp.example.com")
	assert.Contains(t, err.Error(), "some challenge failure")
}

func TestCertbotHasCertificate(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Paths.CertLiveDir = t.TempDir()
	issuer := NewCertbotIssuer(cfg)

	assert.False(t, issuer.HasCertificate("myapp.example.com"))

	dir := filepath.Join(cfg.Paths.CertLiveDir, "myapp.example.com")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fullchain.pem"), []byte("cert"), 0o644))
	assert.True(t, issuer.HasCertificate("myapp.example.com"))
}

type fakeServiceManager struct {
	reloaded []string
}

func (f *fakeServiceManager) StartUnit(ctx context.Context, name string) error   { return nil }
func (f *fakeServiceManager) StopUnit(ctx context.Context, name string) error    { return nil }
func (f *fakeServiceManager) RestartUnit(ctx context.Context, name string) error { return nil }
func (f *fakeServiceManager) ReloadUnit(ctx context.Context, name string) error {
	f.reloaded = append(f.reloaded, name)
	return nil
}
func (f *fakeServiceManager) EnableUnit(ctx context.Context, name string) error  { return nil }
func (f *fakeServiceManager) DisableUnit(ctx context.Context, name string) error { return nil }
func (f *fakeServiceManager) DaemonReload(ctx context.Context) error             { return nil }
func (f *fakeServiceManager) IsActive(ctx context.Context, name string) (bool, error) {
	return false, nil
}

func TestNginxReload_ValidatesFirst(t *testing.T) {
	stubCommands(t, []byte("syntax is ok"), nil)

	services := &fakeServiceManager{}
	proxy := NewNginxManager(services)

	require.NoError(t, proxy.Reload(context.Background()))
	assert.Equal(t, []string{"nginx.service"}, services.reloaded)
}

func TestNginxReload_InvalidConfigBlocksReload(t *testing.T) {
	stubCommands(t, []byte("unexpected token"), errors.New("exit status 1"))

	services := &fakeServiceManager{}
	proxy := NewNginxManager(services)

	err := proxy.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected token")
	assert.Empty(t, services.reloaded, "an invalid configuration must never be reloaded")
}
