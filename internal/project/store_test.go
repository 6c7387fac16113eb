package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"steward/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	cfg := config.GetDefaultConfig()
	dir := t.TempDir()
	cfg.Paths.ProjectsDir = dir
	return NewStore(cfg), dir
}

func writeDescriptor(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".conf"), []byte(content), 0o644))
}

func TestStoreNames_SortedAndFiltered(t *testing.T) {
	store, dir := testStore(t)
	writeDescriptor(t, dir, "zeta", "ENABLED=no\n")
	writeDescriptor(t, dir, "alpha", "ENABLED=no\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a project"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.conf"), 0o755))

	names, err := store.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestStoreNames_MissingDirIsEmpty(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Paths.ProjectsDir = filepath.Join(t.TempDir(), "nope")
	store := NewStore(cfg)

	names, err := store.Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStoreLoad_AppliesDefaults(t *testing.T) {
	store, dir := testStore(t)
	writeDescriptor(t, dir, "myapp", "ENABLED=yes\nPORT=18080\nHEALTH_PATH=/healthz\n")

	desc, err := store.Load("myapp")
	require.NoError(t, err)

	assert.Equal(t, "myapp", desc.Name)
	assert.Equal(t, "svc-myapp", desc.User)
	assert.Equal(t, "/srv/apps/myapp/current/run", desc.Exec)
	require.NotNil(t, desc.Health)
	assert.Equal(t, DefaultHealthInterval, desc.Health.Interval)
	assert.Equal(t, DefaultHealthTimeout, desc.Health.Timeout)
	assert.Equal(t, DefaultHealthRetries, desc.Health.Retries)
}

func TestStoreLoad_DefaultsNotPersisted(t *testing.T) {
	store, dir := testStore(t)
	content := "ENABLED=yes\nPORT=18080\n"
	writeDescriptor(t, dir, "myapp", content)

	_, err := store.Load("myapp")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "myapp.conf"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestStoreLoad_NotFound(t *testing.T) {
	store, _ := testStore(t)

	_, err := store.Load("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, &NotFoundError{}))
}

func TestStoreLoad_Invalid(t *testing.T) {
	store, dir := testStore(t)

	cases := map[string]struct {
		name    string
		content string
		field   string
	}{
		"enabled without port":  {"app1", "ENABLED=yes\n", "PORT"},
		"domain without port":   {"app2", "DOMAIN=app2.example.com\n", "PORT"},
		"relative exec":         {"app3", "PORT=80\nEXEC=bin/run\n", "EXEC"},
		"name mismatch":         {"app4", "NAME=other\nPORT=80\n", "NAME"},
		"health path no slash":  {"app5", "PORT=80\nHEALTH_PATH=healthz\n", "HEALTH_PATH"},
		"zero retries rejected": {"app6", "PORT=80\nHEALTH_PATH=/h\nHEALTH_RETRIES=-1\n", "HEALTH_RETRIES"},
	}
	for label, tc := range cases {
		t.Run(label, func(t *testing.T) {
			writeDescriptor(t, dir, tc.name, tc.content)
			_, err := store.Load(tc.name)
			require.Error(t, err)

			var invalid *InvalidDescriptorError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestStoreLoad_RejectsBadName(t *testing.T) {
	store, _ := testStore(t)

	for _, name := range []string{"MyApp", "-app", "app!", ""} {
		_, err := store.Load(name)
		assert.True(t, errors.Is(err, &InvalidDescriptorError{}), "name %q", name)
	}
}

// A project "app" derives app-maintenance.conf and app-health.service, so
// names carrying those suffixes would write the same files as a sibling
// project and must be rejected everywhere a name enters the system.
func TestStoreRejectsReservedSuffixes(t *testing.T) {
	store, dir := testStore(t)

	for _, name := range []string{"app-maintenance", "app-health"} {
		_, err := store.Load(name)
		var invalid *InvalidDescriptorError
		require.True(t, errors.As(err, &invalid), "load %q", name)
		assert.Equal(t, "NAME", invalid.Field)
		assert.Contains(t, invalid.Reason, "reserved")

		err = store.Save(&Descriptor{Name: name, Enabled: true, Port: 18080}, false)
		assert.True(t, errors.As(err, &invalid), "save %q", name)

		// Even a descriptor dropped into the directory by hand stays invisible.
		writeDescriptor(t, dir, name, "PORT=18080\n")
		descriptors, listErr := store.List()
		require.NoError(t, listErr)
		assert.Empty(t, descriptors)
		require.NoError(t, os.Remove(filepath.Join(dir, name+".conf")))
	}

	// The suffix check is an exact-suffix match, not a substring one.
	assert.NoError(t, CheckName("healthcheck"))
	assert.NoError(t, CheckName("maintenance-tool"))
}

func TestStoreList_SkipsInvalid(t *testing.T) {
	store, dir := testStore(t)
	writeDescriptor(t, dir, "good", "ENABLED=yes\nPORT=8080\n")
	writeDescriptor(t, dir, "broken", "ENABLED=yes\n") // missing PORT

	descriptors, err := store.List()
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "good", descriptors[0].Name)
}

func TestStoreSave_RefusesOverwrite(t *testing.T) {
	store, _ := testStore(t)
	desc := &Descriptor{Name: "myapp", Enabled: true, Port: 18080}

	require.NoError(t, store.Save(desc, false))
	err := store.Save(desc, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, store.Save(desc, true))
}

func TestStoreRemove_AbsentIsNoError(t *testing.T) {
	store, _ := testStore(t)
	assert.NoError(t, store.Remove("never-existed"))
}
