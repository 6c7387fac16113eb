package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor_FullDeclaration(t *testing.T) {
	content := `
# myapp production descriptor
NAME=myapp
ENABLED=yes
DOMAIN=myapp.example.com
PORT=18080
USER=svc-myapp
EXEC=/srv/apps/myapp/current/run
HEALTH_PATH=/healthz
HEALTH_INTERVAL=30
HEALTH_TIMEOUT=5s
HEALTH_RETRIES=4
`
	desc, err := ParseDescriptor(content)
	require.NoError(t, err)

	assert.Equal(t, "myapp", desc.Name)
	assert.True(t, desc.Enabled)
	assert.Equal(t, "myapp.example.com", desc.Domain)
	assert.Equal(t, 18080, desc.Port)
	assert.Equal(t, "svc-myapp", desc.User)
	assert.Equal(t, "/srv/apps/myapp/current/run", desc.Exec)

	require.NotNil(t, desc.Health)
	assert.Equal(t, "/healthz", desc.Health.Path)
	assert.Equal(t, 30*time.Second, desc.Health.Interval)
	assert.Equal(t, 5*time.Second, desc.Health.Timeout)
	assert.Equal(t, 4, desc.Health.Retries)
}

func TestParseDescriptor_UnknownKeysIgnored(t *testing.T) {
	desc, err := ParseDescriptor("NAME=app\nENABLED=no\nSOME_FUTURE_KEY=whatever\n")
	require.NoError(t, err)
	assert.Equal(t, "app", desc.Name)
	assert.False(t, desc.Enabled)
}

func TestParseDescriptor_QuotedValues(t *testing.T) {
	desc, err := ParseDescriptor(`DOMAIN="app.example.com"` + "\n" + `USER='svc-app'` + "\n")
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", desc.Domain)
	assert.Equal(t, "svc-app", desc.User)
}

func TestParseDescriptor_BooleanSpellings(t *testing.T) {
	for value, want := range map[string]bool{
		"yes": true, "Yes": true, "true": true, "1": true, "on": true,
		"no": false, "false": false, "0": false, "off": false,
	} {
		desc, err := ParseDescriptor("ENABLED=" + value + "\n")
		require.NoError(t, err, "value %q", value)
		assert.Equal(t, want, desc.Enabled, "value %q", value)
	}

	_, err := ParseDescriptor("ENABLED=maybe\n")
	assert.Error(t, err)
}

func TestParseDescriptor_NoHealthWithoutPath(t *testing.T) {
	// Tuning keys without HEALTH_PATH do not switch the watchdog on.
	desc, err := ParseDescriptor("NAME=app\nHEALTH_INTERVAL=10\n")
	require.NoError(t, err)
	assert.Nil(t, desc.Health)
}

func TestParseDescriptor_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing equals": "NAME myapp\n",
		"bad port":       "PORT=eighty\n",
		"bad retries":    "HEALTH_PATH=/h\nHEALTH_RETRIES=lots\n",
		"bad interval":   "HEALTH_PATH=/h\nHEALTH_INTERVAL=soon\n",
		"negative":       "HEALTH_PATH=/h\nHEALTH_TIMEOUT=-5s\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDescriptor(content)
			assert.Error(t, err)
		})
	}
}

func TestFormatDescriptor_RoundTrip(t *testing.T) {
	desc := &Descriptor{
		Name:    "myapp",
		Enabled: true,
		Domain:  "myapp.example.com",
		Port:    18080,
		Health: &HealthCheck{
			Path:     "/healthz",
			Interval: 45 * time.Second,
			Timeout:  3 * time.Second,
			Retries:  2,
		},
	}

	parsed, err := ParseDescriptor(FormatDescriptor(desc))
	require.NoError(t, err)
	assert.Equal(t, desc, parsed)
}
