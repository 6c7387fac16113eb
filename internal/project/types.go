package project

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// namePattern constrains project names. The name uniquely determines every
// derived resource path, so it has to stay filesystem- and unit-name-safe.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// reservedSuffixes are name endings claimed by derived artifact names. A
// project "app" owns app-maintenance.conf and app-health.service, so a
// sibling project "app-maintenance" or "app-health" would write the same
// files and the two would overwrite each other.
var reservedSuffixes = []string{"-maintenance", "-health"}

// CheckName validates a project name, naming the violated rule on failure.
func CheckName(name string) error {
	if !namePattern.MatchString(name) {
		return &InvalidDescriptorError{Project: name, Field: "NAME",
			Reason: "must match ^[a-z0-9][a-z0-9_-]*$"}
	}
	for _, suffix := range reservedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return &InvalidDescriptorError{Project: name, Field: "NAME",
				Reason: fmt.Sprintf("suffix %q is reserved for derived resource names", suffix)}
		}
	}
	return nil
}

// ValidName reports whether name is an acceptable project identity.
func ValidName(name string) bool {
	return CheckName(name) == nil
}

// HealthCheck is the optional per-project health probe specification.
type HealthCheck struct {
	// Path is probed on the loopback service port.
	Path string

	// Interval between scheduled probe runs.
	Interval time.Duration

	// Timeout bounds a single probe attempt.
	Timeout time.Duration

	// Retries is the number of failed attempts before the supervised
	// process is restarted.
	Retries int
}

// Descriptor is the declarative record of one project's desired state.
// It is parsed from a descriptor file; defaults are applied at load time
// and never persisted back.
type Descriptor struct {
	// Name is the unique, immutable project identity.
	Name string

	// Enabled selects whether the project serves real traffic (normal site,
	// running process) or sits in maintenance mode.
	Enabled bool

	// Domain is the optional public hostname. A project without a domain
	// never gets a certificate or an HTTPS site.
	Domain string

	// Port is the loopback port the service listens on. Required when the
	// project is enabled or has a domain.
	Port int

	// User is the system identity the process runs as. Defaults to
	// "svc-<name>".
	User string

	// Exec is the absolute path of the supervised executable. Defaults to
	// "<apps>/<name>/current/run".
	Exec string

	// Health, when present, enables the recurring probe watchdog.
	Health *HealthCheck
}

// HasDomain reports whether the project declares a public hostname.
func (d *Descriptor) HasDomain() bool {
	return d.Domain != ""
}

// String identifies the descriptor in log output.
func (d *Descriptor) String() string {
	return fmt.Sprintf("project %s (enabled=%t, domain=%q, port=%d)", d.Name, d.Enabled, d.Domain, d.Port)
}

// Default health probe parameters, applied when the descriptor declares a
// probe path but omits tuning fields.
const (
	DefaultHealthInterval = 60 * time.Second
	DefaultHealthTimeout  = 5 * time.Second
	DefaultHealthRetries  = 3
)
