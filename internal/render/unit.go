package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"steward/internal/config"
	"steward/internal/project"

	"github.com/coreos/go-systemd/v22/unit"
)

// Unit renders the supervised-process unit for a project. The unit runs as
// the project's derived identity inside a locked-down sandbox whose writable
// scope is limited to the project's own app and log directories.
func Unit(desc *project.Descriptor, cfg config.Config) ([]byte, error) {
	paths := project.DerivePaths(desc.Name, cfg.Paths)

	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", fmt.Sprintf("steward managed service %s", desc.Name)),
		unit.NewUnitOption("Unit", "After", "network.target"),

		unit.NewUnitOption("Service", "Type", "simple"),
		unit.NewUnitOption("Service", "User", desc.User),
		unit.NewUnitOption("Service", "Group", desc.User),
		unit.NewUnitOption("Service", "WorkingDirectory", paths.CurrentDir),
		// Leading '-' tolerates an absent secrets file.
		unit.NewUnitOption("Service", "EnvironmentFile", "-"+paths.EnvFile),
		unit.NewUnitOption("Service", "ExecStart", desc.Exec),
		unit.NewUnitOption("Service", "Restart", "always"),
		unit.NewUnitOption("Service", "RestartSec", "5"),

		// Execution sandbox: no privilege escalation, private temp, read-only
		// system with writes confined to the project's own directories.
		unit.NewUnitOption("Service", "NoNewPrivileges", "yes"),
		unit.NewUnitOption("Service", "PrivateTmp", "yes"),
		unit.NewUnitOption("Service", "ProtectSystem", "strict"),
		unit.NewUnitOption("Service", "ReadWritePaths", paths.Home+" "+paths.LogDir),
		unit.NewUnitOption("Service", "CapabilityBoundingSet", ""),
		unit.NewUnitOption("Service", "AmbientCapabilities", ""),

		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	}

	return io.ReadAll(unit.Serialize(opts))
}

// ProbeService renders the oneshot unit the health timer triggers. It invokes
// the steward binary itself, so the probe logic and the reconciler share one
// implementation.
func ProbeService(desc *project.Descriptor, cfg config.Config) ([]byte, error) {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", fmt.Sprintf("steward health probe for %s", desc.Name)),
		unit.NewUnitOption("Unit", "After", desc.Name+".service"),

		unit.NewUnitOption("Service", "Type", "oneshot"),
		unit.NewUnitOption("Service", "ExecStart", fmt.Sprintf("%s probe %s", cfg.Paths.BinPath, desc.Name)),
	}

	return io.ReadAll(unit.Serialize(opts))
}

// ProbeTimer renders the recurring timer driving the health probe. Startup
// jitter is bounded so a host full of projects does not probe in lockstep.
func ProbeTimer(desc *project.Descriptor, cfg config.Config) ([]byte, error) {
	interval := project.DefaultHealthInterval
	if desc.Health != nil && desc.Health.Interval > 0 {
		interval = desc.Health.Interval
	}

	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", fmt.Sprintf("steward health probe timer for %s", desc.Name)),

		unit.NewUnitOption("Timer", "OnBootSec", "1min"),
		unit.NewUnitOption("Timer", "OnUnitActiveSec", formatTimerSpan(interval)),
		unit.NewUnitOption("Timer", "RandomizedDelaySec", formatTimerSpan(probeJitter(interval))),
		unit.NewUnitOption("Timer", "Persistent", "false"),

		unit.NewUnitOption("Install", "WantedBy", "timers.target"),
	}

	return io.ReadAll(unit.Serialize(opts))
}

// probeJitter bounds the timer's randomized delay: a sixth of the interval,
// clamped to [1s, 30s].
func probeJitter(interval time.Duration) time.Duration {
	jitter := interval / 6
	if jitter > 30*time.Second {
		jitter = 30 * time.Second
	}
	if jitter < time.Second {
		jitter = time.Second
	}
	return jitter
}

// formatTimerSpan renders a duration in systemd timer span syntax.
func formatTimerSpan(d time.Duration) string {
	s := d.String()
	// systemd accepts Go-style "1m30s" spans, but whole seconds read better
	// in rendered units.
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return strings.ReplaceAll(s, "µ", "u")
}
