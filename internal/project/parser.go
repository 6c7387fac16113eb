package project

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Descriptor files are flat KEY=VALUE declarations. Comments start with '#',
// blank lines and unknown keys are ignored, values may be single- or
// double-quoted. The key set is fixed by the external interface contract.
const (
	keyName           = "NAME"
	keyEnabled        = "ENABLED"
	keyDomain         = "DOMAIN"
	keyPort           = "PORT"
	keyUser           = "USER"
	keyExec           = "EXEC"
	keyHealthPath     = "HEALTH_PATH"
	keyHealthInterval = "HEALTH_INTERVAL"
	keyHealthTimeout  = "HEALTH_TIMEOUT"
	keyHealthRetries  = "HEALTH_RETRIES"
)

// ParseDescriptor parses descriptor file content. Defaults are not applied
// here; the store applies them after parsing so that parsing stays a pure
// representation of what the file declares.
func ParseDescriptor(content string) (*Descriptor, error) {
	desc := &Descriptor{}
	var health HealthCheck
	healthSeen := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: not a KEY=VALUE declaration: %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		switch key {
		case keyName:
			desc.Name = value
		case keyEnabled:
			enabled, err := parseBool(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", lineNo, keyEnabled, err)
			}
			desc.Enabled = enabled
		case keyDomain:
			desc.Domain = value
		case keyPort:
			port, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %q is not a number", lineNo, keyPort, value)
			}
			desc.Port = port
		case keyUser:
			desc.User = value
		case keyExec:
			desc.Exec = value
		case keyHealthPath:
			health.Path = value
			healthSeen = true
		case keyHealthInterval:
			d, err := parseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", lineNo, keyHealthInterval, err)
			}
			health.Interval = d
		case keyHealthTimeout:
			d, err := parseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", lineNo, keyHealthTimeout, err)
			}
			health.Timeout = d
		case keyHealthRetries:
			retries, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %q is not a number", lineNo, keyHealthRetries, value)
			}
			health.Retries = retries
		default:
			// Unknown keys are ignored per the descriptor contract.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// The probe path is what switches the watchdog on; tuning keys without
	// a path do nothing.
	if healthSeen {
		desc.Health = &health
	}

	return desc, nil
}

// FormatDescriptor renders a descriptor back into the KEY=VALUE file format.
// Only explicitly set fields are emitted; defaults are never persisted.
func FormatDescriptor(desc *Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s\n", keyName, desc.Name)
	fmt.Fprintf(&b, "%s=%s\n", keyEnabled, formatBool(desc.Enabled))
	if desc.Domain != "" {
		fmt.Fprintf(&b, "%s=%s\n", keyDomain, desc.Domain)
	}
	if desc.Port != 0 {
		fmt.Fprintf(&b, "%s=%d\n", keyPort, desc.Port)
	}
	if desc.User != "" {
		fmt.Fprintf(&b, "%s=%s\n", keyUser, desc.User)
	}
	if desc.Exec != "" {
		fmt.Fprintf(&b, "%s=%s\n", keyExec, desc.Exec)
	}
	if desc.Health != nil {
		fmt.Fprintf(&b, "%s=%s\n", keyHealthPath, desc.Health.Path)
		if desc.Health.Interval != 0 {
			fmt.Fprintf(&b, "%s=%s\n", keyHealthInterval, desc.Health.Interval)
		}
		if desc.Health.Timeout != 0 {
			fmt.Fprintf(&b, "%s=%s\n", keyHealthTimeout, desc.Health.Timeout)
		}
		if desc.Health.Retries != 0 {
			fmt.Fprintf(&b, "%s=%d\n", keyHealthRetries, desc.Health.Retries)
		}
	}
	return b.String()
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

var truthy = map[string]bool{
	"yes": true, "true": true, "on": true, "1": true,
	"no": false, "false": false, "off": false, "0": false,
}

func parseBool(value string) (bool, error) {
	b, ok := truthy[strings.ToLower(value)]
	if !ok {
		known := make([]string, 0, len(truthy))
		for k := range truthy {
			known = append(known, k)
		}
		sort.Strings(known)
		return false, fmt.Errorf("%q is not a boolean (one of: %s)", value, strings.Join(known, ", "))
	}
	return b, nil
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// parseDuration accepts Go duration syntax ("90s", "2m") and bare integers,
// which are read as seconds for compatibility with hand-written descriptors.
func parseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("duration %q must not be negative", value)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%q is not a duration", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", value)
	}
	return d, nil
}
