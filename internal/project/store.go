package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"steward/internal/config"
	"steward/pkg/logging"
)

const descriptorSuffix = ".conf"

// Store loads and validates project descriptors from the projects directory.
// Reads never mutate the backing files; defaults are applied in memory only.
type Store struct {
	dir   string
	paths config.Paths
}

// NewStore creates a descriptor store over the configured projects directory.
func NewStore(cfg config.Config) *Store {
	return &Store{
		dir:   cfg.Paths.ProjectsDir,
		paths: cfg.Paths,
	}
}

// Names returns all project names with a descriptor file, lexically sorted.
// A missing projects directory is treated as an empty host.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading projects directory %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), descriptorSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), descriptorSuffix))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads, parses, defaults and validates one project descriptor.
func (s *Store) Load(name string) (*Descriptor, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, name+descriptorSuffix)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Project: name}
		}
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}

	desc, err := ParseDescriptor(string(data))
	if err != nil {
		return nil, &InvalidDescriptorError{Project: name, Field: "(file)", Reason: err.Error()}
	}

	// The file name is authoritative; a NAME field, when present, must agree
	// with it so descriptors cannot silently shadow each other.
	if desc.Name == "" {
		desc.Name = name
	} else if desc.Name != name {
		return nil, &InvalidDescriptorError{Project: name, Field: "NAME",
			Reason: fmt.Sprintf("descriptor declares NAME=%s but lives in %s%s", desc.Name, name, descriptorSuffix)}
	}

	s.applyDefaults(desc)

	if err := Validate(desc); err != nil {
		return nil, err
	}
	return desc, nil
}

// List loads every valid descriptor, lexically ordered by name. Invalid
// descriptors are logged and skipped so one broken file never hides the rest
// of the host from read-only commands.
func (s *Store) List() ([]*Descriptor, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}

	descriptors := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		desc, err := s.Load(name)
		if err != nil {
			logging.Warn("DescriptorStore", "Skipping project %s: %v", name, err)
			continue
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

// Save persists a descriptor file for an operator-created project. It refuses
// to overwrite an existing descriptor unless overwrite is set: names are
// immutable, so replacing a descriptor is an explicit operator decision.
func (s *Store) Save(desc *Descriptor, overwrite bool) error {
	if err := Validate(desc); err != nil {
		return err
	}

	path := filepath.Join(s.dir, desc.Name+descriptorSuffix)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("descriptor for project %s already exists at %s", desc.Name, path)
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating projects directory %s: %w", s.dir, err)
	}
	if err := os.WriteFile(path, []byte(FormatDescriptor(desc)), 0o644); err != nil {
		return fmt.Errorf("writing descriptor %s: %w", path, err)
	}
	logging.Info("DescriptorStore", "Saved descriptor for project %s", desc.Name)
	return nil
}

// Remove deletes a project's descriptor file. Removing an absent descriptor
// is not an error.
func (s *Store) Remove(name string) error {
	path := filepath.Join(s.dir, name+descriptorSuffix)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing descriptor %s: %w", path, err)
	}
	return nil
}

// ApplyDefaults fills derived fields on an operator-constructed descriptor,
// the same way Load defaults fields left out of the file.
func (s *Store) ApplyDefaults(desc *Descriptor) {
	s.applyDefaults(desc)
}

// applyDefaults fills derived fields the descriptor leaves unset. Pure
// in-memory defaulting; the file is never written back.
func (s *Store) applyDefaults(desc *Descriptor) {
	if desc.User == "" {
		desc.User = "svc-" + desc.Name
	}
	if desc.Exec == "" {
		desc.Exec = filepath.Join(s.paths.AppsDir, desc.Name, "current", "run")
	}
	if desc.Health != nil {
		if desc.Health.Interval == 0 {
			desc.Health.Interval = DefaultHealthInterval
		}
		if desc.Health.Timeout == 0 {
			desc.Health.Timeout = DefaultHealthTimeout
		}
		if desc.Health.Retries == 0 {
			desc.Health.Retries = DefaultHealthRetries
		}
	}
}

// Validate checks descriptor invariants after defaulting.
func Validate(desc *Descriptor) error {
	if err := CheckName(desc.Name); err != nil {
		return err
	}
	if desc.Port < 0 || desc.Port > 65535 {
		return &InvalidDescriptorError{Project: desc.Name, Field: "PORT",
			Reason: fmt.Sprintf("%d is not a valid port", desc.Port)}
	}
	if desc.Port == 0 && (desc.Enabled || desc.HasDomain()) {
		return &InvalidDescriptorError{Project: desc.Name, Field: "PORT",
			Reason: "required when ENABLED=yes or DOMAIN is set"}
	}
	if desc.Exec != "" && !filepath.IsAbs(desc.Exec) {
		return &InvalidDescriptorError{Project: desc.Name, Field: "EXEC",
			Reason: fmt.Sprintf("%q is not an absolute path", desc.Exec)}
	}
	if desc.Health != nil {
		if !strings.HasPrefix(desc.Health.Path, "/") {
			return &InvalidDescriptorError{Project: desc.Name, Field: "HEALTH_PATH",
				Reason: fmt.Sprintf("%q must start with /", desc.Health.Path)}
		}
		if desc.Health.Retries < 1 {
			return &InvalidDescriptorError{Project: desc.Name, Field: "HEALTH_RETRIES",
				Reason: "must be at least 1"}
		}
	}
	return nil
}
