// Package status persists per-project degraded-condition records. A project
// serving HTTP-only after a failed certificate issuance, or restarted by the
// health watchdog, leaves a queryable record here instead of only a one-time
// log line.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"steward/internal/config"

	"github.com/google/uuid"
)

// Kind classifies a degraded condition.
type Kind string

const (
	// KindIssuanceFailed: certificate issuance failed and the project is
	// serving HTTP-only.
	KindIssuanceFailed Kind = "issuance-failed"
	// KindProbeRestart: the health watchdog exhausted its retries and
	// restarted the supervised process.
	KindProbeRestart Kind = "probe-restart"
)

// Record is one degraded-condition diagnostic record.
type Record struct {
	ID      string    `json:"id"`
	Project string    `json:"project"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Recorder reads and writes status records under the state directory.
type Recorder struct {
	dir string
}

// NewRecorder creates a Recorder over <state dir>/status.
func NewRecorder(cfg config.Config) *Recorder {
	return &Recorder{dir: filepath.Join(cfg.Paths.StateDir, "status")}
}

func (r *Recorder) path(project string) string {
	return filepath.Join(r.dir, project+".json")
}

// Record writes a degraded-condition record for a project, replacing any
// previous record. The returned ID identifies the record in log output.
func (r *Recorder) Record(project string, kind Kind, message string) (string, error) {
	record := Record{
		ID:      uuid.NewString(),
		Project: project,
		Kind:    kind,
		Message: message,
		Time:    time.Now().UTC(),
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating status directory: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(r.path(project), data, 0o644); err != nil {
		return "", fmt.Errorf("writing status record for %s: %w", project, err)
	}
	return record.ID, nil
}

// Get returns the project's current degraded record, or nil when the project
// is healthy.
func (r *Recorder) Get(project string) (*Record, error) {
	data, err := os.ReadFile(r.path(project))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading status record for %s: %w", project, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing status record for %s: %w", project, err)
	}
	return &record, nil
}

// ClearKind removes the project's degraded record only if it is of the given
// kind. A record of another kind describes a different condition and stays.
func (r *Recorder) ClearKind(project string, kind Kind) error {
	record, err := r.Get(project)
	if err != nil {
		return err
	}
	if record == nil || record.Kind != kind {
		return nil
	}
	return r.Clear(project)
}

// Clear removes the project's degraded record. Clearing an absent record is
// not an error.
func (r *Recorder) Clear(project string) error {
	if err := os.Remove(r.path(project)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing status record for %s: %w", project, err)
	}
	return nil
}
