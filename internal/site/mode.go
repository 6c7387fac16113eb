// Package site tracks and transitions a project's reverse-proxy site mode.
// The mode is derived from filesystem presence on every run rather than
// persisted, so it can never drift from what the proxy actually serves.
package site

// Mode is the current site mode of one project.
type Mode int

const (
	// Uninitialized: no site is linked into the active set.
	Uninitialized Mode = iota
	// ProvisioningHTTP: the normal slot is active but no certificate exists
	// yet, so the slot holds the HTTP-only provisioning rendering.
	ProvisioningHTTP
	// Normal: the normal slot is active and terminates TLS.
	Normal
	// Maintenance: the maintenance variant is active.
	Maintenance
)

// String makes Mode satisfy the fmt.Stringer interface.
func (m Mode) String() string {
	switch m {
	case Uninitialized:
		return "uninitialized"
	case ProvisioningHTTP:
		return "provisioning-http"
	case Normal:
		return "normal"
	case Maintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}
