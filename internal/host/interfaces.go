// Package host holds the collaborator interfaces the reconciler drives —
// the process supervisor, the system user database, the certificate
// authority client and the reverse proxy — together with their production
// implementations. The reconciler only ever talks to the interfaces, so
// tests substitute fakes without touching the host.
package host

import "context"

// ServiceManager controls supervised-process units.
type ServiceManager interface {
	// StartUnit starts a unit and waits for the job to complete.
	StartUnit(ctx context.Context, name string) error

	// StopUnit stops a unit. Stopping an inactive unit is not an error.
	StopUnit(ctx context.Context, name string) error

	// RestartUnit restarts a unit, starting it if it was not running.
	RestartUnit(ctx context.Context, name string) error

	// ReloadUnit asks a unit to reload its configuration.
	ReloadUnit(ctx context.Context, name string) error

	// EnableUnit enables a unit for automatic start.
	EnableUnit(ctx context.Context, name string) error

	// DisableUnit disables a unit. Disabling a non-enabled unit is not an error.
	DisableUnit(ctx context.Context, name string) error

	// DaemonReload makes the supervisor re-read installed unit files.
	DaemonReload(ctx context.Context) error

	// IsActive reports whether a unit is currently running.
	IsActive(ctx context.Context, name string) (bool, error)
}

// UserManager manages per-project system identities.
type UserManager interface {
	// EnsureUser creates the system account bound to home if it does not
	// already exist.
	EnsureUser(ctx context.Context, username, home string) error

	// RemoveUser deletes the system account. Removing an absent account is
	// not an error.
	RemoveUser(ctx context.Context, username string) error

	// Own transfers ownership of a path to the account.
	Own(path, username string) error
}

// CertIssuer is the certificate authority client.
type CertIssuer interface {
	// HasCertificate reports whether a live certificate exists for the domain.
	HasCertificate(domain string) bool

	// Issue requests a certificate for the domain using the challenge
	// webroot. Failure is recoverable: the caller continues in HTTP-only
	// mode and retries on the next apply.
	Issue(ctx context.Context, domain, webroot string) error
}

// ProxyManager controls the reverse proxy.
type ProxyManager interface {
	// Validate checks the proxy's full configuration. It must be called
	// before every Reload; an invalid site file must never be activated.
	Validate(ctx context.Context) error

	// Reload applies the active configuration without dropping connections.
	Reload(ctx context.Context) error
}
