package render

import (
	"steward/internal/config"
	"steward/internal/project"
)

// Identity is the desired system identity for a project's supervised process.
type Identity struct {
	// Username is the system account name.
	Username string
	// Home is the account's home directory, the project's application root.
	Home string
}

// IdentityFor derives the system identity from a descriptor. The username
// defaults to svc-<name> at descriptor load time, so by the time a writer
// sees the descriptor the field is always populated.
func IdentityFor(desc *project.Descriptor, cfg config.Config) Identity {
	return Identity{
		Username: desc.User,
		Home:     project.DerivePaths(desc.Name, cfg.Paths).Home,
	}
}
