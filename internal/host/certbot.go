package host

import (
	"context"
	"fmt"
	"os"

	"steward/internal/config"
	"steward/internal/project"
	"steward/pkg/logging"
)

// CertbotIssuer is the production CertIssuer, shelling out to certbot in
// webroot mode. A certbot timer installed at host bootstrap handles renewal;
// steward only requests first issuance.
type CertbotIssuer struct {
	cfg config.Config
}

// NewCertbotIssuer creates a certbot-backed issuer.
func NewCertbotIssuer(cfg config.Config) *CertbotIssuer {
	return &CertbotIssuer{cfg: cfg}
}

// HasCertificate implements CertIssuer.
func (c *CertbotIssuer) HasCertificate(domain string) bool {
	_, err := os.Stat(project.CertFile(domain, c.cfg.Paths))
	return err == nil
}

// Issue implements CertIssuer. The context carries the issuance timeout; on
// failure or timeout the host keeps serving whatever was active before.
func (c *CertbotIssuer) Issue(ctx context.Context, domain, webroot string) error {
	args := []string{
		"certonly",
		"--webroot",
		"--webroot-path", webroot,
		"--domain", domain,
		"--non-interactive",
		"--agree-tos",
		"--keep-until-expiring",
	}
	if c.cfg.Email != "" {
		args = append(args, "--email", c.cfg.Email)
	} else {
		args = append(args, "--register-unsafely-without-email")
	}

	logging.Info("Certbot", "Requesting certificate for %s via webroot %s", domain, webroot)
	out, err := runCommand(ctx, "certbot", args...)
	if err != nil {
		return fmt.Errorf("certbot issuance for %s: %w: %s", domain, err, out)
	}
	return nil
}
