// Package tls provides the certificates of the HTTPS listener: a fixed
// key pair, or certificates issued on demand through ACME for the admin
// hosts and every active tenant hostname.
package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/acme/autocert"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/pkg/logger"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// HostResolver reports whether a hostname belongs to an active tenant.
type HostResolver interface {
	ResolveHost(ctx context.Context, host string) (*models.Site, error)
}

// Config holds TLS configuration.
type Config struct {
	AutoCert   bool
	CertDir    string
	Email      string // Email for Let's Encrypt registration
	CertFile   string
	KeyFile    string
	AdminHosts []string // exact admin hostnames allowed a certificate
}

// Manager handles TLS certificate management.
type Manager struct {
	config      Config
	sites       HostResolver
	autocertMgr *autocert.Manager
	tlsConfig   *tls.Config
}

// NewManager creates a new TLS manager. sites is consulted before a
// certificate is requested for a hostname that is not an admin host.
func NewManager(cfg Config, sites HostResolver) (*Manager, error) {
	m := &Manager{
		config: cfg,
		sites:  sites,
	}

	if cfg.AutoCert {
		m.autocertMgr = &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: m.HostPolicy,
			Cache:      autocert.DirCache(cfg.CertDir),
			Email:      cfg.Email,
		}

		m.tlsConfig = m.autocertMgr.TLSConfig()
		m.tlsConfig.MinVersion = tls.VersionTLS12
	} else if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load certificates: %w", err)
		}

		m.tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	return m, nil
}

// HostPolicy allows admin hosts and the hostnames of active tenants.
// Certificates of deactivated tenants are not renewed.
func (m *Manager) HostPolicy(ctx context.Context, host string) error {
	host = utils.NormalizeHost(host, false)
	for _, admin := range m.config.AdminHosts {
		if strings.EqualFold(strings.TrimSpace(admin), host) {
			return nil
		}
	}

	if m.sites == nil {
		return fmt.Errorf("acme/autocert: host %q not configured", host)
	}
	if _, err := m.sites.ResolveHost(ctx, host); err != nil {
		logger.DebugEvent().
			Err(err).
			Str("host", host).
			Msg("Refusing certificate for unknown host")
		return fmt.Errorf("acme/autocert: host %q not configured", host)
	}
	return nil
}

// GetTLSConfig returns the TLS configuration.
func (m *Manager) GetTLSConfig() *tls.Config {
	return m.tlsConfig
}

// HTTPHandler answers ACME HTTP-01 challenges and passes everything else
// to fallback. Without autocert it returns fallback unchanged.
func (m *Manager) HTTPHandler(fallback http.Handler) http.Handler {
	if m.autocertMgr == nil {
		return fallback
	}
	return m.autocertMgr.HTTPHandler(fallback)
}

// IsEnabled returns whether TLS is enabled.
func (m *Manager) IsEnabled() bool {
	return m.tlsConfig != nil
}
