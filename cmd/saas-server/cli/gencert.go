package cli

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	certOutput    string
	keyOutput     string
	certHosts     []string
	certWildcards []string
	certValidDays int
)

func init() {
	gencertCmd.Flags().StringVar(&certOutput, "cert", "certs/server.crt", "output path for certificate")
	gencertCmd.Flags().StringVarP(&keyOutput, "key", "k", "certs/server.key", "output path for private key")
	gencertCmd.Flags().StringSliceVarP(&certHosts, "host", "H", []string{"localhost"}, "hostnames or IP addresses the certificate covers")
	gencertCmd.Flags().StringSliceVarP(&certWildcards, "wildcard", "w", nil, "root domains whose tenant subdomains the certificate covers")
	gencertCmd.Flags().IntVarP(&certValidDays, "days", "d", 365, "certificate validity in days")

	rootCmd.AddCommand(gencertCmd)
}

var gencertCmd = &cobra.Command{
	Use:   "gencert",
	Short: "Generate a self-signed certificate for local HTTPS",
	Long: `Generate a self-signed certificate and private key for the HTTPS
listener. Every --wildcard root domain is added together with its
*.domain name so tenant subdomains are covered. Use tls.auto_cert in
production.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return generateCertificate(cmd.OutOrStdout(), certOutput, keyOutput, certHosts, certWildcards, certValidDays)
	},
}

func generateCertificate(out io.Writer, certPath, keyPath string, hosts, wildcards []string, days int) error {
	if len(hosts) == 0 && len(wildcards) == 0 {
		return fmt.Errorf("at least one host is required")
	}
	if days <= 0 {
		return fmt.Errorf("days must be positive")
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"saas-server development"},
			CommonName:   commonName(hosts, wildcards),
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(time.Duration(days) * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
			continue
		}
		template.DNSNames = append(template.DNSNames, h)
	}
	for _, d := range wildcards {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "*.")
		if d == "" {
			continue
		}
		template.DNSNames = append(template.DNSNames, d, "*."+d)
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	keyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to encode private key: %w", err)
	}

	if err := writePEM(certPath, 0o644, &pem.Block{Type: "CERTIFICATE", Bytes: certBytes}); err != nil {
		return err
	}
	if err := writePEM(keyPath, 0o600, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Certificate generated for %s\n\n", strings.Join(append(template.DNSNames, ipStrings(template.IPAddresses)...), ", "))
	fmt.Fprintf(out, "Server configuration:\n")
	fmt.Fprintf(out, "  tls:\n")
	fmt.Fprintf(out, "    cert_file: %s\n", certPath)
	fmt.Fprintf(out, "    key_file: %s\n", keyPath)
	return nil
}

func commonName(hosts, wildcards []string) string {
	if len(hosts) > 0 {
		return hosts[0]
	}
	return wildcards[0]
}

func writePEM(path string, perm os.FileMode, block *pem.Block) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := pem.Encode(f, block); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func ipStrings(ips []net.IP) []string {
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out
}
