// Package tlsutil builds client-side tls.Config values for the transport
// layer. Client mTLS is the only mode this library needs: it dials out to
// a provider, it never terminates inbound connections.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/emberplus-go/goember/emberrors"
)

// ClientConfig describes the TLS settings for an outbound connection.
type ClientConfig struct {
	Enabled            bool
	MinVersion         string // "1.2" or "1.3", default "1.2"
	CAFiles            []string
	CertFile           string // client certificate, for mTLS
	KeyFile            string
	InsecureSkipVerify bool
	ServerName         string
}

// Build constructs a *tls.Config for cfg, or returns (nil, nil) when TLS
// is disabled. It always starts from the system CA pool; CAFiles are
// additional trusted roots, not a replacement for it.
func Build(cfg ClientConfig) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         parseVersion(cfg.MinVersion),
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		ServerName:         cfg.ServerName,
	}

	rootCAs, err := x509.SystemCertPool()
	if err != nil || rootCAs == nil {
		rootCAs = x509.NewCertPool()
	}
	for _, caFile := range cfg.CAFiles {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, emberrors.WrapFatal(err, "tlsutil", "Build", "read CA file "+caFile)
		}
		if !rootCAs.AppendCertsFromPEM(pem) {
			return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "tlsutil", "Build", "invalid PEM in "+caFile)
		}
	}
	tlsConfig.RootCAs = rootCAs

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, emberrors.WrapFatal(err, "tlsutil", "Build", "load client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func parseVersion(version string) uint16 {
	switch version {
	case "1.3":
		return tls.VersionTLS13
	case "1.2", "":
		return tls.VersionTLS12
	default:
		return tls.VersionTLS12
	}
}
