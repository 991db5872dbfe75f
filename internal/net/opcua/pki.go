package opcua

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	CERT_FILE = "server.crt"
	KEY_FILE  = "server.key"

	certValidity = 10 * 365 * 24 * time.Hour
)

// EnsureCertificate returns the server certificate and key paths under dir,
// generating a self-signed pair first when either file is missing.
func EnsureCertificate(dir, applicationURI, host string) (certPath, keyPath string, created bool, err error) {
	certPath = filepath.Join(dir, CERT_FILE)
	keyPath = filepath.Join(dir, KEY_FILE)

	if fileExists(certPath) && fileExists(keyPath) {
		return certPath, keyPath, false, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", false, errors.Wrapf(err, "creating pki dir %s", dir)
	}

	certPEM, keyPEM, err := selfSigned(applicationURI, host)
	if err != nil {
		return "", "", false, err
	}
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return "", "", false, errors.Wrap(err, "writing certificate")
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return "", "", false, errors.Wrap(err, "writing private key")
	}
	return certPath, keyPath, true, nil
}

func selfSigned(applicationURI, host string) (certPEM, keyPEM []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, errors.Wrap(err, "generating key")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, errors.Wrap(err, "generating serial")
	}

	uri, err := url.Parse(applicationURI)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing application uri %q", applicationURI)
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "sawmill", Organization: []string{"Sawmill"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageDataEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		URIs:                  []*url.URL{uri},
	}
	if ip := net.ParseIP(host); ip != nil {
		tmpl.IPAddresses = []net.IP{ip}
	} else if host != "" {
		tmpl.DNSNames = []string{host}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating certificate")
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
