package session

import (
	"crypto/rsa"
	"crypto/tls"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// sessionCache lets the data connections resume the TLS session negotiated
// on the control connection. Some FTPS servers reject data connections that
// attempt a full handshake.
var sessionCache = tls.NewLRUClientSessionCache(64)

// TLSConfig builds the client TLS configuration for implicit FTPS using a
// PKCS#12 client certificate.
func TLSConfig(host, certPath, pfxPassword string) (*tls.Config, error) {
	cert, err := loadCertificate(certPath, pfxPassword)
	if err != nil {
		return nil, fmt.Errorf("loading TLS certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		// Shared-hosting FTPS endpoints commonly present self-signed
		// certificates.
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS12,
		ServerName:         host,
		ClientSessionCache: sessionCache,
	}, nil
}

func loadCertificate(certPath, pfxPassword string) (tls.Certificate, error) {
	if pfxPassword == "" {
		return tls.Certificate{}, errors.New("PFX password is required")
	}

	pfxData, err := os.ReadFile(certPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("reading PFX file %s: %w", certPath, err)
	}

	privateKey, cert, err := pkcs12.Decode(pfxData, pfxPassword)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decoding PFX file %s: %w", certPath, err)
	}

	rsaKey, ok := privateKey.(*rsa.PrivateKey)
	if !ok {
		return tls.Certificate{}, errors.New("private key is not RSA")
	}

	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  rsaKey,
		Leaf:        cert,
	}, nil
}
