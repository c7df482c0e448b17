// Carga de certificado y llave para firmar el TRA: par PEM o archivo .p12.

package afip

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// Credentials certificado X.509 emitido por AFIP y su llave privada.
type Credentials struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.PrivateKey
}

// LoadCredentials carga el certificado. Si certPath termina en .p12/.pfx la llave
// se toma del mismo archivo (password puede ser vacío); en otro caso keyPath es PEM.
func LoadCredentials(certPath, keyPath, password string) (*Credentials, error) {
	lower := strings.ToLower(certPath)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		return loadFromP12(certPath, password)
	}
	return loadFromPEM(certPath, keyPath)
}

func loadFromP12(path, password string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("decodificar p12: %w", err)
	}
	return &Credentials{Certificate: cert, PrivateKey: priv}, nil
}

func loadFromPEM(certPath, keyPath string) (*Credentials, error) {
	if keyPath == "" {
		// un solo archivo puede contener cert+key
		keyPath = certPath
	}
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("cargar certificado AFIP: %w", err)
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parsear certificado AFIP: %w", err)
	}
	return &Credentials{Certificate: leaf, PrivateKey: pair.PrivateKey}, nil
}
