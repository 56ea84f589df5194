// Package pemfile manages the SSH host key of the server.
package pemfile

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	gossh "golang.org/x/crypto/ssh"
)

const keyBits = 3072

type KeyParams struct {
	KeyPath       string
	SSHPubKeyPath string
}

// Generate writes a new RSA private key to KeyPath and its authorized_keys
// form to SSHPubKeyPath, if set.
func (k KeyParams) Generate() error {
	privateKey, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(k.KeyPath), 0700); err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(k.KeyPath, pem.EncodeToMemory(
		&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
		}),
		0600,
	); err != nil {
		return errors.WithStack(err)
	}

	if k.SSHPubKeyPath == "" {
		return nil
	}
	pub, err := gossh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(k.SSHPubKeyPath, gossh.MarshalAuthorizedKey(pub), 0600))
}

// Ensure generates the key pair unless KeyPath exists, and returns the PEM
// bytes of the private key along with a signer for it.
func (k KeyParams) Ensure() ([]byte, gossh.Signer, error) {
	if _, err := os.Stat(k.KeyPath); os.IsNotExist(err) {
		if err := k.Generate(); err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	pemBytes, err := os.ReadFile(k.KeyPath)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	signer, err := gossh.ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing %q", k.KeyPath)
	}
	return pemBytes, signer, nil
}
