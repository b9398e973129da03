package app

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/cuttlefish/cuttlefish/internal/utils"
)

const (
	smtpPasswordLength   = 20
	smtpPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	dkimKeyBits = 2048
)

// GenerateSmtpPassword produces the app's SMTP password from a
// cryptographically strong source. Called exactly once at app creation.
func GenerateSmtpPassword() (string, error) {
	password := make([]byte, smtpPasswordLength)
	max := big.NewInt(int64(len(smtpPasswordAlphabet)))
	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "generating smtp password")
		}
		password[i] = smtpPasswordAlphabet[n.Int64()]
	}
	return string(password), nil
}

// DeriveSmtpUsername computes the immutable SMTP username from the app's
// name and id, e.g. "Planning Alerts" and 15 become "planning_alerts_15".
func DeriveSmtpUsername(name string, id uint64) string {
	return fmt.Sprintf("%s_%d", utils.Slugify(name), id)
}

// GenerateDkimKeypair generates the app's RSA signing keypair. The
// private key is returned PEM encoded for persistence; the public key is
// returned base64 encoded as it appears in the DKIM DNS TXT record.
func GenerateDkimKeypair() (privateKeyPEM string, publicKeyB64 string, err error) {
	key, err := rsa.GenerateKey(rand.Reader, dkimKeyBits)
	if err != nil {
		return "", "", errors.Wrap(err, "generating dkim keypair")
	}

	privBlock := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", errors.Wrap(err, "encoding dkim public key")
	}

	return string(pem.EncodeToMemory(privBlock)), base64.StdEncoding.EncodeToString(pubBytes), nil
}
