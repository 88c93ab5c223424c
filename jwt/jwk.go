package jwt

import (
	"crypto"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	jose "github.com/go-jose/go-jose/v3"
)

// Thumbprint returns RFC 7638 SHA-256 thumbprint of the key, base64url encoded
func Thumbprint(k *jose.JSONWebKey) (string, error) {
	tb, err := k.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", errors.Errorf("unable to get thumbprint")
	}
	return EncodeSegment(tb), nil
}

// NewJWK returns JSON Web Key of asymmetric key for the signature algorithm.
// The thumbprint of the key is used as kid, if kid is empty.
func NewJWK(key any, alg Algorithm, kid string) (*jose.JSONWebKey, error) {
	if f := alg.Family(); f == FamilyNone || f == FamilyHMAC {
		return nil, errors.Errorf("JWK is not supported for %s", alg)
	}
	if _, err := verificationKey(alg, key); err != nil {
		return nil, err
	}

	k := &jose.JSONWebKey{
		Key:       key,
		KeyID:     kid,
		Algorithm: alg.String(),
		Use:       "sig",
	}
	if !k.Valid() {
		return nil, errors.Errorf("invalid key for %s", alg)
	}
	if kid == "" {
		tb, err := Thumbprint(k)
		if err != nil {
			return nil, err
		}
		k.KeyID = tb
	}
	return k, nil
}

// LoadJWK returns *jose.JSONWebKey loaded from file
func LoadJWK(path string) (*jose.JSONWebKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	k := new(jose.JSONWebKey)
	if err = json.Unmarshal(b, k); err != nil {
		return nil, errors.WithMessagef(err, "unable to parse JWK: %s", path)
	}
	return k, nil
}

// SaveJWK saves the key to the folder as <kid>.jwk
func SaveJWK(folder string, k *jose.JSONWebKey) (string, error) {
	if err := os.MkdirAll(folder, 0700); err != nil {
		logger.KV(xlog.WARNING,
			"reason", "create_folder",
			"folder", folder,
			"err", err,
		)
		// the write below reports the error
	}
	kid := k.KeyID
	if kid == "" {
		tb, err := Thumbprint(k)
		if err != nil {
			return "", err
		}
		kid = tb
	}

	fn := filepath.Join(folder, kid+".jwk")
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err = os.WriteFile(fn, data, 0600); err != nil {
		return "", errors.WithMessagef(err, "failed to save key")
	}
	return fn, nil
}
