// Package certutil provides helpers to encode and parse keys
package certutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	"github.com/cockroachdb/errors"
)

// ParsePublicKeyPEM parses PEM encoded public key.
// The PEM block may be a PKIX or PKCS#1 public key, a certificate,
// or a private key, in which case its public part is returned.
func ParsePublicKeyPEM(keyPEM []byte) (crypto.PublicKey, error) {
	block := firstKeyBlock(keyPEM)
	if block == nil {
		return nil, errors.New("key must be PEM encoded")
	}

	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, errors.New("unable to parse public key")
		}
		return pub, nil
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, errors.New("unable to parse RSA public key")
		}
		return pub, nil
	case "CERTIFICATE":
		crt, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.New("unable to parse certificate")
		}
		return crt.PublicKey, nil
	}

	s, err := ParsePrivateKeyDER(block.Bytes)
	if err != nil {
		return nil, err
	}
	return s.Public(), nil
}

// EncodePublicKeyToPEM returns PEM encoded public key
func EncodePublicKeyToPEM(pubKey crypto.PublicKey) ([]byte, error) {
	asn1Bytes, err := x509.MarshalPKIXPublicKey(pubKey)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: asn1Bytes,
	}), nil
}

// EncodePrivateKeyToPEM returns PEM encoded private key
func EncodePrivateKeyToPEM(priv crypto.PrivateKey) (key []byte, err error) {
	switch priv := priv.(type) {
	case *rsa.PrivateKey:
		key = x509.MarshalPKCS1PrivateKey(priv)
		block := pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: key,
		}
		key = pem.EncodeToMemory(&block)
	case *ecdsa.PrivateKey:
		key, err = x509.MarshalECPrivateKey(priv)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		block := pem.Block{
			Type:  "EC PRIVATE KEY",
			Bytes: key,
		}
		key = pem.EncodeToMemory(&block)
	case ed25519.PrivateKey:
		key, err = x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		block := pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: key,
		}
		key = pem.EncodeToMemory(&block)
	default:
		return nil, errors.Errorf("unsupported key: %T", priv)
	}

	return
}

// ParsePrivateKeyPEM parses and returns a PEM-encoded private
// key. The private key may be either an unencrypted PKCS#8, PKCS#1,
// or elliptic private key.
func ParsePrivateKeyPEM(keyPEM []byte) (crypto.Signer, error) {
	block := firstKeyBlock(keyPEM)
	if block == nil {
		return nil, errors.Errorf("unable to decode private key")
	}
	return ParsePrivateKeyDER(block.Bytes)
}

// ParsePrivateKeyDER parses a PKCS #1, PKCS #8, ECDSA, or Ed25519 DER-encoded
// private key. The key must not be in PEM format.
func ParsePrivateKeyDER(keyDER []byte) (crypto.Signer, error) {
	generalKey, err := x509.ParsePKCS8PrivateKey(keyDER)
	if err != nil {
		generalKey, err = x509.ParsePKCS1PrivateKey(keyDER)
		if err != nil {
			generalKey, err = x509.ParseECPrivateKey(keyDER)
			if err != nil {
				// the parse error is not returned,
				// it may describe the key content
				return nil, errors.Errorf("unable to parse private key")
			}
		}
	}

	switch k := generalKey.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	case ed25519.PrivateKey:
		return k, nil
	}

	return nil, errors.Errorf("unsupported private key: %T", generalKey)
}

// firstKeyBlock returns the first PEM block, skipping EC PARAMETERS
// that openssl includes by default
func firstKeyBlock(in []byte) *pem.Block {
	for {
		var block *pem.Block
		block, in = pem.Decode(in)
		if block == nil || block.Type != "EC PARAMETERS" {
			return block
		}
	}
}
