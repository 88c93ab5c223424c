package certutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"

	"github.com/cockroachdb/errors"
	jose "github.com/go-jose/go-jose/v3"
)

// KeyInfo provides information about the key
type KeyInfo struct {
	KeySize   int
	Type      string
	IsPrivate bool
	Hash      crypto.Hash
	// Public key
	Public crypto.PublicKey
}

// NewKeyInfo returns *KeyInfo for a private, public or JWK key
func NewKeyInfo(k any) (*KeyInfo, error) {
	ki := &KeyInfo{}
	var pubKey crypto.PublicKey

	switch typ := k.(type) {
	case *jose.JSONWebKey:
		return NewKeyInfo(typ.Key)
	case jose.JSONWebKey:
		return NewKeyInfo(typ.Key)
	case crypto.Signer:
		ki.IsPrivate = true
		pubKey = typ.Public()
	default:
		pubKey = k
	}

	switch typ := pubKey.(type) {
	case *rsa.PublicKey:
		ki.KeySize = typ.N.BitLen()
		ki.Type = "RSA"
	case *ecdsa.PublicKey:
		ki.Type = "ECDSA"
		ki.KeySize = typ.Curve.Params().BitSize
	case ed25519.PublicKey:
		ki.Type = "Ed25519"
		ki.KeySize = ed25519.PublicKeySize * 8
	default:
		return nil, errors.Errorf("key not supported: %T", typ)
	}
	ki.Public = pubKey
	ki.Hash = hashAlgo(pubKey)
	return ki, nil
}

func hashAlgo(pub crypto.PublicKey) crypto.Hash {
	switch pub := pub.(type) {
	case *rsa.PublicKey:
		keySize := pub.N.BitLen()
		switch {
		case keySize >= 4096:
			return crypto.SHA512
		case keySize >= 3072:
			return crypto.SHA384
		default:
			return crypto.SHA256
		}
	case *ecdsa.PublicKey:
		switch pub.Curve.Params().BitSize {
		case 521:
			return crypto.SHA512
		case 384:
			return crypto.SHA384
		default:
			return crypto.SHA256
		}
	}
	return 0
}
