package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/certutil"
	jose "github.com/go-jose/go-jose/v3"
)

// Keyfunc is a callback function to supply the key for verification.
// The function receives the parsed, but unverified header.
// This allows you to use properties in the Header of the token (such as `kid`)
// to identify which key to use.
type Keyfunc func(*Header) (any, error)

// StaticKey returns Keyfunc that always returns the key
func StaticKey(key any) Keyfunc {
	return func(*Header) (any, error) {
		return key, nil
	}
}

// KeyMap returns Keyfunc that selects the key by the kid header.
// If the token has no kid and the map has a single key, that key is used.
func KeyMap(keys map[string]any) Keyfunc {
	return func(h *Header) (any, error) {
		kid, ok := h.KeyID()
		if !ok {
			if len(keys) == 1 {
				for _, k := range keys {
					return k, nil
				}
			}
			return nil, errors.New("missing kid")
		}
		if key, ok := keys[kid]; ok {
			return key, nil
		}
		return nil, errors.Errorf("unexpected kid: %q", truncate(kid, 64))
	}
}

// FirstKey returns Keyfunc that returns the first key resolved by funcs
func FirstKey(funcs ...Keyfunc) Keyfunc {
	return func(h *Header) (any, error) {
		var errs error
		for _, f := range funcs {
			key, err := f(h)
			if err == nil && key != nil {
				return key, nil
			}
			if err != nil {
				errs = errors.CombineErrors(errs, err)
			}
		}
		if errs == nil {
			errs = errors.New("key not found")
		}
		return nil, errs
	}
}

// verificationKey converts supported key representations
// to the key type expected by the algorithm family
func verificationKey(alg Algorithm, key any) (any, error) {
	if isNilKey(key) {
		return nil, newError(KindKeyAlgorithmMismatch, "empty key for %s signature", alg)
	}
	switch k := key.(type) {
	case *jose.JSONWebKey:
		if k == nil {
			return nil, keyMismatch(alg, key)
		}
		return verificationKey(alg, k.Key)
	case jose.JSONWebKey:
		return verificationKey(alg, k.Key)
	case *x509.Certificate:
		return verificationKey(alg, k.PublicKey)
	}

	switch alg.Family() {
	case FamilyHMAC:
		var secret []byte
		switch k := key.(type) {
		case []byte:
			if block, _ := pem.Decode(k); block != nil {
				return nil, newError(KindKeyAlgorithmMismatch, "PEM encoded key can not be used for %s signature", alg)
			}
			secret = k
		default:
			return nil, keyMismatch(alg, key)
		}
		if len(secret) == 0 {
			return nil, newError(KindKeyAlgorithmMismatch, "empty key for %s signature", alg)
		}
		return secret, nil

	case FamilyRSA, FamilyRSAPSS, FamilyECDSA, FamilyEdDSA:
		pub, err := publicKey(key)
		if err != nil {
			return nil, err
		}
		switch alg.Family() {
		case FamilyRSA, FamilyRSAPSS:
			if k, ok := pub.(*rsa.PublicKey); ok && k != nil && k.N != nil {
				return k, nil
			}
		case FamilyECDSA:
			if k, ok := pub.(*ecdsa.PublicKey); ok && k != nil && k.X != nil && k.Y != nil {
				if k.Curve != alg.Curve() {
					return nil, newError(KindKeyAlgorithmMismatch, "invalid curve %s for %s signature", k.Curve.Params().Name, alg)
				}
				return k, nil
			}
		case FamilyEdDSA:
			if k, ok := pub.(ed25519.PublicKey); ok && len(k) == ed25519.PublicKeySize {
				return k, nil
			}
		}
		return nil, keyMismatch(alg, pub)
	}
	return key, nil
}

// publicKey returns the public part of asymmetric keys,
// PEM encoded keys are parsed
func publicKey(key any) (crypto.PublicKey, error) {
	switch k := key.(type) {
	case []byte:
		pub, err := certutil.ParsePublicKeyPEM(k)
		if err != nil {
			return nil, wrapError(KindKeyAlgorithmMismatch, err, "unable to parse PEM key")
		}
		return pub, nil
	case string:
		return publicKey([]byte(k))
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return k, nil
	case crypto.Signer:
		if isNilKey(k) {
			return nil, newError(KindKeyAlgorithmMismatch, "empty key")
		}
		return k.Public(), nil
	}
	return key, nil
}

// isNilKey returns true for nil and typed nil keys
func isNilKey(key any) bool {
	if key == nil {
		return true
	}
	v := reflect.ValueOf(key)
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func:
		return v.IsNil()
	}
	return false
}

func keyMismatch(alg Algorithm, key any) *Error {
	return newError(KindKeyAlgorithmMismatch, "invalid key type %T for %s signature", key, alg)
}
