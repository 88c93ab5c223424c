package jwt

import (
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/certutil"
	"github.com/effective-security/xjwt/metricskey"
	jose "github.com/go-jose/go-jose/v3"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Sign returns the signature of signingInput.
// For HMAC the key must be []byte, for asymmetric algorithms
// a crypto.Signer, a PEM encoded private key or a private JWK.
// None returns empty signature.
func Sign(alg Algorithm, signingInput []byte, key any) ([]byte, error) {
	if _, ok := algorithms[alg]; !ok {
		return nil, newError(KindUnsupportedAlgorithm, "unsupported algorithm: %d", int(alg))
	}
	defer metricskey.PerfTokenSign.MeasureSince(time.Now(), alg.String())

	switch alg.Family() {
	case FamilyNone:
		return []byte{}, nil
	case FamilyHMAC:
		secret, err := verificationKey(alg, key)
		if err != nil {
			return nil, err
		}
		h := hmac.New(alg.Hash().New, secret.([]byte))
		h.Write(signingInput)
		return h.Sum(nil), nil
	}

	signer, err := signingKey(alg, key)
	if err != nil {
		return nil, err
	}

	switch alg.Family() {
	case FamilyRSA:
		sig, err := signer.Sign(rand.Reader, digest(alg, signingInput), alg.Hash())
		if err != nil {
			return nil, errors.WithMessage(err, "unable to sign")
		}
		return sig, nil
	case FamilyRSAPSS:
		opts := &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthEqualsHash,
			Hash:       alg.Hash(),
		}
		sig, err := signer.Sign(rand.Reader, digest(alg, signingInput), opts)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to sign")
		}
		return sig, nil
	case FamilyECDSA:
		der, err := signer.Sign(rand.Reader, digest(alg, signingInput), alg.Hash())
		if err != nil {
			return nil, errors.WithMessage(err, "unable to sign")
		}
		return ecdsaRawSignature(alg, der)
	case FamilyEdDSA:
		sig, err := signer.Sign(rand.Reader, signingInput, crypto.Hash(0))
		if err != nil {
			return nil, errors.WithMessage(err, "unable to sign")
		}
		return sig, nil
	}
	return nil, newError(KindUnsupportedAlgorithm, "unsupported algorithm: %s", alg)
}

// AlgorithmForKey returns the default algorithm for the key:
// RSA keys by size, ECDSA keys by curve, Ed25519 as EdDSA
// and HMAC secrets as HS256
func AlgorithmForKey(key any) (Algorithm, error) {
	if b, ok := key.([]byte); ok {
		if block, _ := pem.Decode(b); block == nil {
			return HS256, nil
		}
		s, err := certutil.ParsePrivateKeyPEM(b)
		if err != nil {
			return 0, errors.WithMessage(err, "PEM encoded key must be a private key")
		}
		key = s
	}
	ki, err := certutil.NewKeyInfo(key)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	switch ki.Type {
	case "RSA":
		switch {
		case ki.KeySize >= 4096:
			return RS512, nil
		case ki.KeySize >= 3072:
			return RS384, nil
		default:
			return RS256, nil
		}
	case "ECDSA":
		switch ki.KeySize {
		case 521:
			return ES512, nil
		case 384:
			return ES384, nil
		default:
			return ES256, nil
		}
	case "Ed25519":
		return EdDSA, nil
	}
	return 0, errors.Errorf("key not supported: %s", ki.Type)
}

// signingKey returns crypto.Signer matching the algorithm family
func signingKey(alg Algorithm, key any) (crypto.Signer, error) {
	if isNilKey(key) {
		return nil, newError(KindKeyAlgorithmMismatch, "empty key for %s signature", alg)
	}
	switch k := key.(type) {
	case *jose.JSONWebKey:
		if k == nil {
			return nil, keyMismatch(alg, key)
		}
		return signingKey(alg, k.Key)
	case jose.JSONWebKey:
		return signingKey(alg, k.Key)
	case []byte:
		s, err := certutil.ParsePrivateKeyPEM(k)
		if err != nil {
			return nil, wrapError(KindKeyAlgorithmMismatch, err, "unable to parse PEM private key")
		}
		return signingKey(alg, s)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, keyMismatch(alg, key)
	}
	// the public part must fit the algorithm
	if _, err := verificationKey(alg, signer.Public()); err != nil {
		return nil, err
	}
	return signer, nil
}

// ecdsaRawSignature converts ASN.1 {r,s} to the fixed size r||s encoding
func ecdsaRawSignature(alg Algorithm, der []byte) ([]byte, error) {
	var (
		r, s  = &big.Int{}, &big.Int{}
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, errors.Errorf("unable to decode ECDSA signature")
	}

	keyBytes := curveByteSize(alg)

	// r and s are left padded with zeros to the curve size
	out := make([]byte, 2*keyBytes)
	r.FillBytes(out[0:keyBytes])
	s.FillBytes(out[keyBytes:])
	return out, nil
}
