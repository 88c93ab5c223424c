package jwt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rsa"
	"math/big"
)

// Verifier checks token signatures.
// The zero value rejects unsigned tokens.
type Verifier struct {
	// AllowUnsigned accepts alg=none tokens with empty signature
	AllowUnsigned bool
}

// Verify returns nil if signature is valid for signingInput,
// otherwise *Error with one of the verification kinds.
func (v *Verifier) Verify(alg Algorithm, signingInput, signature []byte, key any) error {
	if alg == None {
		if !v.AllowUnsigned {
			return newError(KindUnsignedNotAllowed, "unsigned tokens are not allowed")
		}
		if len(signature) != 0 {
			return newError(KindSignatureMismatch, "invalid signature: unsigned token must have empty signature")
		}
		return nil
	}

	if _, ok := algorithms[alg]; !ok {
		return newError(KindUnsupportedAlgorithm, "unsupported algorithm: %d", int(alg))
	}

	k, err := verificationKey(alg, key)
	if err != nil {
		return err
	}

	switch alg.Family() {
	case FamilyHMAC:
		h := hmac.New(alg.Hash().New, k.([]byte))
		h.Write(signingInput)
		if !hmac.Equal(h.Sum(nil), signature) {
			return signatureMismatch()
		}
		return nil

	case FamilyRSA:
		if err := rsa.VerifyPKCS1v15(k.(*rsa.PublicKey), alg.Hash(), digest(alg, signingInput), signature); err != nil {
			return signatureMismatch()
		}
		return nil

	case FamilyRSAPSS:
		opts := &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthAuto,
			Hash:       alg.Hash(),
		}
		if err := rsa.VerifyPSS(k.(*rsa.PublicKey), alg.Hash(), digest(alg, signingInput), signature, opts); err != nil {
			return signatureMismatch()
		}
		return nil

	case FamilyECDSA:
		keySize := curveByteSize(alg)
		if len(signature) != 2*keySize {
			return newError(KindSignatureMismatch, "invalid ECDSA signature length for %s", alg)
		}
		r := new(big.Int).SetBytes(signature[:keySize])
		s := new(big.Int).SetBytes(signature[keySize:])
		if !ecdsa.Verify(k.(*ecdsa.PublicKey), digest(alg, signingInput), r, s) {
			return signatureMismatch()
		}
		return nil

	case FamilyEdDSA:
		if !ed25519.Verify(k.(ed25519.PublicKey), signingInput, signature) {
			return signatureMismatch()
		}
		return nil
	}

	return newError(KindUnsupportedAlgorithm, "unsupported algorithm: %s", alg)
}

// VerifySignature returns error if JWT signature is invalid,
// unsigned tokens are rejected
func VerifySignature(alg Algorithm, signingInput, signature []byte, key any) error {
	return new(Verifier).Verify(alg, signingInput, signature, key)
}

func digest(alg Algorithm, data []byte) []byte {
	h := alg.Hash().New()
	h.Write(data)
	return h.Sum(nil)
}

func curveByteSize(alg Algorithm) int {
	curveBits := alg.Curve().Params().BitSize
	keyBytes := curveBits / 8
	if curveBits%8 > 0 {
		keyBytes++
	}
	return keyBytes
}

func signatureMismatch() *Error {
	return newError(KindSignatureMismatch, "invalid signature")
}
