package jwt

import (
	"crypto"
	"crypto/elliptic"

	// register hash implementations
	_ "crypto/sha256"
	_ "crypto/sha512"
)

// Algorithm is a JWS signature algorithm, RFC 7518 section 3.1
type Algorithm int

// Supported algorithms
const (
	None Algorithm = iota
	HS256
	HS384
	HS512
	RS256
	RS384
	RS512
	PS256
	PS384
	PS512
	ES256
	ES384
	ES512
	EdDSA
)

// Family groups algorithms by key type
type Family int

// Algorithm families
const (
	FamilyNone Family = iota
	FamilyHMAC
	FamilyRSA
	FamilyRSAPSS
	FamilyECDSA
	FamilyEdDSA
)

type algInfo struct {
	name   string
	family Family
	hash   crypto.Hash
	curve  elliptic.Curve
}

var algorithms = map[Algorithm]algInfo{
	None:  {name: "none", family: FamilyNone},
	HS256: {name: "HS256", family: FamilyHMAC, hash: crypto.SHA256},
	HS384: {name: "HS384", family: FamilyHMAC, hash: crypto.SHA384},
	HS512: {name: "HS512", family: FamilyHMAC, hash: crypto.SHA512},
	RS256: {name: "RS256", family: FamilyRSA, hash: crypto.SHA256},
	RS384: {name: "RS384", family: FamilyRSA, hash: crypto.SHA384},
	RS512: {name: "RS512", family: FamilyRSA, hash: crypto.SHA512},
	PS256: {name: "PS256", family: FamilyRSAPSS, hash: crypto.SHA256},
	PS384: {name: "PS384", family: FamilyRSAPSS, hash: crypto.SHA384},
	PS512: {name: "PS512", family: FamilyRSAPSS, hash: crypto.SHA512},
	ES256: {name: "ES256", family: FamilyECDSA, hash: crypto.SHA256, curve: elliptic.P256()},
	ES384: {name: "ES384", family: FamilyECDSA, hash: crypto.SHA384, curve: elliptic.P384()},
	ES512: {name: "ES512", family: FamilyECDSA, hash: crypto.SHA512, curve: elliptic.P521()},
	EdDSA: {name: "EdDSA", family: FamilyEdDSA},
}

var algorithmsByName = func() map[string]Algorithm {
	m := make(map[string]Algorithm, len(algorithms))
	for alg, info := range algorithms {
		m[info.name] = alg
	}
	return m
}()

// ParseAlgorithm returns Algorithm by its JWS name.
// Names are case sensitive.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg, ok := algorithmsByName[name]
	if !ok {
		return 0, newError(KindUnsupportedAlgorithm, "unsupported algorithm: %q", truncate(name, 32))
	}
	return alg, nil
}

// MustParseAlgorithm returns Algorithm or panics
func MustParseAlgorithm(name string) Algorithm {
	alg, err := ParseAlgorithm(name)
	if err != nil {
		panic(err)
	}
	return alg
}

// Algorithms returns all supported algorithms
func Algorithms() []Algorithm {
	list := make([]Algorithm, 0, len(algorithms))
	for alg := None; alg <= EdDSA; alg++ {
		list = append(list, alg)
	}
	return list
}

// String returns JWS name of the algorithm
func (a Algorithm) String() string {
	if info, ok := algorithms[a]; ok {
		return info.name
	}
	return "unknown"
}

// Family returns the key family of the algorithm
func (a Algorithm) Family() Family {
	return algorithms[a].family
}

// Hash returns the hash function, or 0 for none and EdDSA
func (a Algorithm) Hash() crypto.Hash {
	return algorithms[a].hash
}

// Curve returns the curve of ECDSA algorithms
func (a Algorithm) Curve() elliptic.Curve {
	return algorithms[a].curve
}

// MarshalText implements encoding.TextMarshaler
func (a Algorithm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}

// String returns the name of the family
func (f Family) String() string {
	switch f {
	case FamilyNone:
		return "none"
	case FamilyHMAC:
		return "HMAC"
	case FamilyRSA:
		return "RSA"
	case FamilyRSAPSS:
		return "RSA-PSS"
	case FamilyECDSA:
		return "ECDSA"
	case FamilyEdDSA:
		return "EdDSA"
	}
	return "unknown"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
