// Package jwt decodes, verifies and builds compact JSON Web Tokens.
//
// A token is parsed into an ordered Header and Claims of tagged JSON values,
// the signature is verified with a key resolved by a Keyfunc,
// and the outcome is returned as a DecodeResult:
//
//	d := jwt.NewDecoder(jwt.WithKey(secret), jwt.WithValidAlgorithms(jwt.HS256))
//	switch res := d.Decode(token).(type) {
//	case *jwt.Success:
//		sub, _ := res.Claims.Subject()
//	case *jwt.Failure:
//		log.Println(res.Kind, res.Message)
//	}
//
// Supported algorithms are defined by RFC 7518 and RFC 8037:
// HMAC, RSA PKCS#1 v1.5, RSA-PSS, ECDSA and Ed25519.
// Keys can be provided as Go crypto keys, PEM, JSON Web Keys,
// or resolved from a JSON Web Key Set.
package jwt
