package jwt

import (
	"encoding/base64"
	"strings"
)

// segmentEncoding is the JWT specific base64url encoding with padding stripped.
// Strict mode rejects non-zero trailing bits, so every decoded
// byte sequence has exactly one accepted encoding.
var segmentEncoding = base64.RawURLEncoding.Strict()

// DecodeSegment decodes JWT specific base64url encoding,
// padding is optional
func DecodeSegment(seg string) ([]byte, error) {
	if pad := len(seg) - len(strings.TrimRight(seg, "=")); pad > 0 {
		if pad > 2 || len(seg)%4 != 0 {
			return nil, newError(KindInvalidBase64, "invalid base64url padding")
		}
		seg = seg[:len(seg)-pad]
	}
	if len(seg)%4 == 1 {
		return nil, newError(KindInvalidBase64, "invalid base64url length: %d", len(seg))
	}

	b, err := segmentEncoding.DecodeString(seg)
	if err != nil {
		return nil, wrapError(KindInvalidBase64, err, "invalid base64url segment")
	}
	return b, nil
}

// EncodeSegment returns JWT specific base64url encoding with padding stripped
func EncodeSegment(seg []byte) string {
	return segmentEncoding.EncodeToString(seg)
}

// SplitToken returns the three segments of the token
func SplitToken(token string) (header, payload, signature string, err error) {
	if strings.Count(token, ".") != 2 {
		return "", "", "", newError(KindMalformedToken, "malformed token: expected 3 segments")
	}
	header, rest, _ := strings.Cut(token, ".")
	payload, signature, _ = strings.Cut(rest, ".")
	return header, payload, signature, nil
}

// SigningInput returns the data covered by the signature
func SigningInput(headerSegment, payloadSegment string) []byte {
	b := make([]byte, 0, len(headerSegment)+1+len(payloadSegment))
	b = append(b, headerSegment...)
	b = append(b, '.')
	b = append(b, payloadSegment...)
	return b
}
