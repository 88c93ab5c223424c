package jwt

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind identifies the reason a token could not be decoded or verified
type ErrorKind int

// Error kinds
const (
	// KindMalformedToken is returned when the token is not made of three segments
	KindMalformedToken ErrorKind = iota + 1
	// KindInvalidBase64 is returned when a segment is not valid base64url
	KindInvalidBase64
	// KindInvalidSignatureEncoding is returned when the signature segment is not valid base64url
	KindInvalidSignatureEncoding
	// KindInvalidJSON is returned when a segment is not a JSON object
	KindInvalidJSON
	// KindInvalidHeader is returned when the header segment can not be decoded
	KindInvalidHeader
	// KindInvalidPayload is returned when the payload segment can not be decoded
	KindInvalidPayload
	// KindMissingAlgorithm is returned when the header has no alg
	KindMissingAlgorithm

	// KindUnsupportedAlgorithm is returned for unknown or disallowed algorithms
	KindUnsupportedAlgorithm
	// KindKeyAlgorithmMismatch is returned when the key type does not fit the algorithm
	KindKeyAlgorithmMismatch
	// KindSignatureMismatch is returned when the signature does not verify
	KindSignatureMismatch
	// KindUnsignedNotAllowed is returned for alg=none tokens without an explicit opt-in
	KindUnsignedNotAllowed
	// KindKeyUnavailable is returned when no key could be resolved for the token
	KindKeyUnavailable

	// KindInvalidClaims is returned when claims do not satisfy the ClaimsPolicy
	KindInvalidClaims
)

// Category groups error kinds
type Category int

// Categories
const (
	CategoryFormat Category = iota + 1
	CategoryVerification
	CategoryValidation
)

var kindNames = map[ErrorKind]string{
	KindMalformedToken:           "MalformedToken",
	KindInvalidBase64:            "InvalidBase64",
	KindInvalidSignatureEncoding: "InvalidSignatureEncoding",
	KindInvalidJSON:              "InvalidJSON",
	KindInvalidHeader:            "InvalidHeader",
	KindInvalidPayload:           "InvalidPayload",
	KindMissingAlgorithm:         "MissingAlgorithm",
	KindUnsupportedAlgorithm:     "UnsupportedAlgorithm",
	KindKeyAlgorithmMismatch:     "KeyAlgorithmMismatch",
	KindSignatureMismatch:        "SignatureMismatch",
	KindUnsignedNotAllowed:       "UnsignedNotAllowed",
	KindKeyUnavailable:           "KeyUnavailable",
	KindInvalidClaims:            "InvalidClaims",
}

// String returns the name of the kind
func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Category returns the group of the kind
func (k ErrorKind) Category() Category {
	switch {
	case k >= KindMalformedToken && k <= KindMissingAlgorithm:
		return CategoryFormat
	case k >= KindUnsupportedAlgorithm && k <= KindKeyUnavailable:
		return CategoryVerification
	case k == KindInvalidClaims:
		return CategoryValidation
	}
	return 0
}

// String returns the name of the category
func (c Category) String() string {
	switch c {
	case CategoryFormat:
		return "FormatError"
	case CategoryVerification:
		return "VerificationError"
	case CategoryValidation:
		return "ValidationError"
	}
	return "Error"
}

// Error is returned by the decoder, verifier and codec.
// Message never includes key material, the optional cause is only
// available through errors.Unwrap.
type Error struct {
	Kind    ErrorKind
	Message string

	cause error
}

// newError returns *Error with a message
func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// wrapError returns *Error with a cause
func wrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	e.cause = cause
	return e
}

// Error implements error
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors by Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// withKind re-labels err, keeping its message and cause
func withKind(kind ErrorKind, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: kind, Message: e.Message, cause: e}
	}
	return &Error{Kind: kind, Message: err.Error(), cause: err}
}

// KindOf returns the kind of err, or 0 if err is not produced by this package
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Sentinel errors to be used with errors.Is
var (
	ErrMalformedToken       = &Error{Kind: KindMalformedToken}
	ErrInvalidBase64        = &Error{Kind: KindInvalidBase64}
	ErrInvalidJSON          = &Error{Kind: KindInvalidJSON}
	ErrMissingAlgorithm     = &Error{Kind: KindMissingAlgorithm}
	ErrUnsupportedAlgorithm = &Error{Kind: KindUnsupportedAlgorithm}
	ErrKeyAlgorithmMismatch = &Error{Kind: KindKeyAlgorithmMismatch}
	ErrSignatureMismatch    = &Error{Kind: KindSignatureMismatch}
	ErrUnsignedNotAllowed   = &Error{Kind: KindUnsignedNotAllowed}
	ErrKeyUnavailable       = &Error{Kind: KindKeyUnavailable}
	ErrInvalidClaims        = &Error{Kind: KindInvalidClaims}
)

// Claim accessor errors
var (
	// ErrClaimNotFound is returned when the claim is absent
	ErrClaimNotFound = errors.New("claim not found")
	// ErrClaimType is returned when the claim is present but has unexpected type
	ErrClaimType = errors.New("claim has unexpected type")
)
