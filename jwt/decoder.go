package jwt

import (
	"time"

	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjwt", "jwt")

// DefaultMaxTokenSize is the default limit of the token length
const DefaultMaxTokenSize = 64 * 1024

// Option configures the Decoder
type Option func(*Decoder)

// WithAllowUnsigned accepts alg=none tokens with empty signature
func WithAllowUnsigned() Option {
	return func(d *Decoder) {
		d.verifier.AllowUnsigned = true
	}
}

// WithSkipVerification returns Success with SignatureValid=false
// instead of Failure when the signature can not be verified.
// Format errors are still returned as Failure.
func WithSkipVerification() Option {
	return func(d *Decoder) {
		d.skipVerification = true
	}
}

// WithValidAlgorithms limits the accepted algorithms
func WithValidAlgorithms(algs ...Algorithm) Option {
	return func(d *Decoder) {
		d.validAlgorithms = append([]Algorithm{}, algs...)
	}
}

// WithClaimsPolicy validates the claims of decoded tokens
func WithClaimsPolicy(p *ClaimsPolicy) Option {
	return func(d *Decoder) {
		d.policy = p
	}
}

// WithKeyfunc sets the verification key provider
func WithKeyfunc(f Keyfunc) Option {
	return func(d *Decoder) {
		d.keyfunc = f
	}
}

// WithKey sets the static verification key
func WithKey(key any) Option {
	return WithKeyfunc(StaticKey(key))
}

// WithMaxTokenSize limits the length of the token
func WithMaxTokenSize(n int) Option {
	return func(d *Decoder) {
		d.maxTokenSize = n
	}
}

// Decoder decodes and verifies tokens.
// Decoder is immutable and safe for concurrent use.
type Decoder struct {
	verifier         Verifier
	skipVerification bool
	validAlgorithms  []Algorithm
	policy           *ClaimsPolicy
	keyfunc          Keyfunc
	maxTokenSize     int
}

// NewDecoder returns Decoder
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxTokenSize: DefaultMaxTokenSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses the token, verifies the signature and validates the claims.
// The result is either *Success or *Failure.
func (d *Decoder) Decode(token string) DecodeResult {
	started := time.Now()

	res, alg := d.decode(token)

	algName := "unknown"
	if alg != nil {
		algName = alg.String()
	}
	status := "ok"
	switch r := res.(type) {
	case *Failure:
		status = r.Kind.String()
		logger.KV(xlog.TRACE, "status", "failed", "alg", algName, "kind", r.Kind, "reason", r.Message)
	case *Success:
		if !r.SignatureValid {
			status = "unverified"
		}
		logger.KV(xlog.TRACE, "status", status, "alg", algName)
	}
	metricskey.PerfTokenDecode.MeasureSince(started, algName, status)

	return res
}

func (d *Decoder) decode(token string) (DecodeResult, *Algorithm) {
	if d.maxTokenSize > 0 && len(token) > d.maxTokenSize {
		return failure(newError(KindMalformedToken, "token exceeds maximum size of %d bytes", d.maxTokenSize)), nil
	}

	hseg, pseg, sseg, err := SplitToken(token)
	if err != nil {
		return failure(err.(*Error)), nil
	}

	hb, err := DecodeSegment(hseg)
	if err != nil {
		return failure(wrapError(KindInvalidHeader, err, "invalid header: %s", err.Error())), nil
	}
	pb, err := DecodeSegment(pseg)
	if err != nil {
		return failure(wrapError(KindInvalidPayload, err, "invalid payload: %s", err.Error())), nil
	}
	sig, err := DecodeSegment(sseg)
	if err != nil {
		return failure(wrapError(KindInvalidSignatureEncoding, err, "invalid signature: %s", err.Error())), nil
	}

	header, err := ParseHeader(hb)
	if err != nil {
		return failure(wrapError(KindInvalidHeader, err, "invalid header: %s", err.Error())), nil
	}
	claims, err := ParseClaims(pb)
	if err != nil {
		return failure(wrapError(KindInvalidPayload, err, "invalid payload: %s", err.Error())), nil
	}

	v, ok := header.Get(HeaderAlgorithm)
	if !ok {
		return failure(newError(KindMissingAlgorithm, "missing alg header")), nil
	}
	name, ok := v.AsString()
	if !ok {
		return failure(newError(KindMissingAlgorithm, "alg header is %s, expected string", v.Kind())), nil
	}
	alg, err := ParseAlgorithm(name)
	if err != nil {
		return failure(err.(*Error)), nil
	}

	res := &Success{
		Header:         header,
		Claims:         claims,
		Algorithm:      alg,
		SignatureValid: true,
		Signature:      sig,
	}

	if verr := d.verify(alg, header, SigningInput(hseg, pseg), sig); verr != nil {
		if !d.skipVerification {
			return failure(verr), &alg
		}
		res.SignatureValid = false
		res.VerifyError = verr
	}

	if d.policy != nil {
		if err := claims.Validate(d.policy); err != nil {
			return failure(withKind(KindInvalidClaims, err)), &alg
		}
	}
	return res, &alg
}

func (d *Decoder) verify(alg Algorithm, header *Header, signingInput, sig []byte) *Error {
	if !d.algorithmAllowed(alg) {
		return newError(KindUnsupportedAlgorithm, "algorithm not allowed: %s", alg)
	}

	var key any
	if alg != None {
		if d.keyfunc == nil {
			return newError(KindKeyUnavailable, "verification key is not provided")
		}
		k, err := d.keyfunc(header)
		if err != nil {
			logger.KV(xlog.DEBUG, "reason", "keyfunc", "err", err.Error())
			return wrapError(KindKeyUnavailable, err, "unable to resolve verification key")
		}
		if k == nil {
			return newError(KindKeyUnavailable, "verification key is not provided")
		}
		key = k
	}

	if err := d.verifier.Verify(alg, signingInput, sig, key); err != nil {
		if e, ok := err.(*Error); ok {
			return e
		}
		return wrapError(KindSignatureMismatch, err, "invalid signature")
	}
	return nil
}

func (d *Decoder) algorithmAllowed(alg Algorithm) bool {
	if len(d.validAlgorithms) == 0 {
		return true
	}
	for _, a := range d.validAlgorithms {
		if a == alg {
			return true
		}
	}
	return false
}
