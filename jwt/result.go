package jwt

// DecodeResult is returned by Decoder.Decode.
// The only implementations are *Success and *Failure.
type DecodeResult interface {
	// OK returns true for *Success
	OK() bool
	// Err returns the decode error, or nil for *Success
	Err() error

	decodeResult()
}

// Success is a decoded token
type Success struct {
	Header    *Header
	Claims    *Claims
	Algorithm Algorithm
	// SignatureValid is false only when the decoder was created
	// WithSkipVerification and the signature could not be verified
	SignatureValid bool
	// Signature is the decoded signature segment
	Signature []byte
	// VerifyError is the verification error ignored by the decoder
	// created WithSkipVerification
	VerifyError error
}

// OK returns true
func (s *Success) OK() bool { return true }

// Err returns nil
func (s *Success) Err() error { return nil }

func (s *Success) decodeResult() {}

// Failure is a token that could not be decoded or verified
type Failure struct {
	Kind    ErrorKind
	Message string

	err *Error
}

// OK returns false
func (f *Failure) OK() bool { return false }

// Err returns *Error
func (f *Failure) Err() error {
	if f.err != nil {
		return f.err
	}
	return &Error{Kind: f.Kind, Message: f.Message}
}

func (f *Failure) decodeResult() {}

func failure(err *Error) *Failure {
	return &Failure{
		Kind:    err.Kind,
		Message: err.Error(),
		err:     err,
	}
}
