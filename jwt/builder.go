package jwt

import (
	"github.com/cockroachdb/errors"
)

// Builder assembles and signs tokens
type Builder struct {
	alg    Algorithm
	header *Header
	claims *Claims
	err    error
}

// NewBuilder returns Builder for the algorithm,
// the header starts with alg and typ=JWT
func NewBuilder(alg Algorithm) *Builder {
	return &Builder{
		alg:    alg,
		header: NewHeader(alg),
		claims: NewClaims(),
	}
}

// Header sets the header parameter.
// The alg parameter can not be changed.
func (b *Builder) Header(name string, val any) *Builder {
	if b.err != nil {
		return b
	}
	if name == HeaderAlgorithm {
		b.err = errors.Errorf("alg header is set by the builder")
		return b
	}
	if err := b.header.SetAny(name, val); err != nil {
		b.err = errors.WithMessagef(err, "invalid header %q", name)
	}
	return b
}

// KeyID sets the kid header
func (b *Builder) KeyID(kid string) *Builder {
	if kid == "" {
		return b
	}
	return b.Header(HeaderKeyID, kid)
}

// Claim sets the claim
func (b *Builder) Claim(name string, val any) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.claims.SetAny(name, val); err != nil {
		b.err = errors.WithMessagef(err, "invalid claim %q", name)
	}
	return b
}

// Claims merges the claims, existing claims are replaced
func (b *Builder) Claims(c *Claims) *Builder {
	if b.err != nil || c == nil || c.Map == nil {
		return b
	}
	b.claims.Merge(c.Map)
	return b
}

// Sign returns the compact serialization of the token
func (b *Builder) Sign(key any) (string, error) {
	if b.err != nil {
		return "", b.err
	}

	hb, err := b.header.Marshal()
	if err != nil {
		return "", errors.WithStack(err)
	}
	pb, err := b.claims.Marshal()
	if err != nil {
		return "", errors.WithStack(err)
	}

	hseg := EncodeSegment(hb)
	pseg := EncodeSegment(pb)
	input := SigningInput(hseg, pseg)

	sig, err := Sign(b.alg, input, key)
	if err != nil {
		return "", err
	}
	return string(input) + "." + EncodeSegment(sig), nil
}
