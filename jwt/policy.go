package jwt

import (
	"slices"
	"time"

	"github.com/cockroachdb/errors"
)

// TimeNowFn to override in unit tests
var TimeNowFn = time.Now

// ClaimsPolicy expresses the possible options for validating claims
type ClaimsPolicy struct {
	// ExpectedIssuer validates the iss claim of a JWT matches this value
	ExpectedIssuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	// ExpectedSubject validates the sub claim of a JWT matches this value
	ExpectedSubject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	// ExpectedAudience validates that the aud claim of a JWT contains one of the values
	ExpectedAudience []string `json:"audience,omitempty" yaml:"audience,omitempty"`
	// RequireExpiry fails validation if the exp claim is absent
	RequireExpiry bool `json:"require_expiry,omitempty" yaml:"require_expiry,omitempty"`
	// Leeway allows for clock skew when checking exp, nbf and iat
	Leeway time.Duration `json:"leeway,omitempty" yaml:"leeway,omitempty"`
	// Now returns the current time, TimeNowFn is used if nil
	Now func() time.Time `json:"-" yaml:"-"`
}

// Validate returns error if the claims do not satisfy the policy.
// The returned error has KindInvalidClaims.
func (c *Claims) Validate(p *ClaimsPolicy) error {
	if p == nil {
		p = &ClaimsPolicy{}
	}
	nowFn := p.Now
	if nowFn == nil {
		nowFn = TimeNowFn
	}
	now := nowFn()

	if err := c.VerifyIssuer(p.ExpectedIssuer); err != nil {
		return withKind(KindInvalidClaims, err)
	}
	if err := c.VerifySubject(p.ExpectedSubject); err != nil {
		return withKind(KindInvalidClaims, err)
	}
	if err := c.VerifyAudience(p.ExpectedAudience); err != nil {
		return withKind(KindInvalidClaims, err)
	}
	if err := c.VerifyExpiresAt(now, p.Leeway, p.RequireExpiry); err != nil {
		return withKind(KindInvalidClaims, err)
	}
	if err := c.VerifyNotBefore(now, p.Leeway); err != nil {
		return withKind(KindInvalidClaims, err)
	}
	if err := c.VerifyIssuedAt(now, p.Leeway); err != nil {
		return withKind(KindInvalidClaims, err)
	}
	return nil
}

// VerifyIssuer compares the iss claim, empty expected value is not checked
func (c *Claims) VerifyIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	iss, err := c.Issuer()
	if err != nil {
		return err
	}
	if iss != expected {
		return errors.Errorf("invalid issuer: %s, expected: %s", iss, expected)
	}
	return nil
}

// VerifySubject compares the sub claim, empty expected value is not checked
func (c *Claims) VerifySubject(expected string) error {
	if expected == "" {
		return nil
	}
	sub, err := c.Subject()
	if err != nil {
		return err
	}
	if sub != expected {
		return errors.Errorf("invalid subject: %s, expected: %s", sub, expected)
	}
	return nil
}

// VerifyAudience checks that the aud claim contains one of the expected values
func (c *Claims) VerifyAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	aud, err := c.Audience()
	if err != nil {
		return err
	}
	for _, a := range expected {
		if slices.Contains(aud, a) {
			return nil
		}
	}
	return errors.Errorf("token missing audience: %v", expected)
}

// VerifyExpiresAt checks the exp claim against now
func (c *Claims) VerifyExpiresAt(now time.Time, leeway time.Duration, required bool) error {
	exp, err := c.ExpiresAt()
	if err != nil {
		if !required && errors.Is(err, ErrClaimNotFound) {
			return nil
		}
		return err
	}
	if !now.Before(exp.Add(leeway)) {
		return errors.Errorf("token expired at: %s", exp.Format(time.RFC3339))
	}
	return nil
}

// VerifyNotBefore checks the nbf claim against now
func (c *Claims) VerifyNotBefore(now time.Time, leeway time.Duration) error {
	nbf, err := c.NotBefore()
	if err != nil {
		if errors.Is(err, ErrClaimNotFound) {
			return nil
		}
		return err
	}
	if now.Add(leeway).Before(nbf) {
		return errors.Errorf("token not valid yet, not before: %s", nbf.Format(time.RFC3339))
	}
	return nil
}

// VerifyIssuedAt checks that the iat claim is not in the future
func (c *Claims) VerifyIssuedAt(now time.Time, leeway time.Duration) error {
	iat, err := c.IssuedAt()
	if err != nil {
		if errors.Is(err, ErrClaimNotFound) {
			return nil
		}
		return err
	}
	if now.Add(leeway).Before(iat) {
		return errors.Errorf("token issued after now: %s", iat.Format(time.RFC3339))
	}
	return nil
}
