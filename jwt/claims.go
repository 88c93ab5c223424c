package jwt

import (
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// Registered claim names, RFC 7519 section 4.1
const (
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimAudience  = "aud"
	ClaimExpiry    = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
	ClaimID        = "jti"
)

// NumericDate is a JSON numeric value representing
// the number of seconds from 1970-01-01T00:00:00Z UTC
type NumericDate struct {
	time.Time
}

// NewNumericDate returns NumericDate truncated to seconds
func NewNumericDate(t time.Time) NumericDate {
	return NumericDate{Time: t.Truncate(time.Second).UTC()}
}

// Value returns the number Value of the date
func (d NumericDate) Value() Value {
	return Int(d.Unix())
}

// numericDate converts a number Value, fractional seconds are preserved
func numericDate(v Value) (NumericDate, bool) {
	if i, ok := v.AsInt64(); ok {
		return NumericDate{Time: unixTime(i, 0)}, true
	}
	f, ok := v.AsFloat64()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return NumericDate{}, false
	}
	switch {
	case f >= maxUnixSeconds:
		return NumericDate{Time: unixTime(maxUnixSeconds, 0)}, true
	case f <= math.MinInt64:
		return NumericDate{Time: unixTime(math.MinInt64, 0)}, true
	}
	sec, frac := math.Modf(f)
	return NumericDate{Time: unixTime(int64(sec), int64(frac*1e9))}, true
}

// maxUnixSeconds is the largest Unix time time.Time can hold
const maxUnixSeconds = math.MaxInt64 - 62135596800

// unixTime returns UTC time, seconds beyond time.Time range are clamped
func unixTime(sec, nsec int64) time.Time {
	if sec > maxUnixSeconds {
		sec, nsec = maxUnixSeconds, 0
	}
	return time.Unix(sec, nsec).UTC()
}

// Claims is the payload of a token
type Claims struct {
	*Map
}

// NewClaims returns empty Claims
func NewClaims() *Claims {
	return &Claims{Map: NewMap()}
}

// ParseClaims parses JSON encoded claims
func ParseClaims(b []byte) (*Claims, error) {
	m, err := ParseMap(b)
	if err != nil {
		return nil, err
	}
	return &Claims{Map: m}, nil
}

// CreateClaims returns Claims with the registered claims populated,
// empty values are omitted
func CreateClaims(id, subject, issuer string, audience []string, expiry time.Duration, extra *Map) *Claims {
	now := NewNumericDate(TimeNowFn())

	c := NewClaims()
	if id != "" {
		c.Set(ClaimID, String(id))
	}
	if issuer != "" {
		c.Set(ClaimIssuer, String(issuer))
	}
	if subject != "" {
		c.Set(ClaimSubject, String(subject))
	}
	switch len(audience) {
	case 0:
	case 1:
		c.Set(ClaimAudience, String(audience[0]))
	default:
		_ = c.SetAny(ClaimAudience, audience)
	}
	c.Set(ClaimIssuedAt, now.Value())
	if expiry > 0 {
		c.Set(ClaimExpiry, NewNumericDate(now.Add(expiry)).Value())
	}
	if extra != nil {
		c.Merge(extra)
	}
	return c
}

// Issuer returns the iss claim
func (c *Claims) Issuer() (string, error) { return c.String(ClaimIssuer) }

// Subject returns the sub claim
func (c *Claims) Subject() (string, error) { return c.String(ClaimSubject) }

// ID returns the jti claim
func (c *Claims) ID() (string, error) { return c.String(ClaimID) }

// ExpiresAt returns the exp claim
func (c *Claims) ExpiresAt() (time.Time, error) { return c.Time(ClaimExpiry) }

// NotBefore returns the nbf claim
func (c *Claims) NotBefore() (time.Time, error) { return c.Time(ClaimNotBefore) }

// IssuedAt returns the iat claim
func (c *Claims) IssuedAt() (time.Time, error) { return c.Time(ClaimIssuedAt) }

// Audience returns the aud claim,
// which can be a single string or an array of strings
func (c *Claims) Audience() ([]string, error) {
	v, ok := c.Get(ClaimAudience)
	if !ok {
		return nil, claimNotFound(ClaimAudience)
	}
	if s, ok := v.AsString(); ok {
		return []string{s}, nil
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, claimType(ClaimAudience, v)
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.AsString()
		if !ok {
			return nil, claimType(ClaimAudience, item)
		}
		list = append(list, s)
	}
	return list, nil
}

// String returns the named claim as a string
func (c *Claims) String(k string) (string, error) {
	v, ok := c.Get(k)
	if !ok {
		return "", claimNotFound(k)
	}
	s, ok := v.AsString()
	if !ok {
		return "", claimType(k, v)
	}
	return s, nil
}

// Bool returns the named claim as a bool
func (c *Claims) Bool(k string) (bool, error) {
	v, ok := c.Get(k)
	if !ok {
		return false, claimNotFound(k)
	}
	b, ok := v.AsBool()
	if !ok {
		return false, claimType(k, v)
	}
	return b, nil
}

// Int64 returns the named claim as an integer.
// Strings with decimal integers are accepted.
func (c *Claims) Int64(k string) (int64, error) {
	v, ok := c.Get(k)
	if !ok {
		return 0, claimNotFound(k)
	}
	if i, ok := v.AsInt64(); ok {
		return i, nil
	}
	if s, ok := v.AsString(); ok {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, claimType(k, v)
}

// Time returns the named claim as NumericDate converted to time.
// Only JSON numbers are accepted.
func (c *Claims) Time(k string) (time.Time, error) {
	v, ok := c.Get(k)
	if !ok {
		return time.Time{}, claimNotFound(k)
	}
	d, ok := numericDate(v)
	if !ok {
		return time.Time{}, claimType(k, v)
	}
	return d.Time, nil
}

// Registered returns the registered claims that are present, in RFC order
func (c *Claims) Registered() *Map {
	res := NewMap()
	for _, k := range []string{ClaimIssuer, ClaimSubject, ClaimAudience, ClaimExpiry, ClaimNotBefore, ClaimIssuedAt, ClaimID} {
		if v, ok := c.Get(k); ok {
			res.Set(k, v)
		}
	}
	return res
}

// Clone returns a deep copy
func (c *Claims) Clone() *Claims {
	return &Claims{Map: c.Map.Clone()}
}

func claimNotFound(name string) error {
	return errors.Wrapf(ErrClaimNotFound, "%s", name)
}

func claimType(name string, v Value) error {
	return errors.Wrapf(ErrClaimType, "%s is %s", name, v.Kind())
}
