// Package print renders decoded tokens as display texts
package print

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	xprint "github.com/effective-security/x/print"
	"github.com/effective-security/xjwt/jwt"
)

// ResultTexts provides display texts of a decode result.
// For a failure only Error is set, otherwise Header, Payload and Claims.
type ResultTexts struct {
	Header  string `json:"header,omitempty" yaml:"header,omitempty"`
	Payload string `json:"payload,omitempty" yaml:"payload,omitempty"`
	Claims  string `json:"claims,omitempty" yaml:"claims,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Items returns the texts in display order
func (t ResultTexts) Items() []string {
	if t.Error != "" {
		return []string{t.Error}
	}
	if t.Header == "" && t.Payload == "" {
		return nil
	}
	return []string{t.Header, t.Payload, t.Claims}
}

// Texts returns display texts of the result
func Texts(res jwt.DecodeResult) ResultTexts {
	switch r := res.(type) {
	case *jwt.Success:
		return ResultTexts{
			Header:  section("header", r.Header.Map),
			Payload: section("payload", r.Claims.Map),
			Claims:  section("claims", ClaimsBundle(r)),
		}
	case *jwt.Failure:
		return ResultTexts{
			Error: section("error", r.Message),
		}
	}
	return ResultTexts{}
}

// ClaimsBundle returns registered claims with dates as RFC 3339,
// the algorithm and the signature status
func ClaimsBundle(s *jwt.Success) *jwt.Map {
	m := jwt.NewMap()
	s.Claims.Registered().Range(func(k string, v jwt.Value) bool {
		switch k {
		case jwt.ClaimExpiry, jwt.ClaimNotBefore, jwt.ClaimIssuedAt:
			if t, err := s.Claims.Time(k); err == nil {
				v = jwt.String(t.Format(time.RFC3339))
			}
		case jwt.ClaimAudience:
			if aud, err := s.Claims.Audience(); err == nil {
				v, _ = jwt.ValueOf(aud)
			}
		}
		m.Set(k, v)
		return true
	})
	m.Set("alg", jwt.String(s.Algorithm.String()))
	m.Set("signature_valid", jwt.Bool(s.SignatureValid))
	return m
}

// JSON prints value to out
func JSON(w io.Writer, value any) {
	xprint.JSON(w, value)
}

// Result prints display texts of the result
func Result(w io.Writer, res jwt.DecodeResult) {
	for _, item := range Texts(res).Items() {
		fmt.Fprintln(w, item)
	}
}

func section(name string, value any) string {
	b, err := json.MarshalIndent(map[string]any{name: value}, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}
