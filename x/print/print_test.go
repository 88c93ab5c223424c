package print_test

import (
	"bytes"
	"testing"

	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/x/print"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTexts(t *testing.T) {
	secret := []byte("secret")
	token, err := jwt.NewBuilder(jwt.HS256).
		Claim("sub", "1").
		Claim("aud", "api").
		Claim("exp", 1700003600).
		Claim("iat", 1700000000.5).
		Claim("name", "John").
		Sign(secret)
	require.NoError(t, err)

	res := jwt.NewDecoder(jwt.WithKey(secret)).Decode(token)
	texts := print.Texts(res)
	assert.Empty(t, texts.Error)
	assert.Equal(t, `{
  "header": {
    "alg": "HS256",
    "typ": "JWT"
  }
}`, texts.Header)
	assert.Equal(t, `{
  "payload": {
    "sub": "1",
    "aud": "api",
    "exp": 1700003600,
    "iat": 1700000000.5,
    "name": "John"
  }
}`, texts.Payload)
	assert.Equal(t, `{
  "claims": {
    "sub": "1",
    "aud": [
      "api"
    ],
    "exp": "2023-11-14T23:13:20Z",
    "iat": "2023-11-14T22:13:20Z",
    "alg": "HS256",
    "signature_valid": true
  }
}`, texts.Claims)
	assert.Len(t, texts.Items(), 3)

	w := bytes.NewBuffer([]byte{})
	print.Result(w, res)
	assert.Contains(t, w.String(), `"signature_valid": true`)

	// unverified
	res = jwt.NewDecoder(jwt.WithKey([]byte("other")), jwt.WithSkipVerification()).Decode(token)
	assert.Contains(t, print.Texts(res).Claims, `"signature_valid": false`)
}

func TestTextsFailure(t *testing.T) {
	res := jwt.NewDecoder().Decode("eyJhbGciOiJub25lIn0.eyJzdWIiOiIxIn0.")
	texts := print.Texts(res)
	assert.Equal(t, `{
  "error": "unsigned tokens are not allowed"
}`, texts.Error)
	assert.Empty(t, texts.Header)
	assert.Empty(t, texts.Payload)
	assert.Empty(t, texts.Claims)
	assert.Equal(t, []string{texts.Error}, texts.Items())

	assert.Empty(t, print.Texts(nil).Items())
}

func TestTextsInvalidRegisteredClaims(t *testing.T) {
	res := jwt.NewDecoder(jwt.WithAllowUnsigned()).Decode(
		jwt.EncodeSegment([]byte(`{"alg":"none"}`)) + "." +
			jwt.EncodeSegment([]byte(`{"exp":"soon","aud":1}`)) + ".")
	claims := print.Texts(res).Claims
	assert.Contains(t, claims, `"exp": "soon"`)
	assert.Contains(t, claims, `"aud": 1`)
}

func TestJSON(t *testing.T) {
	w := bytes.NewBuffer([]byte{})
	print.JSON(w, struct{}{})
	assert.Equal(t, "{}\n", w.String())

	w.Reset()
	print.JSON(w, jwt.NewMap().Set("b", jwt.Int(1)).Set("a", jwt.Bool(true)))
	assert.Equal(t, "{\n\t\"b\": 1,\n\t\"a\": true\n}\n", w.String())
}
