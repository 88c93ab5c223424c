package jwt_test

import (
	"path/filepath"
	"testing"

	"github.com/effective-security/xjwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWK(t *testing.T) {
	k := loadKeys(t)
	folder := filepath.Join(t.TempDir(), "keys")

	_, err := jwt.LoadJWK("TestJWK")
	assert.EqualError(t, err, "open TestJWK: no such file or directory")

	jk, err := jwt.NewJWK(k.p256, jwt.ES256, "")
	require.NoError(t, err)
	assert.Equal(t, "ES256", jk.Algorithm)
	assert.Equal(t, "sig", jk.Use)
	tb, err := jwt.Thumbprint(jk)
	require.NoError(t, err)
	assert.Equal(t, tb, jk.KeyID)

	fn, err := jwt.SaveJWK(folder, jk)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(folder, tb+".jwk"), fn)

	jk2, err := jwt.LoadJWK(fn)
	require.NoError(t, err)
	tb2, err := jwt.Thumbprint(jk2)
	require.NoError(t, err)
	assert.Equal(t, tb, tb2)

	// private JWK signs, public part verifies
	token, err := jwt.NewBuilder(jwt.ES256).KeyID(jk2.KeyID).Claim("sub", "jwk").Sign(jk2)
	require.NoError(t, err)
	pub := jk2.Public()
	requireSuccess(t, jwt.NewDecoder(jwt.WithKey(&pub)).Decode(token))

	named, err := jwt.NewJWK(&k.rsa.PublicKey, jwt.RS256, "rsa1")
	require.NoError(t, err)
	assert.Equal(t, "rsa1", named.KeyID)

	_, err = jwt.NewJWK(k.hmac, jwt.HS256, "")
	assert.EqualError(t, err, "JWK is not supported for HS256")
	_, err = jwt.NewJWK(k.p256, jwt.ES384, "")
	assert.ErrorIs(t, err, jwt.ErrKeyAlgorithmMismatch)
}
