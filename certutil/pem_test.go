package certutil_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/effective-security/xjwt/certutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivateKeyPEM(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tcases := []struct {
		key     crypto.Signer
		pemType string
	}{
		{rsaKey, "RSA PRIVATE KEY"},
		{ecKey, "EC PRIVATE KEY"},
		{edKey, "PRIVATE KEY"},
	}
	for _, tc := range tcases {
		b, err := certutil.EncodePrivateKeyToPEM(tc.key)
		require.NoError(t, err)
		block, _ := pem.Decode(b)
		require.NotNil(t, block)
		assert.Equal(t, tc.pemType, block.Type)

		s, err := certutil.ParsePrivateKeyPEM(b)
		require.NoError(t, err)
		assert.Equal(t, tc.key.Public(), s.Public())

		// the public part of the private key
		pub, err := certutil.ParsePublicKeyPEM(b)
		require.NoError(t, err)
		assert.Equal(t, tc.key.Public(), pub)

		b, err = certutil.EncodePublicKeyToPEM(tc.key.Public())
		require.NoError(t, err)
		pub, err = certutil.ParsePublicKeyPEM(b)
		require.NoError(t, err)
		assert.Equal(t, tc.key.Public(), pub)
	}

	_, err = certutil.EncodePrivateKeyToPEM("key")
	assert.EqualError(t, err, "unsupported key: string")

	_, err = certutil.ParsePrivateKeyPEM([]byte("not pem"))
	assert.EqualError(t, err, "unable to decode private key")

	_, err = certutil.ParsePrivateKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1, 2, 3}}))
	assert.EqualError(t, err, "unable to parse private key")
}

func TestPublicKeyPEM(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	// EC PARAMETERS block is skipped
	params := pem.EncodeToMemory(&pem.Block{Type: "EC PARAMETERS", Bytes: []byte{6, 5, 43, 129, 4, 0, 34}})
	b, err := certutil.EncodePrivateKeyToPEM(key)
	require.NoError(t, err)
	s, err := certutil.ParsePrivateKeyPEM(append(params, b...))
	require.NoError(t, err)
	assert.Equal(t, key.Public(), s.Public())

	// certificate
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	require.NoError(t, err)
	pub, err := certutil.ParsePublicKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	require.NoError(t, err)
	assert.Equal(t, key.Public(), pub)

	// PKCS#1
	rsaKey, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	pub, err = certutil.ParsePublicKeyPEM(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&rsaKey.PublicKey),
	}))
	require.NoError(t, err)
	assert.Equal(t, &rsaKey.PublicKey, pub)

	_, err = certutil.ParsePublicKeyPEM([]byte("not pem"))
	assert.EqualError(t, err, "key must be PEM encoded")

	_, err = certutil.ParsePublicKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{1}}))
	assert.EqualError(t, err, "unable to parse public key")
}
