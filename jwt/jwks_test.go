package jwt_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/effective-security/xjwt/jwt"
	jose "github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keySetJSON(t *testing.T, keys ...jose.JSONWebKey) []byte {
	b, err := json.Marshal(jose.JSONWebKeySet{Keys: keys})
	require.NoError(t, err)
	return b
}

func TestStaticKeySet(t *testing.T) {
	k := loadKeys(t)
	ctx := context.Background()

	js := keySetJSON(t,
		jose.JSONWebKey{Key: &k.p256.PublicKey, KeyID: "ec", Algorithm: "ES256", Use: "sig"},
		jose.JSONWebKey{Key: &k.rsa.PublicKey, KeyID: "rsa", Algorithm: "RS256", Use: "sig"},
		jose.JSONWebKey{Key: k.edPub, KeyID: "ed", Algorithm: "EdDSA", Use: "sig"},
	)

	ks, err := jwt.ParseKeySet(js)
	require.NoError(t, err)
	require.Len(t, ks.Keys, 3)

	key, err := ks.GetKey(ctx, "rsa")
	require.NoError(t, err)
	assert.Equal(t, "rsa", key.(*jose.JSONWebKey).KeyID)

	key, err = ks.GetKey(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "ec", key.(*jose.JSONWebKey).KeyID)

	_, err = ks.GetKey(ctx, "missing")
	assert.EqualError(t, err, "key not found: missing")

	_, err = jwt.ParseKeySet([]byte("{"))
	assert.Error(t, err)

	d := jwt.NewDecoder(jwt.WithKeyfunc(jwt.KeySetKeyfunc(ctx, ks)))
	for kid, alg := range map[string]jwt.Algorithm{"ec": jwt.ES256, "rsa": jwt.PS256, "ed": jwt.EdDSA} {
		token, err := jwt.NewBuilder(alg).KeyID(kid).Claim("sub", kid).Sign(k.signingKey(alg))
		require.NoError(t, err)
		requireSuccess(t, d.Decode(token))
	}

	token, err := jwt.NewBuilder(jwt.ES256).KeyID("rsa").Sign(k.p256)
	require.NoError(t, err)
	requireFailure(t, d.Decode(token), jwt.KindKeyAlgorithmMismatch)

	token, err = jwt.NewBuilder(jwt.ES256).KeyID("other").Sign(k.p256)
	require.NoError(t, err)
	requireFailure(t, d.Decode(token), jwt.KindKeyUnavailable)

	file := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(file, js, 0600))
	loaded, err := jwt.LoadKeySet(file)
	require.NoError(t, err)
	assert.Len(t, loaded.Keys, 3)

	_, err = jwt.LoadKeySet(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRemoteKeySet(t *testing.T) {
	k := loadKeys(t)
	ctx := context.Background()

	var (
		hits    int32
		mu      sync.Mutex
		payload = keySetJSON(t, jose.JSONWebKey{Key: &k.p256.PublicKey, KeyID: "k1", Algorithm: "ES256"})
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	ks := jwt.NewRemoteKeySet(ctx, srv.URL, jwt.WithHTTPClient(srv.Client()))

	key, err := ks.GetKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", key.(*jose.JSONWebKey).KeyID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// cached
	_, err = ks.GetKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// rotated
	mu.Lock()
	payload = keySetJSON(t,
		jose.JSONWebKey{Key: &k.p256.PublicKey, KeyID: "k1", Algorithm: "ES256"},
		jose.JSONWebKey{Key: &k.p384.PublicKey, KeyID: "k2", Algorithm: "ES384"},
	)
	mu.Unlock()

	token, err := jwt.NewBuilder(jwt.ES384).KeyID("k2").Claim("sub", "rotated").Sign(k.p384)
	require.NoError(t, err)

	d := jwt.NewDecoder(jwt.WithKeyfunc(jwt.KeySetKeyfunc(ctx, ks)))
	requireSuccess(t, d.Decode(token))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	_, err = ks.GetKey(ctx, "k3")
	assert.EqualError(t, err, "key not found: k3")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestRemoteKeySetCoalesce(t *testing.T) {
	k := loadKeys(t)
	ctx := context.Background()

	var hits int32
	release := make(chan struct{})
	payload := keySetJSON(t, jose.JSONWebKey{Key: &k.p256.PublicKey, KeyID: "k1", Algorithm: "ES256"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	ks := jwt.NewRemoteKeySet(ctx, srv.URL)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ks.GetKey(ctx, "k1")
			assert.NoError(t, err)
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&hits), int32(n))
}

func TestRemoteKeySetErrors(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			_, _ = w.Write([]byte("not json"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := jwt.NewRemoteKeySet(ctx, srv.URL).GetKey(ctx, "k1")
	assert.EqualError(t, err, "unable to fetch JWKS key: get keys failed: 500 Internal Server Error")

	_, err = jwt.NewRemoteKeySet(ctx, srv.URL+"/bad").GetKey(ctx, "k1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode keys")

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = jwt.NewRemoteKeySet(ctx, srv.URL).GetKey(cctx, "k1")
	require.Error(t, err)
}
