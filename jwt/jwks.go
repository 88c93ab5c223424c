package jwt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
	jose "github.com/go-jose/go-jose/v3"
)

// maxJWKSSize limits the size of a fetched key set
const maxJWKSSize = 1 << 20

// KeySet provides keys to verify token signatures.
type KeySet interface {
	// GetKey returns the key for kid, empty kid returns the first key
	GetKey(ctx context.Context, kid string) (any, error)
}

// KeySetKeyfunc returns Keyfunc that resolves keys by the kid header
func KeySetKeyfunc(ctx context.Context, ks KeySet) Keyfunc {
	return func(h *Header) (any, error) {
		kid, _ := h.KeyID()
		return ks.GetKey(ctx, kid)
	}
}

// StaticKeySet is a KeySet over a fixed list of JSON Web Keys.
type StaticKeySet struct {
	Keys []jose.JSONWebKey
}

// ParseKeySet parses JSON Web Key Set
func ParseKeySet(b []byte) (*StaticKeySet, error) {
	var keySet jose.JSONWebKeySet
	if err := json.Unmarshal(b, &keySet); err != nil {
		return nil, errors.WithMessage(err, "failed to decode keys")
	}
	return &StaticKeySet{Keys: keySet.Keys}, nil
}

// LoadKeySet loads JSON Web Key Set from file
func LoadKeySet(file string) (*StaticKeySet, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	ks, err := ParseKeySet(b)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to load %s", file)
	}
	return ks, nil
}

// GetKey returns the key for the given kid.
func (s *StaticKeySet) GetKey(_ context.Context, keyID string) (any, error) {
	if key := findKey(s.Keys, keyID); key != nil {
		return key, nil
	}
	return nil, errors.Errorf("key not found: %s", truncate(keyID, 64))
}

// RemoteKeyOption configures RemoteKeySet
type RemoteKeyOption func(*RemoteKeySet)

// WithHTTPClient sets the client used to fetch keys
func WithHTTPClient(c *http.Client) RemoteKeyOption {
	return func(r *RemoteKeySet) {
		r.client = c
	}
}

// NewRemoteKeySet returns a KeySet that fetches JSON Web Key Set
// hosted at a remote URL.
//
// The returned KeySet is a long lived verifier that caches keys and refreshes
// them when a token references an unknown kid.
// Reuse a common remote key set instead of creating new ones as needed.
func NewRemoteKeySet(ctx context.Context, jwksURL string, opts ...RemoteKeyOption) *RemoteKeySet {
	r := &RemoteKeySet{
		jwksURL: jwksURL,
		ctx:     ctx,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RemoteKeySet is a KeySet implementation that fetches keys
// from a jwks_uri endpoint.
type RemoteKeySet struct {
	jwksURL string
	ctx     context.Context
	client  *http.Client

	// guard all other fields
	mu sync.RWMutex

	// inflight suppresses parallel execution of updateKeys and allows
	// multiple goroutines to wait for its result.
	inflight *inflight

	cachedKeys []jose.JSONWebKey
}

// inflight is used to wait on some in-flight request from multiple goroutines.
type inflight struct {
	doneCh chan struct{}

	keys []jose.JSONWebKey
	err  error
}

func newInflight() *inflight {
	return &inflight{doneCh: make(chan struct{})}
}

// wait returns a channel that multiple goroutines can receive on. Once it returns
// a value, the inflight request is done and result() can be inspected.
func (i *inflight) wait() <-chan struct{} {
	return i.doneCh
}

// done can only be called by a single goroutine.
func (i *inflight) done(keys []jose.JSONWebKey, err error) {
	i.keys = keys
	i.err = err
	close(i.doneCh)
}

// result cannot be called until the wait() channel has returned a value.
func (i *inflight) result() ([]jose.JSONWebKey, error) {
	return i.keys, i.err
}

// GetKey returns the key for the given kid.
func (r *RemoteKeySet) GetKey(ctx context.Context, keyID string) (any, error) {
	if key := findKey(r.keysFromCache(), keyID); key != nil {
		return key, nil
	}

	// unknown kid, the keys might have been rotated
	keys, err := r.keysFromRemote(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to fetch JWKS key")
	}

	if key := findKey(keys, keyID); key != nil {
		return key, nil
	}
	return nil, errors.Errorf("key not found: %s", truncate(keyID, 64))
}

func (r *RemoteKeySet) keysFromCache() (keys []jose.JSONWebKey) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cachedKeys
}

// keysFromRemote syncs the key set from the remote set, records the values in the
// cache, and returns the key set.
func (r *RemoteKeySet) keysFromRemote(ctx context.Context) ([]jose.JSONWebKey, error) {
	r.mu.Lock()
	if r.inflight == nil {
		r.inflight = newInflight()

		// this goroutine owns the inflight request until it is nil'ed
		go func() {
			keys, err := r.updateKeys()

			r.inflight.done(keys, err)

			r.mu.Lock()
			defer r.mu.Unlock()

			if err == nil {
				r.cachedKeys = keys
			}
			r.inflight = nil
		}()
	}
	inflight := r.inflight
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	case <-inflight.wait():
		return inflight.result()
	}
}

func (r *RemoteKeySet) updateKeys() ([]jose.JSONWebKey, error) {
	started := time.Now()
	status := "error"
	defer func() {
		metricskey.PerfJWKSFetch.MeasureSince(started, status)
	}()

	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, r.jwksURL, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to fetch keys")
	}
	defer func() { _ = resp.Body.Close() }()
	status = strconv.Itoa(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSSize))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("get keys failed: %s", resp.Status)
	}

	ks, err := ParseKeySet(body)
	if err != nil {
		return nil, err
	}

	logger.KV(xlog.DEBUG, "jwks", r.jwksURL, "keys", len(ks.Keys))
	return ks.Keys, nil
}

// findKey returns the key with kid, or the first key if kid is empty
func findKey(keys []jose.JSONWebKey, kid string) *jose.JSONWebKey {
	for i := range keys {
		if kid == "" || keys[i].KeyID == kid {
			return &keys[i]
		}
	}
	return nil
}
