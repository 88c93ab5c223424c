package jwt

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/xlog"
	"gopkg.in/yaml.v3"
)

// KeyConfig specifies a verification key.
// Secret and PEM values support env:// and file:// schemas.
type KeyConfig struct {
	// ID of the key, matched with kid header
	ID string `json:"kid" yaml:"kid"`
	// Secret for HMAC algorithms
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
	// PEM encoded public key, certificate or private key
	PEM string `json:"pem,omitempty" yaml:"pem,omitempty"`
}

// DecoderConfig provides Decoder configuration
type DecoderConfig struct {
	// AllowUnsigned accepts alg=none tokens
	AllowUnsigned bool `json:"allow_unsigned,omitempty" yaml:"allow_unsigned,omitempty"`
	// SkipVerification decodes tokens with invalid signatures
	SkipVerification bool `json:"skip_verification,omitempty" yaml:"skip_verification,omitempty"`
	// Algorithms limits accepted algorithms
	Algorithms []string `json:"algorithms,omitempty" yaml:"algorithms,omitempty"`
	// Keys specifies verification keys
	Keys []*KeyConfig `json:"keys,omitempty" yaml:"keys,omitempty"`
	// JWKSURI specifies remote JSON Web Key Set
	JWKSURI string `json:"jwks_uri,omitempty" yaml:"jwks_uri,omitempty"`
	// JWKSFile specifies local JSON Web Key Set
	JWKSFile string `json:"jwks_file,omitempty" yaml:"jwks_file,omitempty"`

	// Issuer validates the iss claim
	Issuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	// Subject validates the sub claim
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	// Audience validates the aud claim
	Audience []string `json:"audience,omitempty" yaml:"audience,omitempty"`
	// Leeway for time based claims, as time.Duration string
	Leeway string `json:"leeway,omitempty" yaml:"leeway,omitempty"`
}

// LoadDecoderConfig returns configuration loaded from JSON or YAML file
func LoadDecoderConfig(file string) (*DecoderConfig, error) {
	if file == "" {
		return &DecoderConfig{}, nil
	}
	cfg := new(DecoderConfig)
	if err := configloader.Unmarshal(file, cfg); err != nil {
		return nil, errors.WithMessagef(err, "unable to load config: %q", file)
	}
	return cfg, nil
}

// ParseDecoderConfig parses YAML or JSON configuration
func ParseDecoderConfig(b []byte) (*DecoderConfig, error) {
	cfg := new(DecoderConfig)
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.WithMessage(err, "unable to parse config")
	}
	return cfg, nil
}

// Policy returns ClaimsPolicy, or nil if no claims are checked
func (c *DecoderConfig) Policy() (*ClaimsPolicy, error) {
	if c.Issuer == "" && c.Subject == "" && len(c.Audience) == 0 && c.Leeway == "" {
		return nil, nil
	}
	p := &ClaimsPolicy{
		ExpectedIssuer:   c.Issuer,
		ExpectedSubject:  c.Subject,
		ExpectedAudience: c.Audience,
	}
	if c.Leeway != "" {
		d, err := time.ParseDuration(c.Leeway)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid leeway: %q", c.Leeway)
		}
		p.Leeway = d
	}
	return p, nil
}

// Options returns Decoder options.
// The context and remote options are used by the key set of JWKSURI.
func (c *DecoderConfig) Options(ctx context.Context, remote ...RemoteKeyOption) ([]Option, error) {
	var opts []Option
	if c.AllowUnsigned {
		opts = append(opts, WithAllowUnsigned())
	}
	if c.SkipVerification {
		opts = append(opts, WithSkipVerification())
	}

	if len(c.Algorithms) > 0 {
		algs := make([]Algorithm, 0, len(c.Algorithms))
		for _, name := range c.Algorithms {
			alg, err := ParseAlgorithm(name)
			if err != nil {
				return nil, errors.WithMessage(err, "invalid algorithms")
			}
			algs = append(algs, alg)
		}
		opts = append(opts, WithValidAlgorithms(algs...))
	}

	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	if policy != nil {
		opts = append(opts, WithClaimsPolicy(policy))
	}

	var keyfuncs []Keyfunc
	if len(c.Keys) > 0 {
		keys := make(map[string]any, len(c.Keys))
		for _, k := range c.Keys {
			key, err := k.load()
			if err != nil {
				return nil, err
			}
			keys[k.ID] = key
		}
		keyfuncs = append(keyfuncs, KeyMap(keys))
	}
	if c.JWKSFile != "" {
		ks, err := LoadKeySet(c.JWKSFile)
		if err != nil {
			return nil, err
		}
		keyfuncs = append(keyfuncs, KeySetKeyfunc(ctx, ks))
	}
	if c.JWKSURI != "" {
		keyfuncs = append(keyfuncs, KeySetKeyfunc(ctx, NewRemoteKeySet(ctx, c.JWKSURI, remote...)))
	}

	switch len(keyfuncs) {
	case 0:
	case 1:
		opts = append(opts, WithKeyfunc(keyfuncs[0]))
	default:
		opts = append(opts, WithKeyfunc(FirstKey(keyfuncs...)))
	}

	logger.KV(xlog.DEBUG,
		"allow_unsigned", c.AllowUnsigned,
		"skip_verification", c.SkipVerification,
		"algorithms", c.Algorithms,
		"keys", len(c.Keys),
		"jwks_uri", c.JWKSURI,
		"jwks_file", c.JWKSFile,
	)
	return opts, nil
}

// NewDecoderFromConfig returns Decoder configured by cfg,
// extra options are applied after the configuration
func NewDecoderFromConfig(ctx context.Context, cfg *DecoderConfig, extra ...Option) (*Decoder, error) {
	opts, err := cfg.Options(ctx)
	if err != nil {
		return nil, err
	}
	return NewDecoder(append(opts, extra...)...), nil
}

func (k *KeyConfig) load() (any, error) {
	switch {
	case k.Secret != "" && k.PEM != "":
		return nil, errors.Errorf("key %q: secret and pem are mutually exclusive", k.ID)
	case k.Secret != "":
		secret, err := configloader.ResolveValue(k.Secret)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to load secret for key %q", k.ID)
		}
		return []byte(secret), nil
	case k.PEM != "":
		pem, err := configloader.ResolveValue(k.PEM)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to load pem for key %q", k.ID)
		}
		pub, err := publicKey([]byte(pem))
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid pem for key %q", k.ID)
		}
		return pub, nil
	}
	return nil, errors.Errorf("key %q: secret or pem must be provided", k.ID)
}
