package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/xjwt/certutil"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/x/print"
	"github.com/effective-security/xlog"
)

// DecodeCmd decodes and verifies a token
type DecodeCmd struct {
	Token     string   `kong:"arg" required:"" help:"token, token file name, or - for stdin"`
	Cfg       string   `help:"decoder configuration file"`
	Key       string   `help:"verification key file, PEM or JWK"`
	Secret    string   `help:"HMAC secret, supports env:// and file:// prefixes"`
	JWKS      string   `name:"jwks" help:"JWKS file name or URL"`
	Alg       []string `help:"allowed algorithms"`
	AllowNone bool     `name:"allow-none" help:"allow unsigned tokens"`
	NoVerify  bool     `name:"no-verify" help:"do not fail when the signature can not be verified"`
}

// Run the command
func (a *DecodeCmd) Run(ctx *Cli) error {
	token, err := a.readToken(ctx)
	if err != nil {
		return err
	}

	cfg, err := jwt.LoadDecoderConfig(a.Cfg)
	if err != nil {
		return errors.WithMessage(err, "unable to load configuration")
	}
	if a.AllowNone {
		cfg.AllowUnsigned = true
	}
	if a.NoVerify {
		cfg.SkipVerification = true
	}
	if len(a.Alg) > 0 {
		cfg.Algorithms = a.Alg
	}

	keyfuncs, err := a.keyfuncs(ctx)
	if err != nil {
		return err
	}
	var extra []jwt.Option
	if len(keyfuncs) > 0 {
		extra = append(extra, jwt.WithKeyfunc(jwt.FirstKey(keyfuncs...)))
	}

	opts, err := cfg.Options(ctx.Context(), jwt.WithHTTPClient(ctx.HTTPClient()))
	if err != nil {
		return err
	}
	d := jwt.NewDecoder(append(opts, extra...)...)

	res := d.Decode(token)
	print.Result(ctx.Writer(), res)
	if !res.OK() {
		return res.Err()
	}
	return nil
}

func (a *DecodeCmd) readToken(ctx *Cli) (string, error) {
	token := a.Token
	if token == "-" || !strings.Contains(token, ".") || isFile(token) {
		b, err := ctx.ReadFile(token)
		if err != nil {
			return "", errors.WithMessage(err, "unable to load token")
		}
		token = string(b)
	}
	return strings.TrimSpace(token), nil
}

// keyfuncs returns key resolvers specified by flags,
// they take precedence over the keys in configuration
func (a *DecodeCmd) keyfuncs(ctx *Cli) ([]jwt.Keyfunc, error) {
	var funcs []jwt.Keyfunc
	if a.Key != "" {
		key, err := loadKey(a.Key)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, jwt.StaticKey(key))
	}
	if a.Secret != "" {
		secret, err := configloader.ResolveValue(a.Secret)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to load secret")
		}
		funcs = append(funcs, jwt.StaticKey([]byte(secret)))
	}
	if a.JWKS != "" {
		var ks jwt.KeySet
		if strings.HasPrefix(a.JWKS, "https://") || strings.HasPrefix(a.JWKS, "http://") {
			ks = jwt.NewRemoteKeySet(ctx.Context(), a.JWKS, jwt.WithHTTPClient(ctx.HTTPClient()))
		} else {
			sks, err := jwt.LoadKeySet(a.JWKS)
			if err != nil {
				return nil, errors.WithMessage(err, "unable to load JWKS")
			}
			ks = sks
		}
		funcs = append(funcs, jwt.KeySetKeyfunc(ctx.Context(), ks))
	}
	logger.KV(xlog.DEBUG, "keyfuncs", len(funcs), "jwks", a.JWKS)
	return funcs, nil
}

// loadKey returns *jose.JSONWebKey for .jwk and .json files,
// otherwise the PEM encoded private or public key
func loadKey(file string) (any, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".jwk", ".json":
		return jwt.LoadJWK(file)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to load key")
	}
	if s, err := certutil.ParsePrivateKeyPEM(b); err == nil {
		return s, nil
	}
	pub, err := certutil.ParsePublicKeyPEM(b)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to parse key: %s", file)
	}
	return pub, nil
}

func isFile(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && !fi.IsDir()
}
