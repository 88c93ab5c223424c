package cli

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/xjwt/jwt"
	"github.com/google/uuid"
)

// SignCmd creates a signed token
type SignCmd struct {
	Claims string        `required:"" help:"JSON claims file, or - for stdin"`
	Alg    string        `help:"signature algorithm, derived from the key if not provided"`
	Key    string        `help:"private key file, PEM or JWK" xor:"key"`
	Secret string        `help:"HMAC secret, supports env:// and file:// prefixes" xor:"key"`
	KeyID  string        `name:"kid" help:"key ID header"`
	Expiry time.Duration `help:"sets iat and exp claims relative to the current time"`
	JTI    bool          `name:"jti" help:"sets a random jti claim"`
}

// Run the command
func (a *SignCmd) Run(ctx *Cli) error {
	b, err := ctx.ReadFile(a.Claims)
	if err != nil {
		return errors.WithMessage(err, "unable to load claims")
	}
	claims, err := jwt.ParseClaims(b)
	if err != nil {
		return errors.WithMessage(err, "invalid claims")
	}

	var key any
	switch {
	case a.Key != "":
		if key, err = loadKey(a.Key); err != nil {
			return err
		}
	case a.Secret != "":
		secret, err := configloader.ResolveValue(a.Secret)
		if err != nil {
			return errors.WithMessage(err, "unable to load secret")
		}
		key = []byte(secret)
	}

	var alg jwt.Algorithm
	switch {
	case a.Alg != "":
		if alg, err = jwt.ParseAlgorithm(a.Alg); err != nil {
			return err
		}
	case key != nil:
		if alg, err = jwt.AlgorithmForKey(key); err != nil {
			return err
		}
	default:
		return errors.New("either --alg, --key or --secret must be provided")
	}

	builder := jwt.NewBuilder(alg).
		KeyID(a.KeyID).
		Claims(claims)
	if a.Expiry > 0 {
		now := time.Now()
		builder.Claim(jwt.ClaimIssuedAt, now).
			Claim(jwt.ClaimExpiry, now.Add(a.Expiry))
	}

	if a.JTI {
		builder.Claim(jwt.ClaimID, uuid.NewString())
	}

	token, err := builder.Sign(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Writer(), token)
	return nil
}
